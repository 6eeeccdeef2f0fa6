package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitedeploy/internal/pipeline"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func finishedReport(trigger string, err error) *pipeline.Report {
	report := pipeline.NewReport(trigger)
	report.Stages = []pipeline.StageRecord{
		{Stage: pipeline.StageBuild, Result: pipeline.StageSucceeded, Duration: 120 * time.Millisecond},
	}
	if err != nil {
		report.Stages = append(report.Stages, pipeline.StageRecord{
			Stage: pipeline.StagePublish, Result: pipeline.StageFailed, Duration: 40 * time.Millisecond, Err: err,
		})
		report.Outcome = pipeline.OutcomeFailed
	} else {
		report.Stages = append(report.Stages, pipeline.StageRecord{
			Stage: pipeline.StagePublish, Result: pipeline.StageSucceeded, Duration: 40 * time.Millisecond,
		})
		report.Outcome = pipeline.OutcomeSuccess
	}
	report.Err = err
	report.Finished = report.Started.Add(200 * time.Millisecond)
	return report
}

func TestRecordAndRecentRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ok := finishedReport("cli", nil)
	failed := finishedReport("watch", errors.New("connection timed out"))

	require.NoError(t, store.Record(ctx, ok))
	require.NoError(t, store.Record(ctx, failed))

	runs, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	byID := map[string]Run{}
	for _, r := range runs {
		byID[r.RunID] = r
	}
	assert.Equal(t, "success", byID[ok.RunID].Outcome)
	assert.Equal(t, "cli", byID[ok.RunID].Trigger)
	assert.Empty(t, byID[ok.RunID].Error)
	assert.Equal(t, "failed", byID[failed.RunID].Outcome)
	assert.Contains(t, byID[failed.RunID].Error, "connection timed out")
}

func TestRecentRunsRespectsLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for range 5 {
		require.NoError(t, store.Record(ctx, finishedReport("schedule", nil)))
	}

	runs, err := store.RecentRuns(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestStageResults(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	report := finishedReport("cli", nil)
	require.NoError(t, store.Record(ctx, report))

	results, err := store.StageResults(ctx, report.RunID)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, pipeline.StageBuild, results[0].Stage)
	assert.Equal(t, "success", results[0].Result)
	assert.Equal(t, 120*time.Millisecond, results[0].Duration)
	assert.Equal(t, pipeline.StagePublish, results[1].Stage)
}

func TestRecentRunsEmptyStore(t *testing.T) {
	store := openTestStore(t)
	runs, err := store.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
