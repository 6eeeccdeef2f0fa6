package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitedeploy/internal/build"
	"git.home.luguber.info/inful/sitedeploy/internal/config"
	sderrors "git.home.luguber.info/inful/sitedeploy/internal/errors"
	"git.home.luguber.info/inful/sitedeploy/internal/publish"
	"git.home.luguber.info/inful/sitedeploy/internal/retry"
	"git.home.luguber.info/inful/sitedeploy/internal/toolchain"
)

// fakeBuilder is a controllable build stage double.
type fakeBuilder struct {
	err    error
	calls  int
	output string
}

func (f *fakeBuilder) Build(_ context.Context) (*build.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &build.Result{OutputDir: f.output}, nil
}

// fakePublisher counts invocations and can fail a configurable number of times.
type fakePublisher struct {
	calls     int
	failUntil int // fail attempts 1..failUntil
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, outputDir string) (*publish.Result, error) {
	f.calls++
	if f.calls <= f.failUntil {
		return nil, f.err
	}
	return &publish.Result{Destination: "dest"}, nil
}

func testPlan(t *testing.T) *Plan {
	t.Helper()
	cfg := &config.Config{
		Site:      config.SiteConfig{Root: t.TempDir(), OutputDir: "public"},
		Generator: config.GeneratorConfig{Candidates: []string{"hugo"}},
		Remote:    config.RemoteConfig{Host: "example.com", User: "deploy", Path: "/var/www/site"},
	}
	return NewPlanBuilder(cfg).Build()
}

func TestFailedBuildNeverPublishes(t *testing.T) {
	builder := &fakeBuilder{err: sderrors.NewBuildFailure("generator exited non-zero", errors.New("exit status 1"))}
	publisher := &fakePublisher{}

	runner := NewRunner(testPlan(t)).WithBuilder(builder).WithPublisher(publisher)
	report, err := runner.Run(context.Background(), "test")

	require.Error(t, err)
	assert.Equal(t, 1, builder.calls)
	assert.Equal(t, 0, publisher.calls, "publish must never run after a failed build")
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Equal(t, StageFailed, report.StageResultFor(StageBuild))
	assert.Equal(t, StageSkipped, report.StageResultFor(StagePublish))
}

func TestSuccessfulRunExecutesBuildThenPublish(t *testing.T) {
	builder := &fakeBuilder{output: t.TempDir()}
	publisher := &fakePublisher{}

	runner := NewRunner(testPlan(t)).WithBuilder(builder).WithPublisher(publisher)
	report, err := runner.Run(context.Background(), "test")

	require.NoError(t, err)
	assert.Equal(t, 1, builder.calls)
	assert.Equal(t, 1, publisher.calls)
	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Equal(t, StageSucceeded, report.StageResultFor(StageBuild))
	assert.Equal(t, StageSucceeded, report.StageResultFor(StagePublish))
	assert.NotEmpty(t, report.RunID)
}

func TestResolverFailureAbortsBeforeAnySideEffect(t *testing.T) {
	publisher := &fakePublisher{}
	resolver := toolchain.NewResolver().WithLookPath(func(string) (string, error) {
		return "", errors.New("executable file not found in $PATH")
	})

	runner := NewRunner(testPlan(t)).WithResolver(resolver).WithPublisher(publisher)
	report, err := runner.Run(context.Background(), "test")

	require.Error(t, err)
	var pe *sderrors.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, sderrors.CategoryEnvironment, pe.Category)

	assert.Equal(t, 0, publisher.calls)
	assert.Equal(t, StageFailed, report.StageResultFor(StageResolve))
	assert.Equal(t, StageSkipped, report.StageResultFor(StageBuild))
	assert.Equal(t, StageSkipped, report.StageResultFor(StagePublish))
}

func TestBuildOnlySkipsPublish(t *testing.T) {
	builder := &fakeBuilder{output: t.TempDir()}
	publisher := &fakePublisher{}

	runner := NewRunner(testPlan(t)).WithBuilder(builder).WithPublisher(publisher).BuildOnly()
	_, err := runner.Run(context.Background(), "test")

	require.NoError(t, err)
	assert.Equal(t, 1, builder.calls)
	assert.Equal(t, 0, publisher.calls)
}

func TestPublishOnlySkipsBuild(t *testing.T) {
	builder := &fakeBuilder{output: t.TempDir()}
	publisher := &fakePublisher{}

	runner := NewRunner(testPlan(t)).WithBuilder(builder).WithPublisher(publisher).PublishOnly()
	_, err := runner.Run(context.Background(), "test")

	require.NoError(t, err)
	assert.Equal(t, 0, builder.calls)
	assert.Equal(t, 1, publisher.calls)
}

func TestPublishFailureIsNotRetriedByDefault(t *testing.T) {
	builder := &fakeBuilder{output: t.TempDir()}
	publisher := &fakePublisher{
		failUntil: 10,
		err:       sderrors.NewPublishFailure("transfer failed", errors.New("connection timed out"), true),
	}

	runner := NewRunner(testPlan(t)).WithBuilder(builder).WithPublisher(publisher)
	_, err := runner.Run(context.Background(), "test")

	require.Error(t, err)
	assert.Equal(t, 1, publisher.calls, "default policy performs exactly one attempt")
}

func TestPublishRetriesTransientFailureWhenConfigured(t *testing.T) {
	builder := &fakeBuilder{output: t.TempDir()}
	publisher := &fakePublisher{
		failUntil: 2,
		err:       sderrors.NewPublishFailure("transfer failed", errors.New("connection timed out"), true),
	}

	plan := testPlan(t)
	plan.Retry = retry.Policy{Mode: config.RetryBackoffFixed, Initial: time.Millisecond, Max: time.Millisecond, MaxRetries: 3}

	runner := NewRunner(plan).WithBuilder(builder).WithPublisher(publisher)
	_, err := runner.Run(context.Background(), "test")

	require.NoError(t, err)
	assert.Equal(t, 3, publisher.calls, "two transient failures then success")
}

func TestPublishNeverRetriesNonRetryableFailure(t *testing.T) {
	builder := &fakeBuilder{output: t.TempDir()}
	publisher := &fakePublisher{
		failUntil: 10,
		err:       sderrors.NewPublishFailure("transfer failed", errors.New("auth denied"), false),
	}

	plan := testPlan(t)
	plan.Retry = retry.Policy{Mode: config.RetryBackoffFixed, Initial: time.Millisecond, Max: time.Millisecond, MaxRetries: 3}

	runner := NewRunner(plan).WithBuilder(builder).WithPublisher(publisher)
	_, err := runner.Run(context.Background(), "test")

	require.Error(t, err)
	assert.Equal(t, 1, publisher.calls)
}

func TestCanceledContextStopsBeforeNextStage(t *testing.T) {
	builder := &fakeBuilder{output: t.TempDir()}
	publisher := &fakePublisher{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(testPlan(t)).WithBuilder(builder).WithPublisher(publisher)
	report, err := runner.Run(ctx, "test")

	require.Error(t, err)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorCanceled, se.Kind)
	assert.Equal(t, 0, builder.calls)
	assert.Equal(t, 0, publisher.calls)
	assert.Equal(t, OutcomeFailed, report.Outcome)
}

// recordingObserver captures stage lifecycle notifications in order.
type recordingObserver struct {
	started   []string
	completed []string
	runDone   bool
}

func (o *recordingObserver) OnStageStart(stage string) { o.started = append(o.started, stage) }
func (o *recordingObserver) OnStageComplete(stage string, _ time.Duration, _ StageResult) {
	o.completed = append(o.completed, stage)
}
func (o *recordingObserver) OnRunComplete(*Report) { o.runDone = true }

func TestObserverSeesStagesInDependencyOrder(t *testing.T) {
	builder := &fakeBuilder{output: t.TempDir()}
	publisher := &fakePublisher{}
	obs := &recordingObserver{}

	runner := NewRunner(testPlan(t)).WithBuilder(builder).WithPublisher(publisher).WithObserver(obs)
	_, err := runner.Run(context.Background(), "test")

	require.NoError(t, err)
	assert.Equal(t, []string{StageBuild, StagePublish}, obs.started)
	assert.Equal(t, []string{StageBuild, StagePublish}, obs.completed)
	assert.True(t, obs.runDone)
}
