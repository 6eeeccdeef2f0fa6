package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// StageResult is the terminal state of a single stage.
type StageResult string

const (
	StageSucceeded StageResult = "success"
	StageFailed    StageResult = "failed"
	StageCanceled  StageResult = "canceled"
	StageSkipped   StageResult = "skipped"
)

// RunOutcome is the terminal state of a whole run.
type RunOutcome string

const (
	OutcomeSuccess RunOutcome = "success"
	OutcomeFailed  RunOutcome = "failed"
)

// StageRecord captures one stage's execution for reporting and history.
type StageRecord struct {
	Stage    string
	Result   StageResult
	Duration time.Duration
	Err      error
}

// Report aggregates per-stage results for a single pipeline run.
type Report struct {
	RunID    string
	Trigger  string // cli | watch | schedule
	Started  time.Time
	Finished time.Time
	Outcome  RunOutcome
	Stages   []StageRecord
	Err      error
}

// NewReport creates a report with a fresh run ID.
func NewReport(trigger string) *Report {
	return &Report{
		RunID:   uuid.NewString(),
		Trigger: trigger,
		Started: time.Now(),
	}
}

func (r *Report) recordStage(stage string, dur time.Duration, result StageResult, err error) {
	r.Stages = append(r.Stages, StageRecord{Stage: stage, Result: result, Duration: dur, Err: err})
}

// finish derives the run outcome and stamps the completion time.
func (r *Report) finish(err error) {
	r.Finished = time.Now()
	r.Err = err
	if err != nil {
		r.Outcome = OutcomeFailed
		return
	}
	r.Outcome = OutcomeSuccess
}

// Duration returns the total wall-clock run time.
func (r *Report) Duration() time.Duration {
	if r.Finished.IsZero() {
		return time.Since(r.Started)
	}
	return r.Finished.Sub(r.Started)
}

// StageResultFor returns the recorded result for a stage, or StageSkipped
// if the stage never ran.
func (r *Report) StageResultFor(stage string) StageResult {
	for _, s := range r.Stages {
		if s.Stage == stage {
			return s.Result
		}
	}
	return StageSkipped
}
