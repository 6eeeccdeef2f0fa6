// Package metrics defines the pipeline's metrics recording abstraction and
// its Prometheus implementation.
package metrics

import "time"

// ResultLabel is the terminal state of a single stage.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// RunOutcomeLabel is the terminal state of a whole pipeline run.
type RunOutcomeLabel string

const (
	OutcomeSuccess RunOutcomeLabel = "success"
	OutcomeFailed  RunOutcomeLabel = "failed"
)

// Recorder receives pipeline observations. Implementations must tolerate a
// nil receiver so instrumentation call sites stay unconditional.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncRunOutcome(outcome RunOutcomeLabel)
	IncPublishRetry()
	IncPublishRetryExhausted()
}

// NoopRecorder discards all observations.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncRunOutcome(RunOutcomeLabel)              {}
func (NoopRecorder) IncPublishRetry()                           {}
func (NoopRecorder) IncPublishRetryExhausted()                  {}
