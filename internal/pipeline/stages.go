package pipeline

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/sitedeploy/internal/build"
	"git.home.luguber.info/inful/sitedeploy/internal/publish"
	"git.home.luguber.info/inful/sitedeploy/internal/toolchain"
)

// Stage names, in dependency order. PUBLISH strictly follows BUILD; a
// failed or skipped BUILD means PUBLISH never runs.
const (
	StageResolve = "resolve-generator"
	StageBuild   = "build"
	StagePublish = "publish"
)

// Stage is a discrete unit of work in a pipeline run.
type Stage func(ctx context.Context, rs *RunState) error

// StageDef pairs a stage with its name for reporting.
type StageDef struct {
	Name string
	Fn   Stage
}

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Run must abort.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}
func newCanceledStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// RunState carries mutable state across stages of a single run.
type RunState struct {
	Plan       *Plan
	Executable toolchain.Executable
	Builder    build.Builder
	Publisher  publish.Publisher

	BuildResult   *build.Result
	PublishResult *publish.Result

	Report *Report
	start  time.Time
}

func newRunState(plan *Plan, report *Report) *RunState {
	return &RunState{Plan: plan, Report: report, start: time.Now()}
}

// runStages executes stages in order, recording timing and stopping on the
// first error. Every stage error is fatal: there is no warning-and-continue
// path in this pipeline, and no stage ever runs after a failed predecessor.
func (r *Runner) runStages(ctx context.Context, rs *RunState, stages []StageDef) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.Name, ctx.Err())
			rs.Report.recordStage(st.Name, 0, StageCanceled, se)
			r.observeStage(st.Name, 0, StageCanceled)
			return se
		default:
		}
		if r.observer != nil {
			r.observer.OnStageStart(st.Name)
		}
		t0 := time.Now()
		err := st.Fn(ctx, rs)
		dur := time.Since(t0)
		if err != nil {
			se := newFatalStageError(st.Name, err)
			if ctx.Err() != nil {
				se = newCanceledStageError(st.Name, err)
				rs.Report.recordStage(st.Name, dur, StageCanceled, se)
				r.observeStage(st.Name, dur, StageCanceled)
				return se
			}
			rs.Report.recordStage(st.Name, dur, StageFailed, se)
			r.observeStage(st.Name, dur, StageFailed)
			return se
		}
		rs.Report.recordStage(st.Name, dur, StageSucceeded, nil)
		r.observeStage(st.Name, dur, StageSucceeded)
	}
	return nil
}
