// Package pipeline orchestrates the build-and-deploy sequence: resolve the
// generator executable, run the BUILD stage, then run the PUBLISH stage.
// Execution is fully sequential and fail-fast; a failed stage halts the
// run and later stages never execute. The external generator and transfer
// tool sit behind the build.Builder and publish.Publisher interfaces so
// the ordering and failure contracts are testable without real processes.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitedeploy/internal/build"
	"git.home.luguber.info/inful/sitedeploy/internal/metrics"
	"git.home.luguber.info/inful/sitedeploy/internal/publish"
	"git.home.luguber.info/inful/sitedeploy/internal/toolchain"
)

// Observer receives stage lifecycle notifications.
type Observer interface {
	OnStageStart(stage string)
	OnStageComplete(stage string, d time.Duration, result StageResult)
	OnRunComplete(report *Report)
}

// Runner executes the pipeline against a Plan.
type Runner struct {
	plan      *Plan
	resolver  *toolchain.Resolver
	builder   build.Builder     // optional override; skips the resolve stage
	publisher publish.Publisher // defaults to rsync against plan.Remote
	recorder  metrics.Recorder
	observer  Observer

	skipBuild   bool
	skipPublish bool
}

// NewRunner creates a runner for the plan with default collaborators.
func NewRunner(plan *Plan) *Runner {
	return &Runner{
		plan:      plan,
		resolver:  toolchain.NewResolver(),
		publisher: publish.NewRsyncPublisher(plan.Remote),
		recorder:  metrics.NoopRecorder{},
	}
}

// WithResolver injects a custom executable resolver.
func (r *Runner) WithResolver(res *toolchain.Resolver) *Runner {
	if res != nil {
		r.resolver = res
	}
	return r
}

// WithBuilder injects a custom builder, bypassing executable resolution.
func (r *Runner) WithBuilder(b build.Builder) *Runner {
	if b != nil {
		r.builder = b
	}
	return r
}

// WithPublisher injects a custom publisher.
func (r *Runner) WithPublisher(p publish.Publisher) *Runner {
	if p != nil {
		r.publisher = p
	}
	return r
}

// WithRecorder injects a metrics recorder.
func (r *Runner) WithRecorder(rec metrics.Recorder) *Runner {
	if rec != nil {
		r.recorder = rec
	}
	return r
}

// WithObserver injects a stage lifecycle observer.
func (r *Runner) WithObserver(obs Observer) *Runner {
	r.observer = obs
	return r
}

// BuildOnly restricts the run to the resolve and build stages.
func (r *Runner) BuildOnly() *Runner { r.skipPublish = true; return r }

// PublishOnly restricts the run to the publish stage, trusting the
// existing output tree. The caller owns the staleness risk.
func (r *Runner) PublishOnly() *Runner { r.skipBuild = true; return r }

// Run executes the pipeline once. The returned report is always non-nil
// and describes every stage that ran. The error, if any, is the first
// stage failure.
func (r *Runner) Run(ctx context.Context, trigger string) (*Report, error) {
	report := NewReport(trigger)
	rs := newRunState(r.plan, report)
	rs.Publisher = r.publisher
	rs.Builder = r.builder

	slog.Info("Starting pipeline run", "run_id", report.RunID, "trigger", trigger, "source", r.plan.SourceRoot)

	err := r.runStages(ctx, rs, r.stages())
	report.finish(err)

	r.recorder.ObserveRunDuration(report.Duration())
	if err != nil {
		r.recorder.IncRunOutcome(metrics.OutcomeFailed)
		slog.Error("Pipeline run failed", "run_id", report.RunID, "error", err)
	} else {
		r.recorder.IncRunOutcome(metrics.OutcomeSuccess)
		slog.Info("Pipeline run completed", "run_id", report.RunID, "duration", report.Duration())
	}
	if r.observer != nil {
		r.observer.OnRunComplete(report)
	}
	return report, err
}

// stages assembles the stage list for this run. BUILD always precedes
// PUBLISH; an injected builder removes the need for executable resolution.
func (r *Runner) stages() []StageDef {
	var defs []StageDef
	if !r.skipBuild {
		if r.builder == nil {
			defs = append(defs, StageDef{Name: StageResolve, Fn: r.stageResolve})
		}
		defs = append(defs, StageDef{Name: StageBuild, Fn: r.stageBuild})
	}
	if !r.skipPublish {
		defs = append(defs, StageDef{Name: StagePublish, Fn: r.stagePublish})
	}
	return defs
}

func (r *Runner) stageResolve(_ context.Context, rs *RunState) error {
	exe, err := r.resolver.Resolve(rs.Plan.Candidates)
	if err != nil {
		return err
	}
	rs.Executable = exe
	rs.Builder = build.NewGeneratorBuilder(exe, rs.Plan.SourceRoot, rs.Plan.OutputDir)
	return nil
}

func (r *Runner) stageBuild(ctx context.Context, rs *RunState) error {
	res, err := rs.Builder.Build(ctx)
	if err != nil {
		return err
	}
	rs.BuildResult = res
	return nil
}

func (r *Runner) observeStage(stage string, d time.Duration, result StageResult) {
	r.recorder.ObserveStageDuration(stage, d)
	r.recorder.IncStageResult(stage, metrics.ResultLabel(result))
	if r.observer != nil {
		r.observer.OnStageComplete(stage, d, result)
	}
}
