// Package daemon runs the pipeline continuously: deploys triggered by
// source tree changes (debounced filesystem watch) or a periodic schedule,
// executed strictly one at a time by a single worker. A pending trigger
// coalesces with the queued one; runs never overlap.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitedeploy/internal/config"
	"git.home.luguber.info/inful/sitedeploy/internal/history"
	"git.home.luguber.info/inful/sitedeploy/internal/metrics"
	"git.home.luguber.info/inful/sitedeploy/internal/pipeline"
)

// Daemon coordinates triggers, the single pipeline worker, run history,
// metrics, and optional deploy event publishing.
type Daemon struct {
	cfg      *config.Config
	plan     *pipeline.Plan
	store    *history.Store
	events   *EventPublisher
	recorder *metrics.PrometheusRecorder
	registry *prom.Registry

	triggers  chan string
	watcher   *SourceWatcher
	scheduler *Scheduler
	httpSrv   *Server

	// newRunner is injectable for tests; defaults to a runner with the
	// daemon's recorder attached.
	newRunner func() *pipeline.Runner
}

// New creates a daemon from config. The remote destination must be valid:
// every triggered run publishes.
func New(cfg *config.Config) (*Daemon, error) {
	if err := cfg.ValidateRemote(); err != nil {
		return nil, err
	}

	store, err := history.Open(cfg.Daemon.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	d := &Daemon{
		cfg:      cfg,
		plan:     pipeline.NewPlanBuilder(cfg).Build(),
		store:    store,
		recorder: recorder,
		registry: registry,
		triggers: make(chan string, 1),
	}
	d.newRunner = func() *pipeline.Runner {
		return pipeline.NewRunner(d.plan).WithRecorder(d.recorder)
	}

	if cfg.Daemon.Events != nil {
		events, err := NewEventPublisher(cfg.Daemon.Events)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		d.events = events
	}

	return d, nil
}

// Start runs the daemon until the context is canceled.
func (d *Daemon) Start(ctx context.Context) error {
	slog.Info("Starting daemon",
		"watch", d.cfg.Daemon.Watch,
		"interval", d.cfg.Daemon.Interval,
		"listen", d.cfg.Daemon.Listen)

	d.httpSrv = NewServer(d.cfg.Daemon.Listen, d.registry, d.store)
	d.httpSrv.Start()

	if d.cfg.Daemon.Watch {
		// The pipeline's own writes (output tree, history database) must
		// not re-trigger a deploy.
		excludes := []string{d.plan.OutputDir, d.cfg.Daemon.HistoryPath}
		watcher, err := NewSourceWatcher(d.cfg.Site.Root, d.cfg.Daemon.Debounce, d.enqueue, excludes...)
		if err != nil {
			return fmt.Errorf("create source watcher: %w", err)
		}
		d.watcher = watcher
		if err := d.watcher.Start(ctx); err != nil {
			return err
		}
	}

	if d.cfg.Daemon.Interval > 0 {
		scheduler, err := NewScheduler(d.cfg.Daemon.Interval, d.enqueue)
		if err != nil {
			return err
		}
		d.scheduler = scheduler
		d.scheduler.Start()
	}

	return d.work(ctx)
}

// Stop shuts down triggers and flushes resources.
func (d *Daemon) Stop(ctx context.Context) error {
	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(); err != nil {
			slog.Warn("Scheduler shutdown failed", "error", err)
		}
	}
	if d.httpSrv != nil {
		if err := d.httpSrv.Stop(ctx); err != nil {
			slog.Warn("HTTP server shutdown failed", "error", err)
		}
	}
	if d.events != nil {
		d.events.Close()
	}
	return d.store.Close()
}

// enqueue registers a deploy trigger. A trigger already waiting absorbs
// this one; the single worker guarantees runs never overlap.
func (d *Daemon) enqueue(trigger string) {
	select {
	case d.triggers <- trigger:
		slog.Debug("Deploy trigger enqueued", "trigger", trigger)
	default:
		slog.Debug("Deploy trigger coalesced with pending run", "trigger", trigger)
	}
}

// work drains the trigger queue sequentially until the context ends.
func (d *Daemon) work(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case trigger := <-d.triggers:
			d.runOnce(ctx, trigger)
		}
	}
}

// runOnce executes one full pipeline run and records its outcome. A failed
// run is logged and recorded but does not stop the daemon; the operator
// (or the next trigger) re-invokes.
func (d *Daemon) runOnce(ctx context.Context, trigger string) {
	runner := d.newRunner()
	report, err := runner.Run(ctx, trigger)
	if err != nil {
		slog.Error("Deploy run failed", "run_id", report.RunID, "trigger", trigger, "error", err)
	}

	recordCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.store.Record(recordCtx, report); err != nil {
		slog.Warn("Failed to record run history", "run_id", report.RunID, "error", err)
	}
	if d.events != nil {
		d.events.PublishRun(report)
	}
}
