package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitedeploy/internal/config"
	"git.home.luguber.info/inful/sitedeploy/internal/history"
	"git.home.luguber.info/inful/sitedeploy/internal/pipeline"
)

// DeployCmd implements the 'deploy' command: BUILD then PUBLISH, fail-fast.
type DeployCmd struct{}

func (d *DeployCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateRemote(); err != nil {
		return err
	}

	plan := pipeline.NewPlanBuilder(cfg).Build()
	runner := pipeline.NewRunner(plan)

	fmt.Println("Starting deploy")
	report, runErr := runner.Run(context.Background(), "cli")
	recordRun(cfg, report)
	if runErr != nil {
		return runErr
	}
	fmt.Println("Deploy completed successfully")
	return nil
}

// recordRun persists the run to the configured history database.
// History is advisory; a recording failure never fails the run.
func recordRun(cfg *config.Config, report *pipeline.Report) {
	store, err := history.Open(cfg.Daemon.HistoryPath)
	if err != nil {
		slog.Warn("Failed to open run history", "path", cfg.Daemon.HistoryPath, "error", err)
		return
	}
	defer func() {
		_ = store.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Record(ctx, report); err != nil {
		slog.Warn("Failed to record run history", "run_id", report.RunID, "error", err)
	}
}
