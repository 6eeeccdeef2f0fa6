package commands

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/sitedeploy/internal/config"
	"git.home.luguber.info/inful/sitedeploy/internal/pipeline"
)

// PublishCmd implements the 'publish' command: mirror the existing output
// tree to the remote target without rebuilding. The output tree is trusted
// as-is; run 'deploy' to rebuild first.
type PublishCmd struct{}

func (p *PublishCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateRemote(); err != nil {
		return err
	}

	plan := pipeline.NewPlanBuilder(cfg).Build()
	runner := pipeline.NewRunner(plan).PublishOnly()

	slog.Info("Publishing existing output tree without rebuild", "output", plan.OutputDir)
	report, runErr := runner.Run(context.Background(), "cli")
	recordRun(cfg, report)
	if runErr != nil {
		return runErr
	}
	fmt.Println("Publish completed successfully")
	return nil
}
