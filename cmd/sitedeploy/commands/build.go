package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/sitedeploy/internal/config"
	"git.home.luguber.info/inful/sitedeploy/internal/pipeline"
)

// BuildCmd implements the 'build' command: regenerate the output tree
// without publishing.
type BuildCmd struct{}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	plan := pipeline.NewPlanBuilder(cfg).Build()
	runner := pipeline.NewRunner(plan).BuildOnly()

	fmt.Println("Starting build")
	report, runErr := runner.Run(context.Background(), "cli")
	recordRun(cfg, report)
	if runErr != nil {
		return runErr
	}
	fmt.Printf("Build completed successfully (output: %s)\n", plan.OutputDir)
	return nil
}
