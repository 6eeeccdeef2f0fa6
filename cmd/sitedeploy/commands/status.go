package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/sitedeploy/internal/config"
	"git.home.luguber.info/inful/sitedeploy/internal/history"
)

// StatusCmd implements the 'status' command: list recent deploy runs.
type StatusCmd struct {
	Limit int `short:"n" help:"Number of runs to show" default:"10"`
}

func (s *StatusCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := history.Open(cfg.Daemon.HistoryPath)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	runs, err := store.RecentRuns(context.Background(), s.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No deploy runs recorded yet")
		return nil
	}

	for _, run := range runs {
		line := fmt.Sprintf("%s  %-8s  %-8s  %s",
			run.Started.Format("2006-01-02 15:04:05"), run.Trigger, run.Outcome, run.RunID)
		if run.Error != "" {
			line += "  " + run.Error
		}
		fmt.Println(line)
	}
	return nil
}
