package daemon

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler fires a periodic deploy trigger via gocron.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a scheduler firing at the given interval.
func NewScheduler(interval time.Duration, enqueue func(trigger string)) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { enqueue("schedule") }),
		gocron.WithName("periodic-deploy"),
	)
	if err != nil {
		return nil, fmt.Errorf("create periodic deploy job: %w", err)
	}

	return &Scheduler{scheduler: s}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting deploy scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping deploy scheduler")
	return s.scheduler.Shutdown()
}
