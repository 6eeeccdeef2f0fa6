package daemon

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/sitedeploy/internal/config"
	"git.home.luguber.info/inful/sitedeploy/internal/pipeline"
)

// RunEvent is the JSON payload published per finished deploy run.
type RunEvent struct {
	RunID    string    `json:"run_id"`
	Trigger  string    `json:"trigger"`
	Outcome  string    `json:"outcome"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Error    string    `json:"error,omitempty"`
}

// EventPublisher emits deploy run events to NATS. Publishing is
// best-effort: a failed publish is logged, never fails the run.
type EventPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewEventPublisher connects to the configured NATS server.
func NewEventPublisher(cfg *config.EventsConfig) (*EventPublisher, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("sitedeploy"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	slog.Info("Deploy event publisher connected", "url", cfg.URL, "subject", cfg.Subject)
	return &EventPublisher{conn: conn, subject: cfg.Subject}, nil
}

// PublishRun emits the event for a finished run.
func (p *EventPublisher) PublishRun(report *pipeline.Report) {
	event := RunEvent{
		RunID:    report.RunID,
		Trigger:  report.Trigger,
		Outcome:  string(report.Outcome),
		Started:  report.Started,
		Finished: report.Finished,
	}
	if report.Err != nil {
		event.Error = report.Err.Error()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("Failed to marshal run event", "run_id", report.RunID, "error", err)
		return
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		slog.Warn("Failed to publish run event", "run_id", report.RunID, "error", err)
	}
}

// Close drains and closes the NATS connection.
func (p *EventPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		slog.Warn("NATS drain failed", "error", err)
	}
}
