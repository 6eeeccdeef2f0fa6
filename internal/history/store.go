// Package history persists pipeline run records to SQLite so the status
// command and the daemon can report on past deploys.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/sitedeploy/internal/pipeline"
)

// Run is a persisted pipeline run.
type Run struct {
	RunID    string
	Trigger  string
	Started  time.Time
	Finished time.Time
	Outcome  string
	Error    string
}

// StageResult is a persisted per-stage outcome.
type StageResult struct {
	RunID    string
	Stage    string
	Result   string
	Duration time.Duration
	Error    string
}

// Store records pipeline runs in SQLite.
// Use ":memory:" for an in-memory database, or a file path for persistence.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (and initializes) the run history database.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		trigger TEXT NOT NULL,
		started INTEGER NOT NULL,
		finished INTEGER,
		outcome TEXT,
		error TEXT
	);
	CREATE TABLE IF NOT EXISTS stage_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		result TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);
	CREATE INDEX IF NOT EXISTS idx_stage_run_id ON stage_results(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record persists a completed run report with its stage results.
func (s *Store) Record(ctx context.Context, report *pipeline.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var errMsg string
	if report.Err != nil {
		errMsg = report.Err.Error()
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (run_id, trigger, started, finished, outcome, error) VALUES (?, ?, ?, ?, ?, ?)",
		report.RunID, report.Trigger, report.Started.Unix(), report.Finished.Unix(), string(report.Outcome), errMsg,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, st := range report.Stages {
		var stageErr string
		if st.Err != nil {
			stageErr = st.Err.Error()
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO stage_results (run_id, stage, result, duration_ms, error) VALUES (?, ?, ?, ?, ?)",
			report.RunID, st.Stage, string(st.Result), st.Duration.Milliseconds(), stageErr,
		)
		if err != nil {
			return fmt.Errorf("insert stage result: %w", err)
		}
	}

	return tx.Commit()
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, trigger, started, finished, outcome, error FROM runs ORDER BY started DESC, run_id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		if err := rows.Scan(&r.RunID, &r.Trigger, &started, &finished, &r.Outcome, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Started = time.Unix(started, 0)
		r.Finished = time.Unix(finished, 0)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// StageResults returns the per-stage records for a run in execution order.
func (s *Store) StageResults(ctx context.Context, runID string) ([]StageResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, stage, result, duration_ms, error FROM stage_results WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query stage results: %w", err)
	}
	defer rows.Close()

	var results []StageResult
	for rows.Next() {
		var sr StageResult
		var durationMS int64
		if err := rows.Scan(&sr.RunID, &sr.Stage, &sr.Result, &durationMS, &sr.Error); err != nil {
			return nil, fmt.Errorf("scan stage result: %w", err)
		}
		sr.Duration = time.Duration(durationMS) * time.Millisecond
		results = append(results, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return results, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
