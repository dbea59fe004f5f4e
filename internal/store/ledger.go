package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/prodtest/internal/harness"
)

// ErrRunNotFound is returned when a run ID is not in the ledger.
var ErrRunNotFound = errors.New("run not found")

const timeLayout = time.RFC3339Nano

// Run is a ledger entry for one prodtest run.
type Run struct {
	ID       string     `json:"id"`
	Started  time.Time  `json:"started"`
	Finished *time.Time `json:"finished,omitempty"`
	Passed   int        `json:"passed"`
	Failed   int        `json:"failed"`
	Errored  int        `json:"errored"`
}

// Store implements harness.Recorder.
var _ harness.Recorder = (*Store)(nil)

// BeginRun inserts a run. Beginning the same run twice is an error.
func (s *Store) BeginRun(ctx context.Context, runID string, started time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		runID, started.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// RecordFixture stores how a fixture table was provided for the run.
func (s *Store) RecordFixture(ctx context.Context, runID string, f harness.Fulfillment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fixtures (run_id, connector, keyspace, table_name, row_count, loaded)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, keyspace, table_name) DO UPDATE SET
			row_count = excluded.row_count,
			loaded = excluded.loaded
	`,
		runID,
		f.Instance.Connector,
		f.Instance.Keyspace,
		f.Instance.Name,
		f.Rows,
		f.Loaded,
	)
	if err != nil {
		return fmt.Errorf("record fixture: %w", err)
	}
	return nil
}

// RecordOutcome appends a scenario outcome to the run.
func (s *Store) RecordOutcome(ctx context.Context, runID string, o harness.Outcome) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes (run_id, seq, scenario, status, message, duration_ms)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM outcomes WHERE run_id = ?), ?, ?, ?, ?)
	`,
		runID,
		runID,
		o.Scenario,
		string(o.Status),
		o.Message,
		o.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// FinishRun stores the end time and totals of a run.
func (s *Store) FinishRun(ctx context.Context, report *harness.Report) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, passed = ?, failed = ?, errored = ?
		WHERE id = ?
	`,
		report.Finished.UTC().Format(timeLayout),
		report.Passed,
		report.Failed,
		report.Errored,
		report.RunID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", report.RunID, ErrRunNotFound)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, passed, failed, errored
		FROM runs
		ORDER BY started_at DESC, id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, passed, failed, errored
		FROM runs WHERE id = ?
	`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	return r, err
}

// RunOutcomes returns the outcomes of a run in execution order.
func (s *Store) RunOutcomes(ctx context.Context, runID string) ([]harness.Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scenario, status, message, duration_ms
		FROM outcomes
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []harness.Outcome{}
	for rows.Next() {
		var o harness.Outcome
		var status string
		var ms int64
		if err := rows.Scan(&o.Scenario, &status, &o.Message, &ms); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Status = harness.Status(status)
		o.Duration = time.Duration(ms) * time.Millisecond
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

// RunFixtures returns the fixtures recorded for a run, by table.
func (s *Store) RunFixtures(ctx context.Context, runID string) ([]harness.Fulfillment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT connector, keyspace, table_name, row_count, loaded
		FROM fixtures
		WHERE run_id = ?
		ORDER BY keyspace, table_name
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query fixtures: %w", err)
	}
	defer rows.Close()

	fixtures := []harness.Fulfillment{}
	for rows.Next() {
		var f harness.Fulfillment
		if err := rows.Scan(&f.Instance.Connector, &f.Instance.Keyspace, &f.Instance.Name, &f.Rows, &f.Loaded); err != nil {
			return nil, fmt.Errorf("scan fixture: %w", err)
		}
		fixtures = append(fixtures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fixtures: %w", err)
	}
	return fixtures, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	var started string
	var finished sql.NullString
	if err := row.Scan(&r.ID, &started, &finished, &r.Passed, &r.Failed, &r.Errored); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	t, err := time.Parse(timeLayout, started)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at of run %s: %w", r.ID, err)
	}
	r.Started = t
	if finished.Valid {
		t, err := time.Parse(timeLayout, finished.String)
		if err != nil {
			return Run{}, fmt.Errorf("parse finished_at of run %s: %w", r.ID, err)
		}
		r.Finished = &t
	}
	return r, nil
}
