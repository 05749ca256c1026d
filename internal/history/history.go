// Package history keeps a SQLite ledger of pipeline runs.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one recorded pipeline invocation.
type Run struct {
	ID          string
	RepoURL     string
	StartedAt   time.Time
	FinishedAt  time.Time // zero while running
	Status      string
	Extracted   int
	ReportPath  string
	SummaryPath string
	Error       string
}

// Store is the run ledger.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	repo_url     TEXT NOT NULL,
	started_at   INTEGER NOT NULL,
	finished_at  INTEGER,
	status       TEXT NOT NULL,
	extracted    INTEGER NOT NULL DEFAULT 0,
	report_path  TEXT NOT NULL DEFAULT '',
	summary_path TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at);
`

// Open opens (creating if needed) the ledger at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Start records a new running entry and returns it.
func (s *Store) Start(ctx context.Context, repoURL string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		RepoURL:   repoURL,
		StartedAt: time.Now(),
		Status:    StatusRunning,
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, repo_url, started_at, status) VALUES (?, ?, ?, ?)",
		run.ID, run.RepoURL, run.StartedAt.UnixMilli(), run.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("record run start: %w", err)
	}
	return run, nil
}

// Finish stores the final state of run. A nil runErr marks it succeeded.
func (s *Store) Finish(ctx context.Context, run *Run, runErr error) error {
	run.FinishedAt = time.Now()
	run.Status = StatusSucceeded
	run.Error = ""
	if runErr != nil {
		run.Status = StatusFailed
		run.Error = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, extracted = ?, report_path = ?, summary_path = ?, error = ?
		 WHERE id = ?`,
		run.FinishedAt.UnixMilli(), run.Status, run.Extracted, run.ReportPath, run.SummaryPath, run.Error, run.ID,
	)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("record run finish: unknown run %s", run.ID)
	}
	return nil
}

// Get returns one run by ID.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, repo_url, started_at, finished_at, status, extracted, report_path, summary_path, error
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return run, err
}

// List returns up to limit runs, most recent first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, repo_url, started_at, finished_at, status, extracted, report_path, summary_path, error
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run      Run
		started  int64
		finished sql.NullInt64
	)
	if err := sc.Scan(&run.ID, &run.RepoURL, &started, &finished, &run.Status,
		&run.Extracted, &run.ReportPath, &run.SummaryPath, &run.Error); err != nil {
		return nil, err
	}
	run.StartedAt = time.UnixMilli(started)
	if finished.Valid {
		run.FinishedAt = time.UnixMilli(finished.Int64)
	}
	return &run, nil
}
