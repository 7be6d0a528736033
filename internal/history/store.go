package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/schemasync/internal/foundation/errors"
)

// Recorder persists finished runs. The pipeline depends on this rather than
// the concrete store.
type Recorder interface {
	Record(ctx context.Context, run Run) error
}

// Store keeps sync run history in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the history database at path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ferrors.ConfigError("history path is empty").Build()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create history directory").
				WithContext("path", path).
				Build()
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, historyError(err, "open history database")
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, historyError(err, "initialize history schema")
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		properties INTEGER NOT NULL DEFAULT 0,
		plugins INTEGER NOT NULL DEFAULT 0,
		bases INTEGER NOT NULL DEFAULT 0,
		extensions INTEGER NOT NULL DEFAULT 0,
		interfaces INTEGER NOT NULL DEFAULT 0,
		output_path TEXT NOT NULL DEFAULT '',
		sha256 TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts or replaces a run.
func (s *Store) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		return ferrors.ValidationError("run id is required").Build()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(id, started_at, finished_at, outcome, properties, plugins, bases, extensions, interfaces, output_path, sha256, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UnixNano(),
		run.FinishedAt.UnixNano(),
		string(run.Outcome),
		run.Properties, run.Plugins, run.Bases, run.Extensions, run.Interfaces,
		run.OutputPath, run.SHA256, run.Error,
	)
	if err != nil {
		return historyError(err, "insert run")
	}
	return nil
}

// List returns the most recent runs first. A limit <= 0 returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, started_at, finished_at, outcome, properties, plugins, bases, extensions, interfaces, output_path, sha256, error
		FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, historyError(err, "query runs")
	}
	defer func() { _ = rows.Close() }()

	return scanRuns(rows)
}

// Get returns a single run by ID.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, started_at, finished_at, outcome, properties, plugins, bases, extensions, interfaces, output_path, sha256, error
		FROM runs WHERE id = ?`, id)
	if err != nil {
		return Run{}, historyError(err, "query run")
	}
	defer func() { _ = rows.Close() }()

	runs, err := scanRuns(rows)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ferrors.NewError(ferrors.CategoryHistory, "run not found").
			WithContext("id", id).
			Build()
	}
	return runs[0], nil
}

// LastSuccess returns the most recent run whose outcome is not failed or canceled.
func (s *Store) LastSuccess(ctx context.Context) (Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, started_at, finished_at, outcome, properties, plugins, bases, extensions, interfaces, output_path, sha256, error
		FROM runs WHERE outcome NOT IN (?, ?) ORDER BY started_at DESC, id DESC LIMIT 1`,
		string(OutcomeFailed), string(OutcomeCanceled))
	if err != nil {
		return Run{}, false, historyError(err, "query last successful run")
	}
	defer func() { _ = rows.Close() }()

	runs, err := scanRuns(rows)
	if err != nil {
		return Run{}, false, err
	}
	if len(runs) == 0 {
		return Run{}, false, nil
	}
	return runs[0], true, nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished int64
			outcome           string
		)
		err := rows.Scan(&r.ID, &started, &finished, &outcome,
			&r.Properties, &r.Plugins, &r.Bases, &r.Extensions, &r.Interfaces,
			&r.OutputPath, &r.SHA256, &r.Error)
		if err != nil {
			return nil, historyError(err, "scan run")
		}
		r.StartedAt = time.Unix(0, started).UTC()
		r.FinishedAt = time.Unix(0, finished).UTC()
		r.Outcome = Outcome(outcome)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, historyError(err, "iterate runs")
	}
	return runs, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
