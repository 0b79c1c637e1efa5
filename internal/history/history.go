// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

// Package history journals finished concat jobs in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for an unknown job id.
var ErrNotFound = errors.New("history entry not found")

// Entry is one finished job
type Entry struct {
	ID         string    `json:"id"`
	Inputs     []string  `json:"inputs"`
	Output     string    `json:"output"`
	State      string    `json:"state"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Store persists entries
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const schema = `CREATE TABLE IF NOT EXISTS jobs (
	id          TEXT PRIMARY KEY,
	inputs      TEXT NOT NULL,
	output      TEXT NOT NULL DEFAULT '',
	state       TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_finished_at ON jobs(finished_at);`

// Open creates or connects to the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path of the database file
func (s *Store) Path() string {
	return s.path
}

// Record stores e, replacing an entry with the same id.
func (s *Store) Record(ctx context.Context, e Entry) error {
	inputs, err := json.Marshal(e.Inputs)
	if err != nil {
		return fmt.Errorf("encode inputs: %w", err)
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO jobs (id, inputs, output, state, error, started_at, finished_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, string(inputs), e.Output, e.State, e.Error,
			e.StartedAt.UTC().Format(time.RFC3339Nano),
			e.FinishedAt.UTC().Format(time.RFC3339Nano),
		)
		return err
	})
}

// List returns up to limit entries, most recently finished first. limit <= 0
// returns all of them.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, inputs, output, state, error, started_at, finished_at
	          FROM jobs ORDER BY finished_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns the entry of job id
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, inputs, output, state, error, started_at, finished_at FROM jobs WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e                 Entry
		inputs            string
		started, finished string
	)
	if err := row.Scan(&e.ID, &inputs, &e.Output, &e.State, &e.Error, &started, &finished); err != nil {
		return Entry{}, err
	}
	if err := json.Unmarshal([]byte(inputs), &e.Inputs); err != nil {
		return Entry{}, fmt.Errorf("decode inputs of %s: %w", e.ID, err)
	}
	e.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	e.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
	return e, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
