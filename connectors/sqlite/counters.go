// Copyright 2025 FloWorks
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sqlite implements the workflow counter store on SQLite, the
// default backend for single-node installs.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"

	sqlite3 "github.com/mattn/go-sqlite3"

	"floworks/platform/common/counters"
)

// CounterStore implements counters.CounterStore on SQLite.
//
// Atomicity guarantee: SQLite has no insert-vs-update report on its upsert,
// so the store attempts a plain INSERT first. A unique-constraint violation
// on the (workflow_id, name) primary key means the row exists; the store
// then falls back to an UPDATE. SQLite serializes writers, so exactly one
// caller's INSERT succeeds for a given key.
type CounterStore struct {
	db     *sql.DB
	logger *log.Logger
}

// NewCounterStore creates a counter store on an existing connection pool
func NewCounterStore(db *sql.DB) *CounterStore {
	return &CounterStore{
		db:     db,
		logger: log.New(os.Stdout, "[COUNTERS_SQLITE] ", log.LstdFlags),
	}
}

// Open opens the SQLite database at path and verifies connectivity
func Open(ctx context.Context, path string) (*CounterStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// churn under concurrent upserts.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := NewCounterStore(db)
	store.logger.Printf("Opened SQLite counter store: %s", path)
	return store, nil
}

// Close closes the underlying database
func (s *CounterStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the counter table if it does not exist
func (s *CounterStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS workflow_statistics (
			workflow_id  TEXT    NOT NULL,
			name         TEXT    NOT NULL,
			count        INTEGER NOT NULL DEFAULT 0,
			latest_event TIMESTAMP,
			PRIMARY KEY (workflow_id, name)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create workflow_statistics: %w", err)
	}
	return nil
}

// Upsert increments the counter for (workflowID, kind), creating the row with
// count=1 if absent. Returns true iff the row was newly created.
func (s *CounterStore) Upsert(ctx context.Context, workflowID string, kind counters.EventKind) (bool, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_statistics (count, latest_event, name, workflow_id)
		VALUES (1, CURRENT_TIMESTAMP, ?, ?)
	`, string(kind), workflowID)
	if err == nil {
		return true, nil
	}

	if !isConstraintViolation(err) {
		return false, err
	}

	// Row exists: increment it.
	_, err = s.db.ExecContext(ctx, `
		UPDATE workflow_statistics
		SET count = count + 1, latest_event = CURRENT_TIMESTAMP
		WHERE workflow_id = ? AND name = ?
	`, workflowID, string(kind))
	if err != nil {
		return false, fmt.Errorf("failed to increment counter: %w", err)
	}

	return false, nil
}

// Get returns all counter rows for a workflow, ordered by name
func (s *CounterStore) Get(ctx context.Context, workflowID string) ([]counters.Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT workflow_id, name, count, COALESCE(latest_event, 0)
		FROM workflow_statistics
		WHERE workflow_id = ?
		ORDER BY name
	`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []counters.Row
	for rows.Next() {
		var row counters.Row
		if err := rows.Scan(&row.WorkflowID, &row.Name, &row.Count, &row.LatestEvent); err != nil {
			return nil, fmt.Errorf("failed to scan statistics row: %w", err)
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// isConstraintViolation reports whether err is a unique or primary-key
// constraint violation from the sqlite3 driver.
func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// Classify wraps sqlite constraint violations in the normalized
// counters.ErrDuplicateKey. Exposed for callers that run their own statements
// against the same database.
func Classify(err error) error {
	if isConstraintViolation(err) {
		return fmt.Errorf("%w: %v", counters.ErrDuplicateKey, err)
	}
	return err
}
