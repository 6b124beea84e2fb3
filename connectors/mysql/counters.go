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

// Package mysql implements the workflow counter store on MySQL/MariaDB.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"

	"floworks/platform/common/counters"
)

// duplicateEntry is the MySQL error number for unique-key violations
const duplicateEntry = 1062

// CounterStore implements counters.CounterStore on MySQL.
//
// Atomicity guarantee: INSERT ... ON DUPLICATE KEY UPDATE serializes on the
// primary key over (workflow_id, name). MySQL reports one affected row for
// the insert branch and two for the update branch, which is how the store
// distinguishes a first occurrence without a second round trip.
type CounterStore struct {
	db     *sql.DB
	logger *log.Logger
}

// NewCounterStore creates a counter store on an existing connection pool
func NewCounterStore(db *sql.DB) *CounterStore {
	return &CounterStore{
		db:     db,
		logger: log.New(os.Stdout, "[COUNTERS_MYSQL] ", log.LstdFlags),
	}
}

// Open opens a MySQL connection pool for the counter store and verifies
// connectivity. The DSN must include parseTime=true so latest_event scans
// into time.Time.
func Open(ctx context.Context, dsn string) (*CounterStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := NewCounterStore(db)
	store.logger.Printf("Connected to MySQL counter store")
	return store, nil
}

// Close closes the underlying connection pool
func (s *CounterStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the counter table if it does not exist
func (s *CounterStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS workflow_statistics (
			workflow_id  VARCHAR(36)  NOT NULL,
			name         VARCHAR(128) NOT NULL,
			count        BIGINT       NOT NULL DEFAULT 0,
			latest_event DATETIME(3),
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
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_statistics (count, latest_event, name, workflow_id)
		VALUES (1, NOW(3), ?, ?)
		ON DUPLICATE KEY UPDATE count = count + 1, latest_event = NOW(3)
	`, string(kind), workflowID)
	if err != nil {
		return false, classify(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	// 1 row affected means the insert branch ran, 2 means the update branch.
	return affected == 1, nil
}

// Get returns all counter rows for a workflow, ordered by name
func (s *CounterStore) Get(ctx context.Context, workflowID string) ([]counters.Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT workflow_id, name, count, COALESCE(latest_event, FROM_UNIXTIME(0))
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

// classify wraps MySQL duplicate-entry errors in the normalized
// counters.ErrDuplicateKey so callers never branch on driver error numbers.
func classify(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == duplicateEntry {
		return fmt.Errorf("%w: %v", counters.ErrDuplicateKey, err)
	}
	return err
}
