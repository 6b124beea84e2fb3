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

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/lib/pq"

	"floworks/platform/common/counters"
)

// uniqueViolation is the PostgreSQL error code for unique-constraint violations
const uniqueViolation = "23505"

// CounterStore implements counters.CounterStore on PostgreSQL.
//
// Atomicity guarantee: the conditional upsert below relies on the primary key
// over (workflow_id, name). ON CONFLICT resolves the race between concurrent
// first inserts inside the database, so exactly one caller sees RETURNING
// count = 1 for a given key.
type CounterStore struct {
	db     *sql.DB
	logger *log.Logger
}

// NewCounterStore creates a counter store on an existing connection pool
func NewCounterStore(db *sql.DB) *CounterStore {
	return &CounterStore{
		db:     db,
		logger: log.New(os.Stdout, "[COUNTERS_POSTGRES] ", log.LstdFlags),
	}
}

// Open opens a PostgreSQL connection pool for the counter store and verifies
// connectivity.
func Open(ctx context.Context, connectionURL string) (*CounterStore, error) {
	db, err := sql.Open("postgres", connectionURL)
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
	store.logger.Printf("Connected to PostgreSQL counter store")
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
			latest_event TIMESTAMPTZ,
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
	var count int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO workflow_statistics (count, latest_event, name, workflow_id)
		VALUES (1, NOW(), $1, $2)
		ON CONFLICT (workflow_id, name)
		DO UPDATE SET count = workflow_statistics.count + 1, latest_event = NOW()
		RETURNING count
	`, string(kind), workflowID).Scan(&count)

	if err != nil {
		return false, classify(err)
	}

	return count == 1, nil
}

// Get returns all counter rows for a workflow, ordered by name
func (s *CounterStore) Get(ctx context.Context, workflowID string) ([]counters.Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT workflow_id, name, count, COALESCE(latest_event, 'epoch'::timestamptz)
		FROM workflow_statistics
		WHERE workflow_id = $1
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

// classify wraps PostgreSQL unique-violation errors in the normalized
// counters.ErrDuplicateKey so callers never branch on pq error codes.
func classify(err error) error {
	if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("%w: %v", counters.ErrDuplicateKey, err)
	}
	return err
}
