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

package counters

import (
	"context"
	"errors"
	"time"
)

// EventKind names a tracked per-workflow event. Each kind maps to its own
// counter row keyed by (workflow_id, name).
type EventKind string

const (
	// KindProductionSuccess counts successful production executions
	KindProductionSuccess EventKind = "production_success"
	// KindDataLoaded counts node data fetches during workflow building
	KindDataLoaded EventKind = "data_loaded"
)

// String returns the string representation of the EventKind
func (k EventKind) String() string {
	return string(k)
}

// IsValid returns true if the EventKind is a known value
func (k EventKind) IsValid() bool {
	switch k {
	case KindProductionSuccess, KindDataLoaded:
		return true
	default:
		return false
	}
}

// Row is a single counter record. Count is monotonically non-decreasing and
// is 1 immediately after the first successful upsert for its key. Rows are
// removed only when the owning workflow is deleted (FK cascade, handled by
// the workflow store).
type Row struct {
	WorkflowID string    `json:"workflow_id"`
	Name       EventKind `json:"name"`
	Count      int64     `json:"count"`
	LatestEvent time.Time `json:"latest_event"`
}

// ErrDuplicateKey is the normalized duplicate-key error. Backend stores wrap
// their driver's unique-constraint violation in it so callers can branch on
// "already recorded" without knowing the backend.
var ErrDuplicateKey = errors.New("counters: duplicate key")

// IsDuplicateKey reports whether err is (or wraps) a duplicate-key violation.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}

// CounterStore is the atomic increment-or-insert primitive backing the
// statistics service. Implementations live in connectors/postgres,
// connectors/mysql, and connectors/sqlite.
type CounterStore interface {
	// Upsert atomically increments the counter for (workflowID, kind),
	// creating the row with count=1 if absent. The returned bool is true iff
	// the row was newly created. The backend's unique key on
	// (workflow_id, name) guarantees exactly one concurrent caller observes
	// true for a given key.
	Upsert(ctx context.Context, workflowID string, kind EventKind) (first bool, err error)

	// Get returns all counter rows for a workflow, ordered by name.
	Get(ctx context.Context, workflowID string) ([]Row, error)
}
