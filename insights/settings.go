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

package insights

import (
	"context"
	"database/sql"
	"fmt"
)

// settingFirstSuccessfulWorkflow is the per-user flag set on the first
// successful production workflow
const settingFirstSuccessfulWorkflow = "first_successful_workflow"

// SettingsStore mutates per-user settings. Implementations must be
// idempotent; the statistics service calls MarkFirstSuccessfulWorkflow at
// most once per first-occurrence event, but retries after partial failures
// can repeat the call.
type SettingsStore interface {
	MarkFirstSuccessfulWorkflow(ctx context.Context, userID string) error
}

// DBSettingsStore persists user settings in the platform's primary
// PostgreSQL database.
type DBSettingsStore struct {
	db *sql.DB
}

// NewDBSettingsStore creates a database-backed settings store
func NewDBSettingsStore(db *sql.DB) *DBSettingsStore {
	return &DBSettingsStore{db: db}
}

// MarkFirstSuccessfulWorkflow sets the first-successful-workflow flag for the
// user. ON CONFLICT DO NOTHING makes the write idempotent.
func (s *DBSettingsStore) MarkFirstSuccessfulWorkflow(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, key, value)
		VALUES ($1, $2, 'true')
		ON CONFLICT (user_id, key) DO NOTHING
	`, userID, settingFirstSuccessfulWorkflow)

	if err != nil {
		return fmt.Errorf("failed to set %s for user %s: %w", settingFirstSuccessfulWorkflow, userID, err)
	}
	return nil
}
