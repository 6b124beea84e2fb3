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
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// TestMarkFirstSuccessfulWorkflow tests the idempotent settings write
func TestMarkFirstSuccessfulWorkflow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	store := NewDBSettingsStore(db)

	// First call inserts.
	mock.ExpectExec("INSERT INTO user_settings").
		WithArgs("user-1", settingFirstSuccessfulWorkflow).
		WillReturnResult(sqlmock.NewResult(1, 1))

	// Repeat call hits DO NOTHING and affects zero rows. Still no error.
	mock.ExpectExec("INSERT INTO user_settings").
		WithArgs("user-1", settingFirstSuccessfulWorkflow).
		WillReturnResult(sqlmock.NewResult(0, 0))

	for i := 0; i < 2; i++ {
		if err := store.MarkFirstSuccessfulWorkflow(context.Background(), "user-1"); err != nil {
			t.Fatalf("MarkFirstSuccessfulWorkflow() call %d error = %v", i+1, err)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

// TestMarkFirstSuccessfulWorkflow_Error tests error propagation
func TestMarkFirstSuccessfulWorkflow_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	store := NewDBSettingsStore(db)

	mock.ExpectExec("INSERT INTO user_settings").
		WillReturnError(sqlmock.ErrCancelled)

	if err := store.MarkFirstSuccessfulWorkflow(context.Background(), "user-1"); err == nil {
		t.Error("expected error from settings write")
	}
}
