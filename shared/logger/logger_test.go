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

package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
)

// TestNew tests logger initialization
func TestNew(t *testing.T) {
	tests := []struct {
		name           string
		component      string
		instanceID     string
		expectedComp   string
		expectedInstID string
	}{
		{
			name:           "with instance ID set",
			component:      "insights",
			instanceID:     "instance-123",
			expectedComp:   "insights",
			expectedInstID: "instance-123",
		},
		{
			name:           "without instance ID",
			component:      "insights",
			instanceID:     "",
			expectedComp:   "insights",
			expectedInstID: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.instanceID != "" {
				t.Setenv("INSTANCE_ID", tt.instanceID)
			} else {
				if err := os.Unsetenv("INSTANCE_ID"); err != nil {
					t.Fatalf("Failed to unset INSTANCE_ID: %v", err)
				}
			}

			l := New(tt.component)

			if l.Component != tt.expectedComp {
				t.Errorf("Expected component %s, got %s", tt.expectedComp, l.Component)
			}
			if l.InstanceID != tt.expectedInstID {
				t.Errorf("Expected instance ID %s, got %s", tt.expectedInstID, l.InstanceID)
			}
			if l.Container == "" {
				t.Error("Expected container to be set from hostname")
			}
		})
	}
}

// captureOutput redirects the standard logger while fn runs and returns what
// was written.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags)
	}()

	fn()
	return buf.String()
}

// TestLog_JSONShape tests that entries are written as single-line JSON with
// the expected fields
func TestLog_JSONShape(t *testing.T) {
	l := &Logger{Component: "insights", InstanceID: "i-1", Container: "box"}

	out := captureOutput(t, func() {
		l.Info("proj-1", "wf-1", "recorded event", map[string]interface{}{
			"kind": "production_success",
		})
	})

	line := strings.TrimSpace(out)
	var entry LogEntry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("Log output is not valid JSON: %v\noutput: %s", err, line)
	}

	if entry.Level != INFO {
		t.Errorf("Level = %s, want INFO", entry.Level)
	}
	if entry.Component != "insights" {
		t.Errorf("Component = %s, want insights", entry.Component)
	}
	if entry.ProjectID != "proj-1" || entry.WorkflowID != "wf-1" {
		t.Errorf("context = (%s, %s), want (proj-1, wf-1)", entry.ProjectID, entry.WorkflowID)
	}
	if entry.Message != "recorded event" {
		t.Errorf("Message = %q", entry.Message)
	}
	if entry.Fields["kind"] != "production_success" {
		t.Errorf("Fields[kind] = %v", entry.Fields["kind"])
	}
	if entry.Timestamp == "" {
		t.Error("Timestamp not set")
	}
}

// TestErrorWithErr tests that the error is attached as a field
func TestErrorWithErr(t *testing.T) {
	l := &Logger{Component: "insights", InstanceID: "i-1", Container: "box"}

	out := captureOutput(t, func() {
		l.ErrorWithErr("proj-1", "wf-1", "increment failed", errors.New("boom"), nil)
	})

	var entry LogEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if entry.Level != ERROR {
		t.Errorf("Level = %s, want ERROR", entry.Level)
	}
	if entry.Fields["error"] != "boom" {
		t.Errorf("Fields[error] = %v, want boom", entry.Fields["error"])
	}
}

// TestInfoWithDuration tests the duration field
func TestInfoWithDuration(t *testing.T) {
	l := &Logger{Component: "insights", InstanceID: "i-1", Container: "box"}

	out := captureOutput(t, func() {
		l.InfoWithDuration("", "", "upsert completed", 12.5, nil)
	})

	var entry LogEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if entry.Fields["duration_ms"] != 12.5 {
		t.Errorf("Fields[duration_ms] = %v, want 12.5", entry.Fields["duration_ms"])
	}
	if entry.ProjectID != "" || entry.WorkflowID != "" {
		t.Error("empty context should be omitted, not defaulted")
	}
}
