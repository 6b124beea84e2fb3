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
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"floworks/platform/shared/types"
)

// countingOwnership wraps fakeOwnership and counts delegate hits
type countingOwnership struct {
	fakeOwnership
	projectCalls int
	ownerCalls   int
}

func (c *countingOwnership) ProjectForWorkflow(ctx context.Context, workflowID string) (types.Project, error) {
	c.projectCalls++
	return c.fakeOwnership.ProjectForWorkflow(ctx, workflowID)
}

func (c *countingOwnership) OwnerOfProject(ctx context.Context, project types.Project) (types.User, error) {
	c.ownerCalls++
	return c.fakeOwnership.OwnerOfProject(ctx, project)
}

func newCacheFixture(t *testing.T) (*miniredis.Miniredis, *redis.Client, *countingOwnership, *CachedOwnershipResolver) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	delegate := &countingOwnership{fakeOwnership: fakeOwnership{
		project: types.Project{ID: "proj-1", Name: "Team A"},
		owner:   types.User{ID: "user-1", Email: "owner@example.com"},
	}}

	resolver := NewCachedOwnershipResolver(client, time.Minute, delegate)
	return mr, client, delegate, resolver
}

// TestCachedResolver_MissThenHit tests that the second lookup is served from
// the cache
func TestCachedResolver_MissThenHit(t *testing.T) {
	_, _, delegate, resolver := newCacheFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		project, err := resolver.ProjectForWorkflow(ctx, "wf-1")
		if err != nil {
			t.Fatalf("ProjectForWorkflow() error = %v", err)
		}
		if project.ID != "proj-1" {
			t.Errorf("project.ID = %s, want proj-1", project.ID)
		}
	}

	if delegate.projectCalls != 1 {
		t.Errorf("delegate hit %d times, want 1", delegate.projectCalls)
	}
}

// TestCachedResolver_CachedValueShape tests what actually lands in Redis
func TestCachedResolver_CachedValueShape(t *testing.T) {
	mr, _, _, resolver := newCacheFixture(t)
	ctx := context.Background()

	if _, err := resolver.OwnerOfProject(ctx, types.Project{ID: "proj-1"}); err != nil {
		t.Fatalf("OwnerOfProject() error = %v", err)
	}

	raw, err := mr.Get("insights:ownership:project-owner:proj-1")
	if err != nil {
		t.Fatalf("cache key not written: %v", err)
	}

	var user types.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		t.Fatalf("cached value is not JSON: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("cached user.ID = %s, want user-1", user.ID)
	}
}

// TestCachedResolver_TTLExpiry tests that an expired entry falls back to the
// delegate
func TestCachedResolver_TTLExpiry(t *testing.T) {
	mr, _, delegate, resolver := newCacheFixture(t)
	ctx := context.Background()

	if _, err := resolver.ProjectForWorkflow(ctx, "wf-1"); err != nil {
		t.Fatalf("ProjectForWorkflow() error = %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := resolver.ProjectForWorkflow(ctx, "wf-1"); err != nil {
		t.Fatalf("ProjectForWorkflow() after expiry error = %v", err)
	}
	if delegate.projectCalls != 2 {
		t.Errorf("delegate hit %d times, want 2 after TTL expiry", delegate.projectCalls)
	}
}

// TestCachedResolver_RedisDownDegrades tests that a dead Redis degrades to
// the delegate instead of failing lookups
func TestCachedResolver_RedisDownDegrades(t *testing.T) {
	mr, _, delegate, resolver := newCacheFixture(t)
	mr.Close()

	user, err := resolver.OwnerOfProject(context.Background(), types.Project{ID: "proj-1"})
	if err != nil {
		t.Fatalf("OwnerOfProject() with Redis down error = %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("user.ID = %s, want user-1", user.ID)
	}
	if delegate.ownerCalls != 1 {
		t.Errorf("delegate hit %d times, want 1", delegate.ownerCalls)
	}
}

// TestDBOwnershipResolver tests the SQL lookups
func TestDBOwnershipResolver(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	resolver := NewDBOwnershipResolver(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT p.id, p.name").
		WithArgs("wf-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("proj-1", "Team A"))

	project, err := resolver.ProjectForWorkflow(ctx, "wf-1")
	if err != nil {
		t.Fatalf("ProjectForWorkflow() error = %v", err)
	}
	if project.ID != "proj-1" || project.Name != "Team A" {
		t.Errorf("project = %+v", project)
	}

	mock.ExpectQuery("SELECT u.id, u.email").
		WithArgs("proj-1", projectOwnerRole).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow("user-1", "owner@example.com"))

	owner, err := resolver.OwnerOfProject(ctx, project)
	if err != nil {
		t.Fatalf("OwnerOfProject() error = %v", err)
	}
	if owner.ID != "user-1" {
		t.Errorf("owner = %+v", owner)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

// TestDBOwnershipResolver_NoProject tests the missing-project error
func TestDBOwnershipResolver_NoProject(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	resolver := NewDBOwnershipResolver(db)

	mock.ExpectQuery("SELECT p.id, p.name").
		WithArgs("wf-orphan").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	if _, err := resolver.ProjectForWorkflow(context.Background(), "wf-orphan"); err == nil {
		t.Error("expected error for workflow with no project")
	}
}
