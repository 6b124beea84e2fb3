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
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"floworks/platform/shared/logger"
	"floworks/platform/shared/types"
)

// projectOwnerRole is the membership role that marks a project's owner
const projectOwnerRole = "project:owner"

// OwnershipResolver resolves the owning project of a workflow and the owner
// user of a project. Both lookups are read-only and fast; implementations are
// expected to cache.
type OwnershipResolver interface {
	ProjectForWorkflow(ctx context.Context, workflowID string) (types.Project, error)
	OwnerOfProject(ctx context.Context, project types.Project) (types.User, error)
}

// DBOwnershipResolver resolves ownership from the platform's primary
// PostgreSQL database.
type DBOwnershipResolver struct {
	db *sql.DB
}

// NewDBOwnershipResolver creates a database-backed ownership resolver
func NewDBOwnershipResolver(db *sql.DB) *DBOwnershipResolver {
	return &DBOwnershipResolver{db: db}
}

// ProjectForWorkflow returns the project that contains the workflow
func (r *DBOwnershipResolver) ProjectForWorkflow(ctx context.Context, workflowID string) (types.Project, error) {
	var project types.Project
	err := r.db.QueryRowContext(ctx, `
		SELECT p.id, p.name
		FROM projects p
		JOIN project_workflows pw ON pw.project_id = p.id
		WHERE pw.workflow_id = $1
	`, workflowID).Scan(&project.ID, &project.Name)

	if err == sql.ErrNoRows {
		return types.Project{}, fmt.Errorf("workflow %s has no owning project", workflowID)
	}
	if err != nil {
		return types.Project{}, fmt.Errorf("failed to query project for workflow: %w", err)
	}

	return project, nil
}

// OwnerOfProject returns the project's owner user
func (r *DBOwnershipResolver) OwnerOfProject(ctx context.Context, project types.Project) (types.User, error) {
	var user types.User
	err := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.email
		FROM users u
		JOIN project_members pm ON pm.user_id = u.id
		WHERE pm.project_id = $1 AND pm.role = $2
	`, project.ID, projectOwnerRole).Scan(&user.ID, &user.Email)

	if err == sql.ErrNoRows {
		return types.User{}, fmt.Errorf("project %s has no owner", project.ID)
	}
	if err != nil {
		return types.User{}, fmt.Errorf("failed to query project owner: %w", err)
	}

	return user, nil
}

// CachedOwnershipResolver decorates a resolver with a Redis cache. Cache
// failures degrade to the delegate; a Redis outage never fails a lookup.
type CachedOwnershipResolver struct {
	delegate OwnershipResolver
	client   *redis.Client
	ttl      time.Duration
	log      *logger.Logger
}

// NewCachedOwnershipResolver wraps delegate with a Redis cache using the
// given TTL
func NewCachedOwnershipResolver(client *redis.Client, ttl time.Duration, delegate OwnershipResolver) *CachedOwnershipResolver {
	return &CachedOwnershipResolver{
		delegate: delegate,
		client:   client,
		ttl:      ttl,
		log:      logger.New("insights-ownership-cache"),
	}
}

// ProjectForWorkflow returns the cached project for the workflow, consulting
// the delegate on a miss
func (r *CachedOwnershipResolver) ProjectForWorkflow(ctx context.Context, workflowID string) (types.Project, error) {
	key := "insights:ownership:workflow-project:" + workflowID

	var project types.Project
	if hit, err := r.fetch(ctx, key, &project); err == nil && hit {
		return project, nil
	}

	project, err := r.delegate.ProjectForWorkflow(ctx, workflowID)
	if err != nil {
		return types.Project{}, err
	}

	r.store(ctx, key, project)
	return project, nil
}

// OwnerOfProject returns the cached owner for the project, consulting the
// delegate on a miss
func (r *CachedOwnershipResolver) OwnerOfProject(ctx context.Context, project types.Project) (types.User, error) {
	key := "insights:ownership:project-owner:" + project.ID

	var user types.User
	if hit, err := r.fetch(ctx, key, &user); err == nil && hit {
		return user, nil
	}

	user, err := r.delegate.OwnerOfProject(ctx, project)
	if err != nil {
		return types.User{}, err
	}

	r.store(ctx, key, user)
	return user, nil
}

// fetch reads and decodes a cached value; hit=false on redis.Nil
func (r *CachedOwnershipResolver) fetch(ctx context.Context, key string, out interface{}) (hit bool, err error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		r.log.Warn("", "", "Ownership cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false, err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// store writes a value to the cache, best effort
func (r *CachedOwnershipResolver) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.log.Warn("", "", "Ownership cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
