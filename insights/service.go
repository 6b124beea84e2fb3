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
	"fmt"

	"floworks/platform/common/counters"
	"floworks/platform/shared/logger"
	"floworks/platform/shared/types"
)

// Outcome reports what recording an event did
type Outcome string

const (
	// OutcomeIgnored means the event failed its precondition and had no effect
	OutcomeIgnored Outcome = "ignored"
	// OutcomeRecorded means the counter was incremented on an existing row
	OutcomeRecorded Outcome = "recorded"
	// OutcomeFirst means the counter row was newly created and a notification
	// was emitted
	OutcomeFirst Outcome = "first"
)

// ServiceConfig carries the explicit configuration for the statistics
// service. It is passed at construction; the service reads no global state.
type ServiceConfig struct {
	Deployment types.DeploymentConfig
}

// StatisticsService records workflow usage counters and emits a one-time
// notification the first time each tracked event kind occurs for a workflow.
//
// Atomicity of the first-occurrence decision belongs to the counter store:
// the service never locks around the upsert.
type StatisticsService struct {
	store     counters.CounterStore
	ownership OwnershipResolver
	settings  SettingsStore
	bus       *EventBus
	stats     *StatsCollector
	config    ServiceConfig
	log       *logger.Logger
}

// NewStatisticsService wires the service with its collaborators
func NewStatisticsService(store counters.CounterStore, ownership OwnershipResolver, settings SettingsStore, bus *EventBus, stats *StatsCollector, config ServiceConfig) *StatisticsService {
	svc := &StatisticsService{
		store:     store,
		ownership: ownership,
		settings:  settings,
		bus:       bus,
		stats:     stats,
		config:    config,
		log:       logger.New("insights"),
	}
	if bus != nil {
		bus.onPanic = func(EventName) { promSubscriberPanics.Inc() }
	}
	return svc
}

// RecordProductionSuccess records a successful production execution for the
// workflow. Runs that did not finish, or finished with a non-success status,
// are ignored. On the first success ever recorded for the workflow it marks
// the owner's settings and publishes EventFirstProductionSuccess.
func (s *StatisticsService) RecordProductionSuccess(ctx context.Context, workflow types.Workflow, run types.RunResult) (Outcome, error) {
	kind := counters.KindProductionSuccess

	if !run.Succeeded() {
		s.log.Debug("", workflow.ID, "Ignoring unsuccessful run", map[string]interface{}{
			"finished": run.Finished,
			"status":   run.Status,
		})
		s.observe(kind, OutcomeIgnored)
		return OutcomeIgnored, nil
	}

	first, err := s.store.Upsert(ctx, workflow.ID, kind)
	if err != nil {
		// A racing insert surfaces as a duplicate-key violation on some
		// backends; that is the update path, not a failure.
		if counters.IsDuplicateKey(err) {
			s.observe(kind, OutcomeRecorded)
			return OutcomeRecorded, nil
		}
		s.stats.RecordError()
		return "", fmt.Errorf("failed to record production success for workflow %s: %w", workflow.ID, err)
	}

	if !first {
		s.observe(kind, OutcomeRecorded)
		return OutcomeRecorded, nil
	}

	project, owner, err := s.resolveOwnership(ctx, workflow.ID)
	if err != nil {
		return "", err
	}

	if err := s.settings.MarkFirstSuccessfulWorkflow(ctx, owner.ID); err != nil {
		return "", fmt.Errorf("failed to update settings for user %s: %w", owner.ID, err)
	}

	s.bus.Publish(EventFirstProductionSuccess, FirstProductionSuccessEvent{
		ProjectID:  project.ID,
		UserID:     owner.ID,
		WorkflowID: workflow.ID,
	})

	s.log.Info(project.ID, workflow.ID, "First production success recorded", map[string]interface{}{
		"user_id": owner.ID,
	})
	s.observe(kind, OutcomeFirst)
	return OutcomeFirst, nil
}

// RecordNodeDataFetch records a node data fetch for the workflow. On the
// first fetch ever recorded it publishes EventFirstNodeDataLoad; when the
// node declares exactly one credential, the payload carries it.
func (s *StatisticsService) RecordNodeDataFetch(ctx context.Context, workflowID string, node types.WorkflowNode) (Outcome, error) {
	kind := counters.KindDataLoaded

	first, err := s.store.Upsert(ctx, workflowID, kind)
	if err != nil {
		// Duplicate key means the flag is already set.
		if counters.IsDuplicateKey(err) {
			s.observe(kind, OutcomeRecorded)
			return OutcomeRecorded, nil
		}
		s.stats.RecordError()
		return "", fmt.Errorf("failed to record data fetch for workflow %s: %w", workflowID, err)
	}

	if !first {
		s.observe(kind, OutcomeRecorded)
		return OutcomeRecorded, nil
	}

	project, owner, err := s.resolveOwnership(ctx, workflowID)
	if err != nil {
		return "", err
	}

	event := FirstNodeDataLoadEvent{
		UserID:     owner.ID,
		ProjectID:  project.ID,
		WorkflowID: workflowID,
		NodeType:   node.Type,
		NodeID:     node.ID,
	}
	if cred, ok := node.SoleCredential(); ok {
		event.CredentialType = cred.Type
		event.CredentialID = cred.ID
	}

	s.bus.Publish(EventFirstNodeDataLoad, event)

	s.log.Info(project.ID, workflowID, "First node data load recorded", map[string]interface{}{
		"node_type": node.Type,
		"node_id":   node.ID,
	})
	s.observe(kind, OutcomeFirst)
	return OutcomeFirst, nil
}

// Statistics returns the counter rows for a workflow
func (s *StatisticsService) Statistics(ctx context.Context, workflowID string) ([]counters.Row, error) {
	return s.store.Get(ctx, workflowID)
}

// resolveOwnership walks workflow -> project -> owner
func (s *StatisticsService) resolveOwnership(ctx context.Context, workflowID string) (types.Project, types.User, error) {
	project, err := s.ownership.ProjectForWorkflow(ctx, workflowID)
	if err != nil {
		return types.Project{}, types.User{}, fmt.Errorf("failed to resolve project for workflow %s: %w", workflowID, err)
	}

	owner, err := s.ownership.OwnerOfProject(ctx, project)
	if err != nil {
		return types.Project{}, types.User{}, fmt.Errorf("failed to resolve owner of project %s: %w", project.ID, err)
	}

	return project, owner, nil
}

// observe feeds both metric sinks
func (s *StatisticsService) observe(kind counters.EventKind, outcome Outcome) {
	promEventsRecorded.WithLabelValues(string(kind), string(outcome)).Inc()
	if outcome == OutcomeFirst {
		promFirstOccurrences.WithLabelValues(string(kind)).Inc()
	}
	if s.stats != nil {
		s.stats.RecordOutcome(string(kind), outcome)
	}
}
