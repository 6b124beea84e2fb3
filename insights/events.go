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
	"fmt"
	"sync"

	"floworks/platform/shared/logger"
)

// EventName identifies a notification kind on the event bus
type EventName string

const (
	// EventFirstProductionSuccess fires the first time a workflow completes a
	// successful production execution
	EventFirstProductionSuccess EventName = "first-production-success"
	// EventFirstNodeDataLoad fires the first time a workflow node fetches data
	EventFirstNodeDataLoad EventName = "first-node-data-load"
)

// FirstProductionSuccessEvent is the payload published on
// EventFirstProductionSuccess.
type FirstProductionSuccessEvent struct {
	ProjectID  string `json:"project_id"`
	UserID     string `json:"user_id"`
	WorkflowID string `json:"workflow_id"`
}

// FirstNodeDataLoadEvent is the payload published on EventFirstNodeDataLoad.
// Credential fields are set only when the node declares exactly one credential.
type FirstNodeDataLoadEvent struct {
	UserID         string `json:"user_id"`
	ProjectID      string `json:"project_id"`
	WorkflowID     string `json:"workflow_id"`
	NodeType       string `json:"node_type"`
	NodeID         string `json:"node_id"`
	CredentialType string `json:"credential_type,omitempty"`
	CredentialID   string `json:"credential_id,omitempty"`
}

// EventHandler receives published payloads for one event kind
type EventHandler func(payload interface{})

// EventBus is an in-process publish/subscribe channel for first-occurrence
// notifications. Dispatch is synchronous: Publish calls every subscriber on
// the caller's goroutine and returns when all have run. A panicking
// subscriber is recovered and logged; it never affects other subscribers or
// the counter increment that triggered the event.
type EventBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[EventName]map[int]EventHandler
	log    *logger.Logger

	// onPanic is invoked after a recovered subscriber panic, used to feed
	// the dispatch-failure metric.
	onPanic func(name EventName)
}

// NewEventBus creates an event bus with no subscribers
func NewEventBus(log *logger.Logger) *EventBus {
	return &EventBus{
		subs: make(map[EventName]map[int]EventHandler),
		log:  log,
	}
}

// Subscribe registers handler for the named event and returns an unsubscribe
// function. Handlers registered while a Publish is in flight do not receive
// that event.
func (b *EventBus) Subscribe(name EventName, handler EventHandler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[name] == nil {
		b.subs[name] = make(map[int]EventHandler)
	}
	id := b.nextID
	b.nextID++
	b.subs[name][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[name], id)
	}
}

// SubscriberCount returns the number of subscribers for the named event
func (b *EventBus) SubscriberCount(name EventName) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name])
}

// Publish dispatches payload to every subscriber of the named event,
// synchronously. Dispatch order is not guaranteed.
func (b *EventBus) Publish(name EventName, payload interface{}) {
	b.mu.RLock()
	handlers := make([]EventHandler, 0, len(b.subs[name]))
	for _, h := range b.subs[name] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(name, h, payload)
	}
}

// dispatch runs one handler with panic isolation
func (b *EventBus) dispatch(name EventName, handler EventHandler, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			if b.log != nil {
				b.log.Error("", "", "Event subscriber panicked", map[string]interface{}{
					"event": string(name),
					"panic": fmt.Sprintf("%v", r),
				})
			}
			if b.onPanic != nil {
				b.onPanic(name)
			}
		}
	}()
	handler(payload)
}
