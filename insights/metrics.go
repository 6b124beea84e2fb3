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
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics
var (
	promEventsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_events_recorded_total",
			Help: "Workflow usage events processed, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	promFirstOccurrences = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_first_occurrences_total",
			Help: "First-occurrence notifications emitted, by kind",
		},
		[]string{"kind"},
	)
	promSubscriberPanics = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insights_subscriber_panics_total",
			Help: "Event subscribers that panicked during dispatch",
		},
	)
)

func init() {
	prometheus.MustRegister(promEventsRecorded)
	prometheus.MustRegister(promFirstOccurrences)
	prometheus.MustRegister(promSubscriberPanics)
}

// StatsCollector aggregates in-memory counters for the JSON /metrics endpoint
type StatsCollector struct {
	mu      sync.RWMutex
	started time.Time

	recorded map[string]int64
	ignored  map[string]int64
	firsts   map[string]int64
	errors   int64
}

// StatsSnapshot is the JSON shape returned by the /metrics endpoint
type StatsSnapshot struct {
	UptimeSeconds    int64            `json:"uptime_seconds"`
	EventsRecorded   map[string]int64 `json:"events_recorded"`
	EventsIgnored    map[string]int64 `json:"events_ignored"`
	FirstOccurrences map[string]int64 `json:"first_occurrences"`
	StorageErrors    int64            `json:"storage_errors"`
}

// NewStatsCollector creates a collector with zeroed counters
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{
		started:  time.Now(),
		recorded: make(map[string]int64),
		ignored:  make(map[string]int64),
		firsts:   make(map[string]int64),
	}
}

// RecordOutcome counts one processed event
func (c *StatsCollector) RecordOutcome(kind string, outcome Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch outcome {
	case OutcomeIgnored:
		c.ignored[kind]++
	case OutcomeFirst:
		c.recorded[kind]++
		c.firsts[kind]++
	case OutcomeRecorded:
		c.recorded[kind]++
	}
}

// RecordError counts one storage failure
func (c *StatsCollector) RecordError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors++
}

// Snapshot returns a copy of the current counters
func (c *StatsCollector) Snapshot() StatsSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := StatsSnapshot{
		UptimeSeconds:    int64(time.Since(c.started).Seconds()),
		EventsRecorded:   make(map[string]int64, len(c.recorded)),
		EventsIgnored:    make(map[string]int64, len(c.ignored)),
		FirstOccurrences: make(map[string]int64, len(c.firsts)),
		StorageErrors:    c.errors,
	}
	for k, v := range c.recorded {
		snap.EventsRecorded[k] = v
	}
	for k, v := range c.ignored {
		snap.EventsIgnored[k] = v
	}
	for k, v := range c.firsts {
		snap.FirstOccurrences[k] = v
	}
	return snap
}
