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

// Package insights implements the workflow usage statistics service.
//
// The service increments a counter per (workflow, event kind) pair and detects
// the first occurrence of each pair. First occurrences trigger exactly one
// notification on the in-process event bus, with the owning project and user
// resolved from the platform database. Counter atomicity lives in the storage
// backend's unique key; concurrent recorders never race in the application.
package insights
