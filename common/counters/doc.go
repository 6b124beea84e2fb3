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

/*
Package counters defines the workflow usage counter contract shared by the
insights service and its storage backends.

A counter row is keyed by (workflow_id, event kind) and holds a monotonically
non-decreasing count. The single primitive every backend must provide is an
atomic increment-or-insert that reports whether the row was newly created;
the insights service keys its first-occurrence notifications off that flag.

Backends report insert-vs-update through different driver shapes (RETURNING
count, affected-rows semantics, constraint errors). Each connector package
decodes its own driver's shape and exposes the uniform CounterStore interface;
driver-specific duplicate-key errors are wrapped in ErrDuplicateKey.
*/
package counters
