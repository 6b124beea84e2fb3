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
Package postgres implements the workflow counter store on PostgreSQL.

First-occurrence detection uses a conditional upsert with RETURNING:

	INSERT INTO workflow_statistics (count, latest_event, name, workflow_id)
	VALUES (1, NOW(), $1, $2)
	ON CONFLICT (workflow_id, name)
	DO UPDATE SET count = workflow_statistics.count + 1, latest_event = NOW()
	RETURNING count

A returned count of 1 means the row was newly inserted. The primary key over
(workflow_id, name) makes the insert race safe: concurrent callers serialize
inside the database and exactly one observes count = 1.
*/
package postgres
