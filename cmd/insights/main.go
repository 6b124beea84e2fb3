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

// Package main is the entry point for the FloWorks Insights service.
//
// Insights tracks workflow usage statistics and fires one-shot notifications
// the first time a workflow succeeds in production or loads external data:
// - Atomic per-(workflow, event kind) counters on PostgreSQL, MySQL, or SQLite
// - First-occurrence detection resolved inside the database, not the application
// - Project and owner resolution with an optional Redis cache
// - In-process event bus for notification consumers
//
// Usage:
//
//	./insights
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8086)
//	DB_BACKEND - counter storage backend: postgres, mysql, or sqlite (default: postgres)
//	DATABASE_URL - counter store connection string (postgres/mysql backends)
//	PLATFORM_DATABASE_URL - PostgreSQL connection string for platform tables (default: DATABASE_URL)
//	SQLITE_PATH - SQLite database file (sqlite backend, default: insights.db)
//	REDIS_URL - Redis URL for the ownership cache (optional)
//	AUTH_SECRET - HMAC secret for service tokens; auth disabled when empty
//	OWNERSHIP_CACHE_TTL - ownership cache TTL, duration or seconds (default: 10m)
//	DEPLOYMENT_MODE - saas or invpc (default: saas)
//	CONFIG_FILE - optional YAML configuration file
package main

import (
	"floworks/platform/insights"
)

func main() {
	insights.Run()
}
