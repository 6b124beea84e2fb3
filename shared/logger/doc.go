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
Package logger provides structured JSON logging for FloWorks components.

# Overview

The logger outputs single-line JSON to stdout, making logs consumable by
CloudWatch, ELK, or other log aggregation systems.

Each log entry includes:
  - Timestamp (RFC3339Nano format)
  - Log level (DEBUG, INFO, WARN, ERROR)
  - Component name
  - Instance ID and container name (for distributed tracing)
  - Project ID and workflow ID (tenant context, when available)
  - Custom fields

# Usage

Create a logger for your component:

	log := logger.New("insights")

Log messages with workflow context:

	log.Info("proj-123", "wf-456", "First production success recorded", map[string]interface{}{
	    "user_id": userID,
	})

Log errors:

	log.ErrorWithErr("proj-123", "wf-456", "Counter increment failed", err, nil)

# Environment Variables

The logger reads these environment variables at construction:

  - INSTANCE_ID: Deployment instance identifier
  - HOSTNAME: Container hostname (auto-detected)

# Thread Safety

Logger instances are safe for concurrent use from multiple goroutines.
*/
package logger
