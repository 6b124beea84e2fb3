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
Package types provides shared type definitions used across FloWorks components.

# Overview

This package contains the domain types shared between the insights service and
its platform peers: workflow and node descriptors, run results, projects, and
users. It is the single source of truth for these shapes.

# Deployment Modes

FloWorks supports two deployment modes, configured via DeploymentConfig:

SaaS Mode (multi-tenant):
  - Statistics reads scoped to the caller's projects
  - Shared infrastructure

In-VPC Mode (single-tenant):
  - Platform-wide statistics visibility
  - Self-managed deployment

# Usage

Determine deployment mode and configure features:

	config := types.DefaultSaaSConfig()  // For SaaS deployments

	// Or for In-VPC deployments
	config := types.DefaultInVPCConfig()

	if config.IsSaaS() {
	    // Scope reads per tenant
	}

# Thread Safety

All types in this package are value types and are safe for concurrent use.
*/
package types
