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

package types

// DeploymentMode represents the deployment type
type DeploymentMode string

const (
	// DeploymentModeSaaS is for multi-tenant SaaS deployments
	DeploymentModeSaaS DeploymentMode = "saas"
	// DeploymentModeInVPC is for single-tenant In-VPC deployments
	DeploymentModeInVPC DeploymentMode = "invpc"
)

// String returns the string representation of the DeploymentMode
func (m DeploymentMode) String() string {
	return string(m)
}

// IsValid returns true if the DeploymentMode is a valid known value
func (m DeploymentMode) IsValid() bool {
	switch m {
	case DeploymentModeSaaS, DeploymentModeInVPC:
		return true
	default:
		return false
	}
}

// DeploymentConfig carries deployment-specific settings. The insights service
// receives this explicitly at construction; nothing reads deployment state from
// the environment after startup.
//
// SaaS deployments scope statistics reads to the caller's projects. In-VPC
// deployments expose platform-wide statistics for self-managed installs.
type DeploymentConfig struct {
	// Mode is the deployment type (saas or invpc)
	Mode DeploymentMode `json:"mode"`

	// TenantIsolation scopes statistics reads to the caller's projects
	TenantIsolation bool `json:"tenant_isolation"`

	// ShowPlatformMetrics exposes platform-wide counter readback (In-VPC only)
	ShowPlatformMetrics bool `json:"show_platform_metrics"`
}

// DefaultSaaSConfig returns the default configuration for SaaS deployments.
func DefaultSaaSConfig() DeploymentConfig {
	return DeploymentConfig{
		Mode:                DeploymentModeSaaS,
		TenantIsolation:     true,
		ShowPlatformMetrics: false,
	}
}

// DefaultInVPCConfig returns the default configuration for In-VPC deployments.
func DefaultInVPCConfig() DeploymentConfig {
	return DeploymentConfig{
		Mode:                DeploymentModeInVPC,
		TenantIsolation:     false,
		ShowPlatformMetrics: true,
	}
}

// IsSaaS returns true if this is a SaaS deployment
func (c DeploymentConfig) IsSaaS() bool {
	return c.Mode == DeploymentModeSaaS
}

// IsInVPC returns true if this is an In-VPC deployment
func (c DeploymentConfig) IsInVPC() bool {
	return c.Mode == DeploymentModeInVPC
}
