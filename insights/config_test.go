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
	"os"
	"path/filepath"
	"testing"
	"time"

	"floworks/platform/shared/types"
)

// TestLoadConfig_Defaults tests the zero-environment defaults
func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/insights")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != "8086" {
		t.Errorf("Port = %s, want 8086", cfg.Port)
	}
	if cfg.Backend != BackendPostgres {
		t.Errorf("Backend = %s, want %s", cfg.Backend, BackendPostgres)
	}
	if cfg.OwnershipCacheTTL != 10*time.Minute {
		t.Errorf("OwnershipCacheTTL = %v, want 10m", cfg.OwnershipCacheTTL)
	}
	if !cfg.Deployment().IsSaaS() {
		t.Error("default deployment should be SaaS")
	}
}

// TestLoadConfig_EnvOverrides tests that environment variables win
func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_BACKEND", BackendSQLite)
	t.Setenv("SQLITE_PATH", "/tmp/counters.db")
	t.Setenv("PLATFORM_DATABASE_URL", "postgres://localhost/platform")
	t.Setenv("OWNERSHIP_CACHE_TTL", "30")
	t.Setenv("DEPLOYMENT_MODE", "invpc")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %s, want 9090", cfg.Port)
	}
	if cfg.Backend != BackendSQLite {
		t.Errorf("Backend = %s, want %s", cfg.Backend, BackendSQLite)
	}
	if cfg.SQLitePath != "/tmp/counters.db" {
		t.Errorf("SQLitePath = %s", cfg.SQLitePath)
	}
	if cfg.OwnershipCacheTTL != 30*time.Second {
		t.Errorf("OwnershipCacheTTL = %v, want 30s", cfg.OwnershipCacheTTL)
	}
	if cfg.Deployment().Mode != types.DeploymentModeInVPC {
		t.Errorf("deployment mode = %s, want invpc", cfg.Deployment().Mode)
	}
}

// TestLoadConfig_YAMLFile tests file loading with env precedence on top
func TestLoadConfig_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "insights.yaml")
	content := `port: "7070"
backend: mysql
database_url: user:pass@tcp(db:3306)/platform?parseTime=true
auth_secret: file-secret
ownership_cache_ttl: 5m
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("AUTH_SECRET", "env-secret")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != "7070" {
		t.Errorf("Port = %s, want 7070", cfg.Port)
	}
	if cfg.Backend != BackendMySQL {
		t.Errorf("Backend = %s, want %s", cfg.Backend, BackendMySQL)
	}
	if cfg.AuthSecret != "env-secret" {
		t.Errorf("AuthSecret = %s, env should override file", cfg.AuthSecret)
	}
	if cfg.OwnershipCacheTTL != 5*time.Minute {
		t.Errorf("OwnershipCacheTTL = %v, want 5m", cfg.OwnershipCacheTTL)
	}
}

// TestLoadConfig_Validation tests the rejection paths
func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"DB_BACKEND": "oracle"}},
		{"postgres without url", map[string]string{"DB_BACKEND": BackendPostgres, "DATABASE_URL": ""}},
		{"mysql without url", map[string]string{"DB_BACKEND": BackendMySQL, "DATABASE_URL": ""}},
		{"sqlite without platform url", map[string]string{"DB_BACKEND": BackendSQLite, "DATABASE_URL": "", "PLATFORM_DATABASE_URL": ""}},
		{"bad ttl", map[string]string{"DATABASE_URL": "x", "OWNERSHIP_CACHE_TTL": "soon"}},
		{"bad deployment mode", map[string]string{"DATABASE_URL": "x", "DEPLOYMENT_MODE": "hybrid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(""); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
