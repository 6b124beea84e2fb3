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
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"floworks/platform/shared/types"
)

// Supported counter storage backends
const (
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
	BackendSQLite   = "sqlite"
)

// Config holds the insights service configuration. Values come from an
// optional YAML file, with environment variables taking precedence.
type Config struct {
	Port    string `yaml:"port"`
	Backend string `yaml:"backend"`

	// DatabaseURL is the counter store DSN for the postgres and mysql backends.
	DatabaseURL string `yaml:"database_url"`

	// PlatformDatabaseURL is the PostgreSQL DSN for the platform tables
	// (projects, memberships, user settings). Defaults to DatabaseURL.
	PlatformDatabaseURL string `yaml:"platform_database_url"`

	SQLitePath        string        `yaml:"sqlite_path"`
	RedisURL          string        `yaml:"redis_url"`
	AuthSecret        string        `yaml:"auth_secret"`
	OwnershipCacheTTL time.Duration `yaml:"ownership_cache_ttl"`
	DeploymentMode    string        `yaml:"deployment_mode"`
}

// LoadConfig builds the configuration from defaults, an optional YAML file,
// and environment overrides, in that order.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Port:              "8086",
		Backend:           BackendPostgres,
		SQLitePath:        "insights.db",
		OwnershipCacheTTL: 10 * time.Minute,
		DeploymentMode:    string(types.DeploymentModeSaaS),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Backend = getEnv("DB_BACKEND", cfg.Backend)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.PlatformDatabaseURL = getEnv("PLATFORM_DATABASE_URL", cfg.PlatformDatabaseURL)
	if cfg.PlatformDatabaseURL == "" {
		cfg.PlatformDatabaseURL = cfg.DatabaseURL
	}
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.AuthSecret = getEnv("AUTH_SECRET", cfg.AuthSecret)
	cfg.DeploymentMode = getEnv("DEPLOYMENT_MODE", cfg.DeploymentMode)

	if raw := os.Getenv("OWNERSHIP_CACHE_TTL"); raw != "" {
		ttl, err := parseTTL(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid OWNERSHIP_CACHE_TTL: %w", err)
		}
		cfg.OwnershipCacheTTL = ttl
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendPostgres, BackendMySQL:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for backend %q", c.Backend)
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for backend %q", c.Backend)
		}
	default:
		return fmt.Errorf("unsupported backend %q", c.Backend)
	}

	if c.PlatformDatabaseURL == "" {
		return fmt.Errorf("PLATFORM_DATABASE_URL is required for ownership lookups")
	}

	if !types.DeploymentMode(c.DeploymentMode).IsValid() {
		return fmt.Errorf("unsupported deployment mode %q", c.DeploymentMode)
	}
	return nil
}

// Deployment returns the deployment configuration for the configured mode.
func (c *Config) Deployment() types.DeploymentConfig {
	if types.DeploymentMode(c.DeploymentMode) == types.DeploymentModeInVPC {
		return types.DefaultInVPCConfig()
	}
	return types.DefaultSaaSConfig()
}

// parseTTL accepts either a Go duration string or a plain number of seconds.
func parseTTL(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

// getEnv returns the environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
