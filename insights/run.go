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
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"floworks/platform/common/counters"
	"floworks/platform/connectors/mysql"
	"floworks/platform/connectors/postgres"
	"floworks/platform/connectors/sqlite"
	"floworks/platform/shared/logger"
)

// Run starts the insights service. It blocks until the HTTP server exits.
func Run() {
	slog := logger.New("insights")

	cfg, err := LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	store, closeStore, err := openCounterStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open counter store: %v", err)
	}
	defer closeStore()

	platformDB, err := openPlatformDB(ctx, cfg.PlatformDatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to platform database: %v", err)
	}
	defer func() { _ = platformDB.Close() }()

	var ownership OwnershipResolver = NewDBOwnershipResolver(platformDB)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			// Cache is an optimization. Lookups degrade to the database.
			slog.Warn("", "", "Redis unreachable at startup, ownership cache degraded", map[string]interface{}{
				"error": err.Error(),
			})
		}
		ownership = NewCachedOwnershipResolver(client, cfg.OwnershipCacheTTL, ownership)
	}

	settings := NewDBSettingsStore(platformDB)

	bus := NewEventBus(slog)
	registerLoggingSubscribers(bus, slog)

	stats := NewStatsCollector()
	service := NewStatisticsService(store, ownership, settings, bus, stats, ServiceConfig{
		Deployment: cfg.Deployment(),
	})
	handler := NewAPIHandler(service, stats)

	// Setup router
	r := mux.NewRouter()

	// CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Configure for production
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	// Health check
	r.HandleFunc("/health", handler.HandleHealth).Methods("GET")

	// Metrics endpoints
	r.HandleFunc("/metrics", handler.HandleMetrics).Methods("GET") // JSON metrics (legacy)
	r.Handle("/prometheus", promhttp.Handler()).Methods("GET")     // Prometheus native format

	// Event ingestion and counter readback
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/events/production-success", handler.HandleProductionSuccess).Methods("POST")
	api.HandleFunc("/events/node-data-load", handler.HandleNodeDataLoad).Methods("POST")
	api.HandleFunc("/workflows/{id}/statistics", handler.HandleWorkflowStatistics).Methods("GET")
	api.Use(func(next http.Handler) http.Handler {
		return authMiddleware(cfg.AuthSecret, next)
	})

	log.Printf("FloWorks Insights listening on port %s (backend: %s)", cfg.Port, cfg.Backend)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, c.Handler(r)))
}

// openCounterStore opens the configured counter backend and ensures its schema
func openCounterStore(ctx context.Context, cfg *Config) (counters.CounterStore, func() error, error) {
	switch cfg.Backend {
	case BackendMySQL:
		store, err := mysql.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case BackendSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		store, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
}

// openPlatformDB connects to the PostgreSQL platform database holding the
// project and user tables.
func openPlatformDB(ctx context.Context, connectionURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connectionURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// registerLoggingSubscribers attaches the default notification consumers.
// Downstream delivery (email, in-app) subscribes here in deployments that
// ship those channels.
func registerLoggingSubscribers(bus *EventBus, slog *logger.Logger) {
	bus.Subscribe(EventFirstProductionSuccess, func(payload interface{}) {
		event, ok := payload.(FirstProductionSuccessEvent)
		if !ok {
			return
		}
		slog.Info(event.ProjectID, event.WorkflowID, "First production success for workflow", map[string]interface{}{
			"user_id": event.UserID,
		})
	})

	bus.Subscribe(EventFirstNodeDataLoad, func(payload interface{}) {
		event, ok := payload.(FirstNodeDataLoadEvent)
		if !ok {
			return
		}
		slog.Info(event.ProjectID, event.WorkflowID, "First data load for workflow", map[string]interface{}{
			"user_id":   event.UserID,
			"node_type": event.NodeType,
		})
	})
}
