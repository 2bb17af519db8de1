// Copyright (c) 2026 John Earle
//
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

// PledgeWatch — Inbound Intake Service
//
// Entry point for the Go intake service. It:
//  1. Loads configuration (honeytrap lists, collaborator endpoints) from
//     config.yaml and the environment
//  2. Connects to Redis (screenshot job queue) and, when configured,
//     PostgreSQL (raw audit copies)
//  3. Builds the ingestion and pipeline-trigger clients
//  4. Serves the inbound forwarding webhook endpoint
//  5. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/pledgewatch/ingestion/internal/audit"
	"github.com/pledgewatch/ingestion/internal/config"
	"github.com/pledgewatch/ingestion/internal/pipeline"
	"github.com/pledgewatch/ingestion/internal/webhook"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting PledgeWatch intake service")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"honeytrap_emails", len(cfg.HoneytrapEmails),
		"honeytrap_ids", len(cfg.HoneytrapIDs),
		"audit_store", cfg.DatabaseURL != "",
		"screenshot_queue", cfg.RedisURL != "",
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Audit Store (Postgres, optional) ---
	var auditor webhook.AuditWriter
	if cfg.DatabaseURL != "" {
		pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to create Postgres pool", "error", err)
			os.Exit(1)
		}
		defer pgPool.Close()

		if err := pgPool.Ping(ctx); err != nil {
			slog.Error("failed to connect to PostgreSQL", "error", err)
			os.Exit(1)
		}

		store, err := audit.NewStore(ctx, pgPool)
		if err != nil {
			slog.Error("failed to initialise audit store", "error", err)
			os.Exit(1)
		}
		auditor = store
		slog.Info("connected to PostgreSQL")
	} else {
		slog.Warn("DATABASE_URL not set — raw audit copies disabled")
	}

	// --- Screenshot Queue (Redis, optional) ---
	var screenshots webhook.ScreenshotEnqueuer
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opt)

		queue := pipeline.NewScreenshotQueue(rdb, cfg.ScreenshotsQueue)
		if err := queue.Ping(ctx); err != nil {
			slog.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		screenshots = queue
		slog.Info("connected to Redis", "queue", cfg.ScreenshotsQueue)
	} else {
		slog.Warn("REDIS_URL not set — screenshot jobs disabled")
	}

	// --- Collaborator Clients ---
	var ingestor webhook.Ingestor
	if cfg.IngestURL != "" && cfg.ServiceKey != "" {
		ingestor = pipeline.NewIngestClient(cfg.IngestURL, cfg.ServiceKey)
	} else {
		// The webhook still answers (with service_key_missing) so the
		// provider's delivery probes do not hard-fail.
		slog.Error("ingestion service not fully configured — submissions will be rejected")
	}

	trigger := pipeline.NewTrigger(ctx, pipeline.TriggerConfig{
		ClassifyURL:  cfg.ClassifyURL,
		NoticeURL:    cfg.NoticeURL,
		ClientID:     cfg.PipelineClientID,
		ClientSecret: cfg.PipelineClientSecret,
		TokenURL:     cfg.PipelineTokenURL,
	})

	// --- Webhook Handler ---
	handler := webhook.NewHandler(webhook.HandlerConfig{
		HoneytrapEmails: cfg.HoneytrapEmails,
		HoneytrapIDs:    cfg.HoneytrapIDs,
		ServiceKey:      cfg.ServiceKey,
		Ingestor:        ingestor,
		Trigger:         trigger,
		Screenshots:     screenshots,
		Auditor:         auditor,
	})

	ready, err := webhook.Serve(ctx, cfg.Port, handler)
	if err != nil {
		slog.Error("failed to start webhook server", "error", err)
		os.Exit(1)
	}
	<-ready

	// --- Wait for shutdown signal ---
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig

	slog.Info("shutdown signal received", "signal", s.String())
	cancel()
}
