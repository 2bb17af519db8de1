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

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the intake service.
type Config struct {
	// Honeytraps are operator-planted decoy identifiers that must never
	// survive in outward-facing text. Both lists may legally be empty,
	// but an empty configuration weakens the decoy-protection guarantee
	// and is logged as a warning at load.
	HoneytrapEmails []string
	HoneytrapIDs    []string

	// Ingestion service
	IngestURL  string
	ServiceKey string

	// Downstream pipelines
	ClassifyURL          string
	NoticeURL            string
	PipelineClientID     string
	PipelineClientSecret string
	PipelineTokenURL     string

	// Redis
	RedisURL         string
	ScreenshotsQueue string

	// Postgres (raw audit copies; optional)
	DatabaseURL string

	// Server
	Port int
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Honeytraps struct {
		Emails []string `yaml:"emails"`
		IDs    []string `yaml:"ids"`
	} `yaml:"honeytraps"`
	Ingestion struct {
		URL        string `yaml:"url"`
		ServiceKey string `yaml:"service_key"`
	} `yaml:"ingestion"`
	Pipelines struct {
		ClassifyURL  string `yaml:"classify_url"`
		NoticeURL    string `yaml:"notice_url"`
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		TokenURL     string `yaml:"token_url"`
	} `yaml:"pipelines"`
	Redis struct {
		URL    string `yaml:"url"`
		Queues struct {
			Screenshots string `yaml:"screenshots"`
		} `yaml:"queues"`
	} `yaml:"redis"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables for non-YAML settings. A missing config file is not
// fatal — everything can be supplied through the environment.
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "/app/config/config.yaml")

	var raw rawConfig
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		// Expand ${VAR} references in the YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config YAML: %w", err)
		}
	case os.IsNotExist(err):
		slog.Info("config file not found, using environment only", "path", configPath)
	default:
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	cfg := &Config{
		HoneytrapEmails:      splitAndMerge(raw.Honeytraps.Emails, os.Getenv("HONEYTRAP_EMAILS")),
		HoneytrapIDs:         splitAndMerge(raw.Honeytraps.IDs, os.Getenv("HONEYTRAP_IDS")),
		IngestURL:            firstNonEmpty(raw.Ingestion.URL, os.Getenv("INGEST_URL")),
		ServiceKey:           firstNonEmpty(raw.Ingestion.ServiceKey, os.Getenv("INGEST_SERVICE_KEY")),
		ClassifyURL:          firstNonEmpty(raw.Pipelines.ClassifyURL, os.Getenv("CLASSIFY_URL")),
		NoticeURL:            firstNonEmpty(raw.Pipelines.NoticeURL, os.Getenv("NOTICE_URL")),
		PipelineClientID:     firstNonEmpty(raw.Pipelines.ClientID, os.Getenv("PIPELINE_CLIENT_ID")),
		PipelineClientSecret: firstNonEmpty(raw.Pipelines.ClientSecret, os.Getenv("PIPELINE_CLIENT_SECRET")),
		PipelineTokenURL:     firstNonEmpty(raw.Pipelines.TokenURL, os.Getenv("PIPELINE_TOKEN_URL")),
		RedisURL:             firstNonEmpty(raw.Redis.URL, os.Getenv("REDIS_URL")),
		ScreenshotsQueue:     firstNonEmpty(raw.Redis.Queues.Screenshots, envOrDefault("SCREENSHOTS_QUEUE", "screenshots")),
		DatabaseURL:          firstNonEmpty(raw.Database.URL, os.Getenv("DATABASE_URL")),
		Port:                 envOrDefaultInt("PORT", 8080),
	}

	if len(cfg.HoneytrapEmails) == 0 && len(cfg.HoneytrapIDs) == 0 {
		slog.Warn("no honeytrap identifiers configured — redaction is a no-op and decoy protection is disabled")
	}

	return cfg, nil
}

// splitAndMerge combines a YAML list with a comma-separated env override,
// trimming whitespace and dropping empties.
func splitAndMerge(fromYAML []string, fromEnv string) []string {
	var out []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	for _, v := range fromYAML {
		add(v)
	}
	for _, v := range strings.Split(fromEnv, ",") {
		add(v)
	}
	return out
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
