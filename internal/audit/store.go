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

// Package audit provides a Postgres-backed store for raw, pre-redaction
// copies of inbound submissions. The audit table is access-restricted and
// never surfaces in outward-facing views; it exists so operators can
// diagnose redaction and recovery behaviour against the original text.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is one raw submission copy, captured before any cleaning or
// redaction runs.
type Record struct {
	ID             string
	EnvelopeSender string
	Subject        string
	BodyPlainText  string
	BodyHTML       string
	RawHeaderBlock string
	ReceivedAt     time.Time
}

// Store writes audit records to Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates an audit store backed by the given Postgres pool.
// It ensures the audit table exists on creation.
func NewStore(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure audit schema: %w", err)
	}
	slog.Info("audit store initialised")
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS submission_audit (
			id              UUID PRIMARY KEY,
			envelope_sender TEXT NOT NULL DEFAULT '',
			subject         TEXT NOT NULL DEFAULT '',
			body_plain      TEXT NOT NULL DEFAULT '',
			body_html       TEXT NOT NULL DEFAULT '',
			raw_headers     TEXT NOT NULL DEFAULT '',
			received_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_audit_received ON submission_audit(received_at);
		CREATE INDEX IF NOT EXISTS idx_audit_sender ON submission_audit(envelope_sender);
	`)
	return err
}

// Save inserts a raw copy. A zero ID gets a fresh UUID; a zero ReceivedAt
// gets the current time.
func (s *Store) Save(ctx context.Context, r Record) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.ReceivedAt.IsZero() {
		r.ReceivedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO submission_audit
			(id, envelope_sender, subject, body_plain, body_html, raw_headers, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.ID, r.EnvelopeSender, r.Subject, r.BodyPlainText, r.BodyHTML, r.RawHeaderBlock, r.ReceivedAt)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}
