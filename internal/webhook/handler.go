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

// Package webhook handles inbound email-forwarding webhook requests. A
// third-party provider POSTs the payload of a user-forwarded solicitation;
// this handler normalizes it, recovers the original sender and send time
// from the forwarded body, redacts decoy identifiers, hands the record to
// the ingestion service, and triggers the downstream pipelines the ingestion
// verdict calls for.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pledgewatch/ingestion/internal/audit"
	"github.com/pledgewatch/ingestion/internal/clean"
	"github.com/pledgewatch/ingestion/internal/forward"
	"github.com/pledgewatch/ingestion/internal/models"
	"github.com/pledgewatch/ingestion/internal/payload"
	"github.com/pledgewatch/ingestion/internal/redact"
)

// state names the steps of per-request processing, for log correlation.
type state string

const (
	stateReceived       state = "received"
	stateDecoded        state = "decoded"
	stateFactsExtracted state = "facts_extracted"
	stateRedacted       state = "redacted"
	stateIngested       state = "ingested"
	stateDuplicate      state = "duplicate"
	stateIngestFailed   state = "ingest_failed"
	statePipelines      state = "pipelines_triggered"
)

// Ingestor is the ingestion service contract. It owns persistence,
// duplicate detection, and the fundraising classification flag.
type Ingestor interface {
	Ingest(ctx context.Context, req models.IngestRequest) (*models.IngestOutcome, error)
}

// PipelineTrigger starts the synchronous downstream pipelines.
type PipelineTrigger interface {
	Classify(ctx context.Context, caseID string) error
	NotifyNonFundraising(ctx context.Context, submissionID string) error
}

// ScreenshotEnqueuer queues a landing-page screenshot job.
type ScreenshotEnqueuer interface {
	Enqueue(ctx context.Context, caseID, url string) error
}

// AuditWriter persists the raw, pre-redaction copy of a submission.
type AuditWriter interface {
	Save(ctx context.Context, r audit.Record) error
}

// Handler processes inbound forwarding webhook requests.
type Handler struct {
	honeytraps []string
	redactor   *redact.Redactor
	serviceKey string

	ingestor    Ingestor
	trigger     PipelineTrigger
	screenshots ScreenshotEnqueuer // nil when Redis is not configured
	auditor     AuditWriter        // nil when Postgres is not configured

	now func() time.Time
}

// HandlerConfig carries the handler's dependencies.
type HandlerConfig struct {
	HoneytrapEmails []string
	HoneytrapIDs    []string
	ServiceKey      string
	Ingestor        Ingestor
	Trigger         PipelineTrigger
	Screenshots     ScreenshotEnqueuer
	Auditor         AuditWriter
}

// NewHandler creates an inbound submission handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		honeytraps:  cfg.HoneytrapEmails,
		redactor:    redact.New(cfg.HoneytrapEmails, cfg.HoneytrapIDs),
		serviceKey:  cfg.ServiceKey,
		ingestor:    cfg.Ingestor,
		trigger:     cfg.Trigger,
		screenshots: cfg.Screenshots,
		auditor:     cfg.Auditor,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// response is the webhook's JSON reply shape.
type response struct {
	OK        bool   `json:"ok,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	ID        string `json:"id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ServeSubmission handles one inbound forwarding webhook request.
//
// Processing is sequential: decode → extract facts → audit raw copy →
// clean/redact → ingest → branch on the ingestion verdict. Parsing never
// aborts the request (degrades to empty fields); only missing configuration
// and ingestion failure surface as errors to the provider.
func (h *Handler) ServeSubmission(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic handling submission", "panic", rec)
			writeJSON(w, http.StatusInternalServerError, response{Error: "internal_error"})
		}
	}()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, response{Error: "method_not_allowed"})
		return
	}

	ctx := r.Context()
	logState(stateReceived)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Warn("failed to read webhook body", "error", err)
		body = nil
	}

	// Decoding always yields a message, empty fields at worst.
	msg := payload.Decode(r.Header.Get("Content-Type"), body)
	logState(stateDecoded,
		"sender_len", len(msg.EnvelopeSender),
		"plain_len", len(msg.BodyPlainText),
		"html_len", len(msg.BodyHTML),
	)

	facts := forward.RecoverFacts(msg, h.honeytraps, h.now())
	logState(stateFactsExtracted,
		"is_forwarded", facts.IsForwarded,
		"recovered_from", facts.OriginalFromLine != "",
		"recovered_sent_at", facts.OriginalSentAt != nil,
	)

	// Raw copy first: the audit trail keeps the pre-redaction text and is
	// the only place it may go. Failure is logged, never fatal.
	if h.auditor != nil {
		rec := audit.Record{
			EnvelopeSender: msg.EnvelopeSender,
			Subject:        msg.Subject,
			BodyPlainText:  msg.BodyPlainText,
			BodyHTML:       msg.BodyHTML,
			RawHeaderBlock: msg.RawHeaderBlock,
			ReceivedAt:     h.now(),
		}
		if err := h.auditor.Save(ctx, rec); err != nil {
			slog.Error("audit write failed", "error", err)
		}
	}

	// Redaction runs after forwarding-boundary handling so a decoy quoted
	// inside a banner line cannot leak, and on every field that leaves the
	// core.
	cleanedText := h.redactor.Scrub(clean.Text(msg.BodyPlainText))
	subject := h.redactor.Scrub(msg.Subject)
	sanitizedHTML := ""
	if msg.BodyHTML != "" {
		sanitizedHTML = h.redactor.Scrub(clean.HTML(msg.BodyHTML))
	}
	logState(stateRedacted)

	if h.serviceKey == "" || h.ingestor == nil {
		slog.Error("ingestion service key missing — cannot store submission")
		writeJSON(w, http.StatusBadRequest, response{Error: "service_key_missing"})
		return
	}

	token, err := newSubmissionToken()
	if err != nil {
		slog.Error("failed to generate submission token", "error", err)
		writeJSON(w, http.StatusInternalServerError, response{Error: "internal_error"})
		return
	}

	outcome, err := h.ingestor.Ingest(ctx, models.IngestRequest{
		CleanedText:       cleanedText,
		RawText:           msg.BodyPlainText,
		SenderAddress:     facts.OriginalSenderAddress,
		MessageType:       "email",
		EmailSubject:      subject,
		SanitizedHTMLBody: sanitizedHTML,
		OriginalHTMLBody:  msg.BodyHTML,
		OriginalFromLine:  facts.OriginalFromLine,
		ForwarderAddress:  facts.ForwarderAddress,
		SubmissionToken:   token,
		OriginalSentAt:    facts.OriginalSentAt,
	})
	if err != nil {
		logState(stateIngestFailed, "error", err)
		writeJSON(w, http.StatusInternalServerError, response{Error: "ingest_failed"})
		return
	}

	// Duplicate is a normal terminal state, not an error: the ingestion
	// service already holds this message and no pipelines fire again.
	if outcome.Duplicate {
		logState(stateDuplicate, "case_id", outcome.ID)
		writeJSON(w, http.StatusOK, response{OK: true, Duplicate: true, ID: outcome.ID})
		return
	}

	if !outcome.OK || outcome.ID == "" {
		logState(stateIngestFailed, "ok", outcome.OK)
		writeJSON(w, http.StatusInternalServerError, response{Error: "ingest_failed"})
		return
	}
	logState(stateIngested, "case_id", outcome.ID, "fundraising", outcome.IsFundraising)

	h.runPipelines(ctx, facts, outcome)

	writeJSON(w, http.StatusOK, response{OK: true, ID: outcome.ID})
}

// runPipelines triggers the post-ingest side effects the verdict calls for.
// Trigger failures are logged and do not affect the HTTP response.
func (h *Handler) runPipelines(ctx context.Context, facts models.ForwardingFacts, outcome *models.IngestOutcome) {
	if outcome.IsFundraising {
		// Classification is awaited so its failure is visible in logs
		// before the response goes out.
		if err := h.trigger.Classify(ctx, outcome.ID); err != nil {
			slog.Error("classify pipeline trigger failed", "case_id", outcome.ID, "error", err)
		}

		if outcome.LandingURL != "" {
			h.enqueueScreenshot(outcome.ID, outcome.LandingURL)
		}
		logState(statePipelines, "case_id", outcome.ID)
		return
	}

	// Not fundraising: tell the forwarder, when there is one to tell.
	// Awaited — the notice must complete before the response.
	if facts.IsForwarded && facts.ForwarderAddress != "" {
		if err := h.trigger.NotifyNonFundraising(ctx, outcome.ID); err != nil {
			slog.Error("non-fundraising notice failed", "case_id", outcome.ID, "error", err)
		}
	}
}

// enqueueScreenshot fires the screenshot job without awaiting it. Errors are
// logged and swallowed; the request's context is not used because the
// enqueue may outlive the response.
func (h *Handler) enqueueScreenshot(caseID, url string) {
	if h.screenshots == nil {
		slog.Warn("screenshot queue not configured, skipping", "case_id", caseID)
		return
	}
	go func() {
		if err := h.screenshots.Enqueue(context.Background(), caseID, url); err != nil {
			slog.Error("screenshot enqueue failed", "case_id", caseID, "error", err)
		}
	}()
}

func logState(s state, args ...any) {
	slog.Debug("submission state", append([]any{"state", string(s)}, args...)...)
}

func writeJSON(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// Serve starts the webhook HTTP server on the given port.
// It binds the port immediately and signals readiness via the returned channel
// before starting to accept connections.
func Serve(ctx context.Context, port int, handler *Handler) (<-chan struct{}, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("/inbound/email", handler.ServeSubmission)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	server := &http.Server{
		Handler: mux,
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("bind webhook port %d: %w", port, err)
	}

	ready := make(chan struct{})

	go func() {
		<-ctx.Done()
		slog.Info("webhook server shutting down")
		server.Close()
	}()

	go func() {
		slog.Info("webhook server listening", "port", port)
		close(ready)
		if err := server.Serve(ln); err != http.ErrServerClosed {
			slog.Error("webhook server error", "error", err)
		}
	}()

	return ready, nil
}
