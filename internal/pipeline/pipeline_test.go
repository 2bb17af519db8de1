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

package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pledgewatch/ingestion/internal/models"
)

func TestIngestClient_Ingest(t *testing.T) {
	var gotAuth string
	var gotReq models.IngestRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotReq); err != nil {
			t.Errorf("request body not valid JSON: %v", err)
		}
		json.NewEncoder(w).Encode(models.IngestOutcome{
			OK:            true,
			ID:            "case-9",
			IsFundraising: true,
			LandingURL:    "https://donate.example.net",
		})
	}))
	defer srv.Close()

	c := NewIngestClient(srv.URL, "sk-test")
	outcome, err := c.Ingest(context.Background(), models.IngestRequest{
		CleanedText:     "cleaned",
		SenderAddress:   "jane@example.org",
		MessageType:     "email",
		SubmissionToken: "tok",
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q, want service-key bearer", gotAuth)
	}
	if gotReq.SenderAddress != "jane@example.org" || gotReq.MessageType != "email" {
		t.Errorf("request = %+v", gotReq)
	}
	if !outcome.OK || outcome.ID != "case-9" || !outcome.IsFundraising {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestIngestClient_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewIngestClient(srv.URL, "sk-test")
	if _, err := c.Ingest(context.Background(), models.IngestRequest{}); err == nil {
		t.Error("expected error for malformed ingest response")
	}
}

func TestTrigger_Classify(t *testing.T) {
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	tr := NewTrigger(context.Background(), TriggerConfig{ClassifyURL: srv.URL})
	if err := tr.Classify(context.Background(), "case-10"); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if gotBody["caseId"] != "case-10" {
		t.Errorf("payload = %v, want caseId case-10", gotBody)
	}
}

func TestTrigger_NotifyNonFundraising(t *testing.T) {
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
	}))
	defer srv.Close()

	tr := NewTrigger(context.Background(), TriggerConfig{NoticeURL: srv.URL})
	if err := tr.NotifyNonFundraising(context.Background(), "sub-11"); err != nil {
		t.Fatalf("NotifyNonFundraising: %v", err)
	}
	if gotBody["submissionId"] != "sub-11" {
		t.Errorf("payload = %v, want submissionId sub-11", gotBody)
	}
}

func TestTrigger_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tr := NewTrigger(context.Background(), TriggerConfig{ClassifyURL: srv.URL})
	if err := tr.Classify(context.Background(), "case-12"); err == nil {
		t.Error("expected error for non-2xx trigger response")
	}

	unset := NewTrigger(context.Background(), TriggerConfig{})
	if err := unset.Classify(context.Background(), "case-13"); err == nil {
		t.Error("expected error for unconfigured endpoint")
	}
}
