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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2/clientcredentials"
)

// Trigger fires the synchronous downstream pipelines: the
// classification+sender-extraction run after a fundraising ingest, and the
// non-fundraising notice to the forwarder. Both are awaited by the caller;
// failures are logged there and never retried here.
type Trigger struct {
	client      *http.Client
	classifyURL string
	noticeURL   string
}

// TriggerConfig carries the endpoints and optional OAuth2 client-credentials
// settings for the pipeline services.
type TriggerConfig struct {
	ClassifyURL  string
	NoticeURL    string
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// NewTrigger builds a pipeline trigger client. When client credentials are
// configured the HTTP client refreshes bearer tokens itself; otherwise the
// endpoints are assumed to be network-restricted and called directly.
func NewTrigger(ctx context.Context, cfg TriggerConfig) *Trigger {
	client := &http.Client{}
	if cfg.ClientID != "" && cfg.TokenURL != "" {
		creds := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		client = creds.Client(ctx)
	}
	return &Trigger{
		client:      client,
		classifyURL: cfg.ClassifyURL,
		noticeURL:   cfg.NoticeURL,
	}
}

// Classify starts the classification+sender-extraction pipeline for an
// ingested case. Only success/failure is consumed.
func (t *Trigger) Classify(ctx context.Context, caseID string) error {
	return t.post(ctx, t.classifyURL, map[string]string{"caseId": caseID})
}

// NotifyNonFundraising asks the notice service to tell the forwarder their
// submission was not classified as fundraising.
func (t *Trigger) NotifyNonFundraising(ctx context.Context, submissionID string) error {
	return t.post(ctx, t.noticeURL, map[string]string{"submissionId": submissionID})
}

func (t *Trigger) post(ctx context.Context, url string, payload map[string]string) error {
	if url == "" {
		return fmt.Errorf("pipeline endpoint not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal trigger payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("trigger request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("trigger %s returned status %d", url, resp.StatusCode)
	}
	return nil
}
