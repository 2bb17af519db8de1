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

// Package pipeline holds the clients for the external collaborators the
// intake core hands off to: the ingestion service, the downstream analysis
// triggers, and the screenshot job queue. No retries and no timeouts live
// here — both are the collaborators'/transport's concern.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pledgewatch/ingestion/internal/models"
)

// IngestClient submits normalized, redacted records to the ingestion
// service, which owns persistence, duplicate detection, and the fundraising
// classification heuristic.
type IngestClient struct {
	client     *http.Client
	url        string
	serviceKey string
}

// NewIngestClient creates a client for the ingestion service endpoint,
// authenticating with the storage service key.
func NewIngestClient(url, serviceKey string) *IngestClient {
	return &IngestClient{
		client:     &http.Client{},
		url:        url,
		serviceKey: serviceKey,
	}
}

// Ingest posts a submission and decodes the service's verdict. A transport
// or decode failure is an error; a well-formed negative verdict (ok=false)
// is returned as-is for the orchestrator to map.
func (c *IngestClient) Ingest(ctx context.Context, req models.IngestRequest) (*models.IngestOutcome, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal ingest request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ingest request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.serviceKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ingest request: %w", err)
	}
	defer resp.Body.Close()

	var outcome models.IngestOutcome
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		return nil, fmt.Errorf("decode ingest response (status %d): %w", resp.StatusCode, err)
	}
	return &outcome, nil
}
