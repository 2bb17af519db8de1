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

// Package models defines the data structures shared across the intake service.
package models

import "time"

// NormalizedMessage is the canonical shape of one decoded webhook payload.
// The header block describes the forwarding transmission, not the original
// message — the original sender and send time live (if anywhere) inside the
// body and are recovered separately as ForwardingFacts.
type NormalizedMessage struct {
	EnvelopeSender string
	Subject        string
	BodyPlainText  string
	BodyHTML       string
	RawHeaderBlock string
}

// ForwardingFacts holds what could be reconstructed about the original
// (pre-forward) message. Fields are empty/nil when recovery failed; a
// forwarded message with no recoverable sender stays unknown rather than
// being backfilled with the forwarder's address.
type ForwardingFacts struct {
	IsForwarded           bool
	OriginalFromLine      string
	OriginalSenderAddress string
	OriginalSentAt        *time.Time

	// ForwarderAddress is set only for forwarded messages whose envelope
	// sender is not a configured decoy address.
	ForwarderAddress string
}

// IngestRequest is the record handed to the ingestion service.
//
// This struct's JSON serialisation MUST match the ingestion service's
// submission contract; field names are consumed verbatim by the storage
// layer.
type IngestRequest struct {
	CleanedText       string     `json:"cleanedText"`
	RawText           string     `json:"rawText"`
	SenderAddress     string     `json:"senderAddress"`
	MessageType       string     `json:"messageType"`
	EmailSubject      string     `json:"emailSubject"`
	SanitizedHTMLBody string     `json:"sanitizedHtmlBody,omitempty"`
	OriginalHTMLBody  string     `json:"originalHtmlBody,omitempty"`
	OriginalFromLine  string     `json:"originalFromLine,omitempty"`
	ForwarderAddress  string     `json:"forwarderAddress,omitempty"`
	SubmissionToken   string     `json:"submissionToken"`
	OriginalSentAt    *time.Time `json:"originalSentAt,omitempty"`
}

// IngestOutcome is the ingestion service's verdict on a submission. The
// intake core only reads it to pick an orchestration branch.
type IngestOutcome struct {
	OK             bool   `json:"ok"`
	ID             string `json:"id,omitempty"`
	Duplicate      bool   `json:"duplicate,omitempty"`
	IsFundraising  bool   `json:"isFundraising,omitempty"`
	LandingURL     string `json:"landingUrl,omitempty"`
	HeuristicLabel string `json:"heuristicLabel,omitempty"`
}
