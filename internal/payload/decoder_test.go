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

package payload

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pledgewatch/ingestion/internal/models"
)

var logicalFields = map[string]string{
	"sender":          "fwd@example.com",
	"subject":         "Fwd: Help us win",
	"body-plain":      "plain body",
	"body-html":       "<p>html body</p>",
	"message-headers": `[["From","fwd@example.com"]]`,
}

var wantMessage = models.NormalizedMessage{
	EnvelopeSender: "fwd@example.com",
	Subject:        "Fwd: Help us win",
	BodyPlainText:  "plain body",
	BodyHTML:       "<p>html body</p>",
	RawHeaderBlock: `[["From","fwd@example.com"]]`,
}

// TestDecode_EncodingInvariance verifies that the same logical fields decode
// identically regardless of which supported encoding carried them.
func TestDecode_EncodingInvariance(t *testing.T) {
	form := url.Values{}
	for k, v := range logicalFields {
		form.Set(k, v)
	}

	var multipartBody bytes.Buffer
	mw := multipart.NewWriter(&multipartBody)
	for k, v := range logicalFields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write multipart field: %v", err)
		}
	}
	mw.Close()

	jsonBody, err := json.Marshal(logicalFields)
	if err != nil {
		t.Fatalf("marshal json body: %v", err)
	}

	tests := []struct {
		name        string
		contentType string
		body        []byte
	}{
		{"urlencoded", "application/x-www-form-urlencoded", []byte(form.Encode())},
		{"multipart", mw.FormDataContentType(), multipartBody.Bytes()},
		{"json", "application/json", jsonBody},
		{"unlabeled best-effort", "", []byte(form.Encode())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.contentType, tt.body)
			if diff := cmp.Diff(wantMessage, got); diff != "" {
				t.Errorf("Decode mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestDecode_FieldAliases verifies the per-field alias priority lists.
func TestDecode_FieldAliases(t *testing.T) {
	tests := []struct {
		name string
		body string
		want models.NormalizedMessage
	}{
		{
			name: "from alias for sender",
			body: "from=alt%40example.com&Subject=hi&stripped-text=sbody",
			want: models.NormalizedMessage{
				EnvelopeSender: "alt@example.com",
				Subject:        "hi",
				BodyPlainText:  "sbody",
			},
		},
		{
			name: "priority: sender beats from",
			body: "sender=first%40example.com&from=second%40example.com",
			want: models.NormalizedMessage{EnvelopeSender: "first@example.com"},
		},
		{
			name: "text and html fallbacks",
			body: "text=plain&html=%3Cb%3Eh%3C%2Fb%3E",
			want: models.NormalizedMessage{
				BodyPlainText: "plain",
				BodyHTML:      "<b>h</b>",
			},
		},
		{
			name: "empty alias value skipped",
			body: "sender=&from=real%40example.com",
			want: models.NormalizedMessage{EnvelopeSender: "real@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode("application/x-www-form-urlencoded", []byte(tt.body))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestDecode_Degraded verifies that malformed bodies never fail, only
// degrade.
func TestDecode_Degraded(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        []byte
	}{
		{"invalid json", "application/json", []byte("{not json")},
		{"json with non-string values", "application/json", []byte(`{"sender":42,"subject":{"a":1}}`)},
		{"multipart without boundary", "multipart/form-data", []byte("garbage")},
		{"empty body", "application/x-www-form-urlencoded", nil},
		{"binary noise", "", []byte{0x00, 0xff, 0x13}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.contentType, tt.body)
			if got.EnvelopeSender != "" || got.Subject != "" || got.BodyPlainText != "" || got.BodyHTML != "" {
				t.Errorf("expected empty message, got %+v", got)
			}
		})
	}
}

// TestDecode_JSONFallsBackToForm verifies the best-effort fallback when a
// JSON-labeled body is actually URL-encoded.
func TestDecode_JSONFallsBackToForm(t *testing.T) {
	got := Decode("application/json", []byte("sender=x%40example.com"))
	if got.EnvelopeSender != "x@example.com" {
		t.Errorf("EnvelopeSender = %q, want %q", got.EnvelopeSender, "x@example.com")
	}
}
