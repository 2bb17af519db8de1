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

// Package payload normalizes heterogeneous email-forwarding webhook bodies
// into a flat NormalizedMessage. The upstream provider gives no schema
// guarantee: the same logical field arrives under different key names and
// the body may be URL-encoded, multipart, JSON, or unlabeled. Decoding never
// fails — a malformed body degrades to empty fields.
package payload

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/pledgewatch/ingestion/internal/models"
)

// Alias lists per logical field, in priority order: first non-empty wins.
var (
	senderKeys  = []string{"sender", "from", "From"}
	subjectKeys = []string{"subject", "Subject"}
	plainKeys   = []string{"body-plain", "stripped-text", "text"}
	htmlKeys    = []string{"body-html", "stripped-html", "html"}
	headerKeys  = []string{"message-headers"}
)

// maxPartBytes bounds how much of any single multipart part is read.
const maxPartBytes = 10 << 20

// Decode turns a raw webhook body into a NormalizedMessage. The declared
// content type selects the decoder; anything unrecognized gets a best-effort
// URL-encoded parse. Total parse failure yields a message with all fields
// empty, never an error.
func Decode(contentType string, body []byte) models.NormalizedMessage {
	fields := decodeFields(contentType, body)
	return models.NormalizedMessage{
		EnvelopeSender: firstOf(fields, senderKeys),
		Subject:        firstOf(fields, subjectKeys),
		BodyPlainText:  firstOf(fields, plainKeys),
		BodyHTML:       firstOf(fields, htmlKeys),
		RawHeaderBlock: firstOf(fields, headerKeys),
	}
}

func decodeFields(contentType string, body []byte) map[string]string {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}

	switch {
	case mediaType == "application/x-www-form-urlencoded":
		return formFields(body)
	case strings.HasPrefix(mediaType, "multipart/"):
		if fields, err := multipartFields(body, params["boundary"]); err == nil {
			return fields
		}
		return formFields(body)
	case mediaType == "application/json":
		if fields, err := jsonFields(body); err == nil {
			return fields
		}
		return formFields(body)
	default:
		// Best-effort: some providers omit or mislabel the content type
		// but still send URL-encoded pairs.
		return formFields(body)
	}
}

// formFields parses URL-encoded pairs, keeping whatever parsed before the
// first malformed pair.
func formFields(body []byte) map[string]string {
	values, _ := url.ParseQuery(string(body))
	fields := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			fields[k] = vs[0]
		}
	}
	return fields
}

func multipartFields(body []byte, boundary string) (map[string]string, error) {
	if boundary == "" {
		return nil, mime.ErrInvalidMediaParameter
	}

	fields := make(map[string]string)
	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep the parts read so far if any, otherwise report the error
			// so the caller falls back to the URL-encoded path.
			if len(fields) > 0 {
				return fields, nil
			}
			return nil, err
		}

		name := part.FormName()
		if name == "" {
			continue
		}
		value, err := io.ReadAll(io.LimitReader(part, maxPartBytes))
		if err != nil {
			continue
		}
		if _, seen := fields[name]; !seen {
			fields[name] = string(value)
		}
	}
	return fields, nil
}

// jsonFields flattens a top-level JSON object. Only string values count; a
// nested object or number under a recognized key is treated as absent.
func jsonFields(body []byte) (map[string]string, error) {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(obj))
	for k, v := range obj {
		if s, ok := v.(string); ok {
			fields[k] = s
		}
	}
	return fields, nil
}

func firstOf(fields map[string]string, keys []string) string {
	for _, k := range keys {
		if v := fields[k]; v != "" {
			return v
		}
	}
	return ""
}
