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

// Package redact scrubs operator-planted decoy ("honeytrap") identifiers
// from text before it leaves the intake core. The raw audit copy is the one
// exception and never passes through here.
package redact

import (
	"regexp"
	"strings"
)

// Placeholders are fixed strings containing no honeytrap material, which
// makes scrubbing idempotent. The email placeholder keeps the shape of an
// address (downstream parsers expect one) on a reserved TLD.
const (
	EmailPlaceholder = "redacted@removed.invalid"
	IDPlaceholder    = "[redacted-id]"
)

// Redactor replaces configured honeytrap emails and tracking ids,
// case-insensitively and at every occurrence. Immutable after construction;
// safe for concurrent use across requests.
type Redactor struct {
	emails []*regexp.Regexp
	ids    []*regexp.Regexp
}

// New builds a Redactor from the configured honeytrap lists. Empty lists are
// legal and make Scrub a no-op; the caller is expected to have warned about
// that at config load.
func New(emails, ids []string) *Redactor {
	return &Redactor{
		emails: compileLiterals(emails),
		ids:    compileLiterals(ids),
	}
}

func compileLiterals(values []string) []*regexp.Regexp {
	var res []*regexp.Regexp
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		res = append(res, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(v)))
	}
	return res
}

// Scrub returns text with every honeytrap occurrence replaced.
func (r *Redactor) Scrub(text string) string {
	if text == "" {
		return text
	}
	for _, re := range r.emails {
		text = re.ReplaceAllLiteralString(text, EmailPlaceholder)
	}
	for _, re := range r.ids {
		text = re.ReplaceAllLiteralString(text, IDPlaceholder)
	}
	return text
}
