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

package forward

import (
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/pledgewatch/ingestion/internal/models"
)

var addressRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// RecoverFacts reconstructs the original sender and send time of a forwarded
// message from its body. honeytraps is the configured decoy address list: a
// recovered From line containing a decoy is discarded — senders quoting a
// planted address must not smuggle it past redaction as a "recovered"
// sender, and a decoy can never be a legitimate original author.
func RecoverFacts(msg models.NormalizedMessage, honeytraps []string, now time.Time) models.ForwardingFacts {
	facts := models.ForwardingFacts{
		IsForwarded: IsForwarded(msg.Subject, msg.BodyPlainText, msg.BodyHTML),
	}

	plainLines := splitLines(msg.BodyPlainText)
	var htmlLines []string
	if msg.BodyHTML != "" {
		htmlLines = splitLines(htmlToText(msg.BodyHTML))
	}

	// Boundary-scoped From recovery, plain text first.
	fromLine := recoverHeader(plainLines, "from")
	if fromLine == "" {
		fromLine = recoverHeader(htmlLines, "from")
	}
	if valid, ok := validateFromLine(fromLine, honeytraps); ok {
		facts.OriginalFromLine = valid
		facts.OriginalSenderAddress = bareAddress(valid)
	}

	// Secondary search: a From-shaped line near the top of the body, even
	// without a recognizable boundary.
	if facts.OriginalSenderAddress == "" {
		if addr := scanBareFrom(plainLines, htmlLines, honeytraps); addr != "" {
			facts.OriginalSenderAddress = addr
			if facts.OriginalFromLine == "" {
				facts.OriginalFromLine = addr
			}
		}
	}

	// A non-forwarded message's envelope sender is the true sender, and it
	// overrides anything the body scan turned up: a reply that quotes an
	// earlier From: line is not a forward, and that line is not the author.
	// A forwarded message with nothing recovered stays unknown instead —
	// backfilling with the forwarder's address would fabricate an original
	// sender.
	if !facts.IsForwarded && msg.EnvelopeSender != "" {
		facts.OriginalFromLine = msg.EnvelopeSender
		facts.OriginalSenderAddress = bareAddress(msg.EnvelopeSender)
	}

	// Original send time, same boundary-then-search procedure.
	dateLine := recoverHeader(plainLines, "date", "sent")
	if dateLine == "" {
		dateLine = recoverHeader(htmlLines, "date", "sent")
	}
	if dateLine != "" {
		facts.OriginalSentAt = ParseDate(dateLine, now)
	}

	if facts.IsForwarded && msg.EnvelopeSender != "" && !containsHoneytrap(msg.EnvelopeSender, honeytraps) {
		facts.ForwarderAddress = bareAddress(msg.EnvelopeSender)
	}

	return facts
}

// recoverHeader locates the forwarding boundary and pulls the first matching
// header value from the block after it.
func recoverHeader(lines []string, names ...string) string {
	if len(lines) == 0 {
		return ""
	}
	boundary, ok := findBoundary(lines)
	if !ok {
		return ""
	}
	value, _ := headerAfter(lines, boundary, names...)
	return value
}

// validateFromLine rejects candidates that cannot be a real From value:
// too short, no address, or carrying a configured decoy.
func validateFromLine(line string, honeytraps []string) (string, bool) {
	line = strings.TrimSpace(line)
	if len(line) <= 5 || !strings.Contains(line, "@") {
		return "", false
	}
	if containsHoneytrap(line, honeytraps) {
		return "", false
	}
	return line, true
}

// scanBareFrom looks through the first bareFromWindow lines for a line shaped
// like `From: "Name" <addr>` or `From: addr` and returns the bare address.
func scanBareFrom(plainLines, htmlLines []string, honeytraps []string) string {
	for _, lines := range [][]string{plainLines, htmlLines} {
		limit := len(lines)
		if limit > bareFromWindow {
			limit = bareFromWindow
		}
		for i := 0; i < limit; i++ {
			m := headerLineRe.FindStringSubmatch(lines[i])
			if m == nil || !strings.EqualFold(m[1], "from") {
				continue
			}
			if valid, ok := validateFromLine(m[2], honeytraps); ok {
				if addr := bareAddress(valid); addr != "" {
					return addr
				}
			}
		}
	}
	return ""
}

// bareAddress extracts the address part from a From-style value, preferring
// a strict RFC 5322 parse and falling back to a pattern match for the
// malformed display names real clients produce.
func bareAddress(fromLine string) string {
	if a, err := mail.ParseAddress(fromLine); err == nil {
		return a.Address
	}
	return addressRe.FindString(fromLine)
}

func containsHoneytrap(s string, honeytraps []string) bool {
	lower := strings.ToLower(s)
	for _, trap := range honeytraps {
		trap = strings.ToLower(strings.TrimSpace(trap))
		if trap != "" && strings.Contains(lower, trap) {
			return true
		}
	}
	return false
}
