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
	"regexp"
	"strings"
)

// Search windows. The boundary must appear near the top of the body; the
// header block after a boundary is short but may carry extras (Cc,
// Reply-To), hence the 20-line window rather than a fixed offset.
const (
	boundaryWindow = 100
	headerWindow   = 20
	bareFromWindow = 50
)

var (
	// Gmail banner: a run of dashes around "Forwarded message".
	gmailBannerRe = regexp.MustCompile(`(?i)^-{2,}\s*forwarded message\s*-{2,}$`)

	// Apple Mail banner.
	appleBannerRe = regexp.MustCompile(`(?i)^begin forwarded message:?\s*$`)

	// Outlook puts no banner at all; the quoted header block itself is the
	// boundary, so a bare "From: x@y" line counts.
	outlookFromRe = regexp.MustCompile(`(?i)^from:\s*\S.*@`)

	headerLineRe = regexp.MustCompile(`(?i)^(from|date|sent|to|cc|subject|reply-to):\s*(.*)$`)

	quotePrefixRe = regexp.MustCompile(`^[>\s]+`)
)

// splitLines breaks a body into lines with leading quote markers (">") and
// whitespace stripped, so one level of reply-quoting does not hide the
// forwarding banner.
func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = strings.TrimSpace(quotePrefixRe.ReplaceAllString(l, ""))
	}
	return lines
}

// isBoundary reports whether a (stripped) line marks the start of an
// embedded, previously-sent message.
func isBoundary(line string) bool {
	return gmailBannerRe.MatchString(line) ||
		appleBannerRe.MatchString(line) ||
		outlookFromRe.MatchString(line)
}

// findBoundary scans at most the first boundaryWindow lines for a forwarding
// boundary and returns its index.
func findBoundary(lines []string) (int, bool) {
	limit := len(lines)
	if limit > boundaryWindow {
		limit = boundaryWindow
	}
	for i := 0; i < limit; i++ {
		if isBoundary(lines[i]) {
			return i, true
		}
	}
	return 0, false
}

// headerAfter searches the header block starting at the boundary for the
// first line whose header name matches one of names, and returns the
// rest-of-line value. A blank line ends the header block once inside it;
// searching beyond the block would start matching From/Date-looking lines in
// quoted reply chains further down. Apple Mail leaves a blank line between
// its banner and the headers, so blanks before the first header line are
// skipped rather than treated as end-of-block.
func headerAfter(lines []string, boundary int, names ...string) (string, bool) {
	end := boundary + headerWindow
	if end > len(lines) {
		end = len(lines)
	}
	inBlock := false
	for i := boundary; i < end; i++ {
		m := headerLineRe.FindStringSubmatch(lines[i])
		if m == nil {
			if inBlock && lines[i] == "" {
				return "", false
			}
			continue
		}
		inBlock = true
		name := strings.ToLower(m[1])
		for _, want := range names {
			if name == want {
				return strings.TrimSpace(m[2]), true
			}
		}
	}
	return "", false
}
