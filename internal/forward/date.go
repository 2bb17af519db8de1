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
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Sanity window for recovered send times: anything further out is treated
// as unparseable. One day of future tolerance covers sender clock skew.
const (
	maxFutureSkew = 24 * time.Hour
	maxAge        = 365 * 24 * time.Hour
)

// looseLayouts are tried in order against each candidate string. Covers the
// Date:/Sent: formats of the major clients plus RFC 5322 header dates.
var looseLayouts = []string{
	time.RFC1123Z,                    // Mon, 02 Jan 2006 15:04:05 -0700
	time.RFC1123,                     // Mon, 02 Jan 2006 15:04:05 MST
	"Mon, 2 Jan 2006 15:04:05 -0700", // single-digit day
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700", // no day of week
	"Mon, 2 Jan 2006 15:04 -0700",
	"Mon, Jan 2, 2006 3:04 PM", // Gmail, after "at" removal
	"Mon, Jan 2, 2006 3:04:05 PM",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006, 3:04 PM",
	"January 2, 2006 3:04 PM", // Apple Mail
	"January 2, 2006 3:04:05 PM",
	"Monday, January 2, 2006 3:04 PM", // Outlook
	"Monday, January 2, 2006 3:04:05 PM",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var (
	// " at " between date and time, as Gmail writes it.
	atWordRe = regexp.MustCompile(`(?i)\s+at\s+`)

	spaceRunRe = regexp.MustCompile(`\s+`)

	// Last-resort extraction: month name, day, year, optional clock time.
	looseDateRe = regexp.MustCompile(`(?i)(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})(?:\D{0,10}(\d{1,2}):(\d{2})(?::(\d{2}))?\s*(am|pm)?)?`)
)

// ParseDate parses a free-form date string recovered from a forwarded body
// into a validated timestamp. Strategies are tried in order — direct parse,
// "at"-removed parse, regex-level reassembly — and the first parse wins.
// The winning result is rejected (nil) when outside [now-365d, now+1d].
// Never returns an error; an unparseable string yields nil and the caller
// falls back to the ingestion timestamp.
func ParseDate(raw string, now time.Time) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	candidates := []string{
		spaceRunRe.ReplaceAllString(raw, " "),
		spaceRunRe.ReplaceAllString(atWordRe.ReplaceAllString(raw, " "), " "),
	}
	if reassembled, ok := reassembleLooseDate(raw); ok {
		candidates = append(candidates, reassembled)
	}

	for _, c := range candidates {
		for _, layout := range looseLayouts {
			t, err := time.Parse(layout, c)
			if err != nil {
				continue
			}
			return validate(t, now)
		}
	}
	return nil
}

func validate(t time.Time, now time.Time) *time.Time {
	if t.After(now.Add(maxFutureSkew)) || t.Before(now.Add(-maxAge)) {
		return nil
	}
	return &t
}

// reassembleLooseDate pulls a month/day/year triple (plus optional time) out
// of an otherwise unparseable string and rebuilds it in a known layout.
func reassembleLooseDate(raw string) (string, bool) {
	m := looseDateRe.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}

	month := strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:])
	out := fmt.Sprintf("%s %s, %s", month, m[2], m[3])
	if m[4] == "" {
		// time.Parse needs a time component for these layouts; midnight is
		// the conventional stand-in when only a calendar date survives.
		return out + " 12:00 AM", true
	}

	if m[7] != "" {
		if m[6] != "" {
			return fmt.Sprintf("%s %s:%s:%s %s", out, m[4], m[5], m[6], strings.ToUpper(m[7])), true
		}
		return fmt.Sprintf("%s %s:%s %s", out, m[4], m[5], strings.ToUpper(m[7])), true
	}

	// 24-hour clock without a meridiem
	hour := m[4]
	h := 0
	fmt.Sscanf(hour, "%d", &h)
	meridiem := "AM"
	if h >= 12 {
		meridiem = "PM"
		if h > 12 {
			h -= 12
		}
	}
	if h == 0 {
		h = 12
	}
	if m[6] != "" {
		return fmt.Sprintf("%s %d:%s:%s %s", out, h, m[5], m[6], meridiem), true
	}
	return fmt.Sprintf("%s %d:%s %s", out, h, m[5], meridiem), true
}
