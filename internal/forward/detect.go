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

// Package forward decides whether an inbound message is a forward and
// recovers the original sender and send time from the forwarded body.
// Every mail client stamps forwards differently, so recovery works off a
// small ordered set of matchers over a line-oriented view of the text.
package forward

import "strings"

// IsForwarded reports whether the message looks like a user-forwarded copy.
//
// This is a heuristic: a forward that preserves none of the usual markers
// (e.g. manually retyped) is missed, and a subject that merely contains
// "fw:" incidentally false-positives. Both are accepted limitations.
func IsForwarded(subject, plainBody, htmlBody string) bool {
	s := strings.ToLower(subject)
	if strings.HasPrefix(s, "fwd:") || strings.Contains(s, "fw:") {
		return true
	}
	for _, body := range []string{plainBody, htmlBody} {
		if body == "" {
			continue
		}
		b := strings.ToLower(body)
		if strings.Contains(b, "forwarded message") || strings.Contains(b, "begin forwarded message") {
			return true
		}
	}
	return false
}
