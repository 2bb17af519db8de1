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

// Package clean provides the pure text-cleaning and HTML-sanitizing
// functions applied to message bodies before storage. Both are
// deterministic text-to-text transforms with no external dependencies.
package clean

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Zero-width code points planted to defeat naive string matching: ZWSP,
// ZWNJ, ZWJ, word joiner, and the BOM used as a zero-width no-break space.
var (
	zeroWidthRe  = regexp.MustCompile("[\\x{200B}\\x{200C}\\x{200D}\\x{2060}\\x{FEFF}]")
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
	trailingWSRe = regexp.MustCompile(`[ \t]+\n`)
)

// unsafeSelector matches nodes that execute, load, or submit — none of which
// belong in a stored solicitation body.
const unsafeSelector = "script, style, iframe, frame, object, embed, form, link, meta, base"

// Text removes tracking artifacts from a plain-text body: zero-width
// characters (commonly planted to defeat naive string matching), non-breaking
// spaces, CRLF line endings, trailing whitespace, and runs of blank lines.
func Text(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = zeroWidthRe.ReplaceAllString(s, "")
	s = trailingWSRe.ReplaceAllString(s, "\n")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// HTML strips unsafe markup from an HTML body: active content, inline event
// handlers, and javascript: URLs. Layout markup passes through so the stored
// copy still renders. Returns "" when the input cannot be parsed at all.
func HTML(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return ""
	}

	doc.Find(unsafeSelector).Remove()

	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		for _, node := range sel.Nodes {
			node.Attr = sanitizeAttrs(node.Attr)
		}
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func sanitizeAttrs(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if strings.HasPrefix(key, "on") {
			continue
		}
		if (key == "href" || key == "src" || key == "action") &&
			strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Val)), "javascript:") {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}
