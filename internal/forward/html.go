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

	"github.com/PuerkitoBio/goquery"
)

var (
	brRe         = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockCloseRe = regexp.MustCompile(`(?i)</(p|div|tr|li|h[1-6]|blockquote)>`)
)

// htmlToText renders an HTML body to plain text with line structure intact,
// so the same line-oriented matchers used on plain bodies apply. goquery's
// Text() alone runs block contents together, hence the <br>/block-close to
// newline rewrite before parsing. Entities are decoded by the parser.
func htmlToText(htmlBody string) string {
	replaced := brRe.ReplaceAllString(htmlBody, "\n")
	replaced = blockCloseRe.ReplaceAllString(replaced, "\n")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(replaced))
	if err != nil {
		return ""
	}

	text := doc.Text()
	return strings.ReplaceAll(text, "\u00a0", " ")
}
