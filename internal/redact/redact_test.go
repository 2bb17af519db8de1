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

package redact

import (
	"strings"
	"testing"
)

func TestScrub(t *testing.T) {
	r := New(
		[]string{"decoy@trap.example.org", "second+plus@trap.example.org"},
		[]string{"HT-12345"},
	)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "email replaced everywhere",
			in:   "write to decoy@trap.example.org or Decoy@Trap.Example.Org today",
			want: "write to " + EmailPlaceholder + " or " + EmailPlaceholder + " today",
		},
		{
			name: "pattern-special characters treated literally",
			in:   "cc second+plus@trap.example.org",
			want: "cc " + EmailPlaceholder,
		},
		{
			name: "tracking id replaced",
			in:   "ref ht-12345 in the footer",
			want: "ref " + IDPlaceholder + " in the footer",
		},
		{
			name: "clean text untouched",
			in:   "nothing to hide here",
			want: "nothing to hide here",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Scrub(tt.in); got != tt.want {
				t.Errorf("Scrub(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestScrub_Idempotent verifies that redacting already-redacted text is a
// no-op.
func TestScrub_Idempotent(t *testing.T) {
	r := New([]string{"decoy@trap.example.org"}, []string{"HT-12345"})

	once := r.Scrub("decoy@trap.example.org spotted, id HT-12345")
	twice := r.Scrub(once)

	if once != twice {
		t.Errorf("second Scrub changed output: %q -> %q", once, twice)
	}
}

// TestScrub_NoSurvivingOccurrence is the decoy-protection guarantee: no
// honeytrap survives in any case variant.
func TestScrub_NoSurvivingOccurrence(t *testing.T) {
	traps := []string{"decoy@trap.example.org"}
	r := New(traps, nil)

	inputs := []string{
		"decoy@trap.example.org",
		"DECOY@TRAP.EXAMPLE.ORG",
		"prefix decoy@trap.example.orgsuffix",
		"From: Decoy <decoy@trap.example.org>\nFrom: Decoy <decoy@trap.example.org>",
	}
	for _, in := range inputs {
		got := r.Scrub(in)
		if strings.Contains(strings.ToLower(got), "decoy@trap.example.org") {
			t.Errorf("honeytrap survived in %q", got)
		}
	}
}

func TestScrub_EmptyConfigIsNoOp(t *testing.T) {
	r := New(nil, nil)
	in := "decoy@trap.example.org stays when nothing is configured"
	if got := r.Scrub(in); got != in {
		t.Errorf("Scrub with empty config = %q, want input unchanged", got)
	}
}
