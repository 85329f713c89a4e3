// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lint

import (
	"testing"
)

func TestEditsConflict(t *testing.T) {
	tests := []struct {
		name string
		a, b Edit
		want bool
	}{
		{"two insertions same point", Edit{Start: 3, End: 3}, Edit{Start: 3, End: 3}, false},
		{"insertion at replacement start", Edit{Start: 3, End: 3}, Edit{Start: 3, End: 6}, true},
		{"insertion at replacement end", Edit{Start: 6, End: 6}, Edit{Start: 3, End: 6}, false},
		{"insertion inside", Edit{Start: 4, End: 4}, Edit{Start: 3, End: 6}, true},
		{"adjacent ranges", Edit{Start: 0, End: 3}, Edit{Start: 3, End: 6}, false},
		{"overlapping ranges", Edit{Start: 0, End: 4}, Edit{Start: 3, End: 6}, true},
		{"nested ranges", Edit{Start: 0, End: 10}, Edit{Start: 3, End: 6}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := editsConflict(tt.a, tt.b); got != tt.want {
				t.Errorf("editsConflict(%+v, %+v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := editsConflict(tt.b, tt.a); got != tt.want {
				t.Errorf("editsConflict is not symmetric for %s", tt.name)
			}
		})
	}
}

func TestApplyEdits(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		edits       []Edit
		want        string
		wantSkipped int
	}{
		{
			name:    "no edits",
			content: "abc",
			want:    "abc",
		},
		{
			name:    "replace and insert back to front",
			content: "hello world",
			edits: []Edit{
				{Start: 0, End: 5, Text: "HELLO"},
				{Start: 11, End: 11, Text: "!"},
			},
			want: "HELLO world!",
		},
		{
			name:    "insertions at same point keep order",
			content: "x",
			edits: []Edit{
				{Start: 0, End: 0, Text: "a"},
				{Start: 0, End: 0, Text: "b"},
			},
			want: "abx",
		},
		{
			name:    "overlap skipped",
			content: "abcdef",
			edits: []Edit{
				{Start: 1, End: 4, Text: "X"},
				{Start: 2, End: 5, Text: "Y"},
			},
			want:        "aXef",
			wantSkipped: 1,
		},
		{
			name:    "out of range skipped",
			content: "abc",
			edits: []Edit{
				{Start: 2, End: 9, Text: "Z"},
			},
			want:        "abc",
			wantSkipped: 1,
		},
		{
			name:    "remove",
			content: "a.",
			edits:   []Edit{{Start: 1, End: 2}},
			want:    "a",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := []byte(tt.content)
			got, _, skipped := ApplyEdits(original, tt.edits)
			if string(got) != tt.want {
				t.Errorf("ApplyEdits = %q, want %q", got, tt.want)
			}
			if skipped != tt.wantSkipped {
				t.Errorf("skipped = %d, want %d", skipped, tt.wantSkipped)
			}
			if string(original) != tt.content {
				t.Errorf("input modified: %q", original)
			}
		})
	}
}

func TestCorrector(t *testing.T) {
	c := &Corrector{cop: "Test/Cop"}
	c.InsertBefore(rangeAt(2, 4), "<")
	c.Remove(rangeAt(0, 1))
	c.Remove(rangeAt(5, 6))
	c.InsertBefore(rangeAt(1, 1), "")

	edits := c.edits
	if len(edits) != 3 {
		t.Fatalf("got %d edits, want 3 (empty insertion dropped)", len(edits))
	}
	got, _, skipped := ApplyEdits([]byte("abcdef"), edits)
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if string(got) != "b<cde" {
		t.Errorf("result = %q, want %q", got, "b<cde")
	}
	for _, e := range edits {
		if e.Cop != "Test/Cop" {
			t.Errorf("edit cop = %q", e.Cop)
		}
	}
}

func TestApplyFixes_WholeFixOrNothing(t *testing.T) {
	offenses := []Offense{
		{fix: []Edit{{Start: 0, End: 2, Text: "AB"}}},
		{},
		{fix: []Edit{{Start: 4, End: 5, Text: "E"}, {Start: 1, End: 3, Text: "??"}}},
		{fix: []Edit{{Start: 5, End: 6, Text: "F"}}},
	}

	got, fixed := applyFixes([]byte("abcdef"), offenses)
	if string(got) != "ABcdeF" {
		t.Errorf("content = %q, want %q", got, "ABcdeF")
	}
	if len(fixed) != 2 || fixed[0] != 0 || fixed[1] != 3 {
		t.Errorf("fixed = %v, want [0 3]", fixed)
	}
}
