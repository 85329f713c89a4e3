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
	"sort"

	"github.com/AleutianAI/yardcop/services/yardcop/ast"
)

// MaxCorrectionIterations bounds the lint-and-correct loop.
const MaxCorrectionIterations = 10

// Edit replaces the bytes [Start, End) with Text. Start == End is an
// insertion.
type Edit struct {
	Start int
	End   int
	Text  string
	Cop   string
}

// IsInsertion reports whether the edit removes nothing.
func (e Edit) IsInsertion() bool {
	return e.Start == e.End
}

// Corrector collects the edits of one fix. Edits are never applied in
// place; ApplyEdits does that once per pass.
type Corrector struct {
	cop   string
	edits []Edit
}

// InsertBefore inserts text at the start of rng.
func (c *Corrector) InsertBefore(rng ast.Range, text string) {
	c.add(rng.Start, rng.Start, text)
}

// Remove deletes the text of rng.
func (c *Corrector) Remove(rng ast.Range) {
	c.add(rng.Start, rng.End, "")
}

func (c *Corrector) add(start, end int, text string) {
	if start > end {
		start, end = end, start
	}
	if start == end && text == "" {
		return
	}
	c.edits = append(c.edits, Edit{Start: start, End: end, Text: text, Cop: c.cop})
}

// editsConflict reports whether two edits' spans overlap.
// Spans are treated as half-open intervals [Start, End). Two insertions
// never conflict. An insertion conflicts with a non-empty span if its
// position is within that span (Start <= pos < End).
func editsConflict(a, b Edit) bool {
	if a.IsInsertion() && b.IsInsertion() {
		return false
	}
	if a.IsInsertion() {
		return b.Start <= a.Start && a.Start < b.End
	}
	if b.IsInsertion() {
		return a.Start <= b.Start && b.Start < a.End
	}
	return a.Start < b.End && b.Start < a.End
}

// ApplyEdits applies non-conflicting edits to content.
//
// Description:
//
//	Edits are ordered by start, end and submission order. An edit that
//	conflicts with one already accepted, or that falls outside content,
//	is skipped and left for the next pass. Accepted edits are applied
//	back to front so offsets stay valid. Insertions at the same position
//	keep their submission order in the output.
//
// Inputs:
//
//	content - Original bytes. Not modified.
//	edits   - Edits against content.
//
// Outputs:
//
//	[]byte - The corrected content (a copy).
//	[]Edit - The accepted edits in application order.
//	int    - Number of skipped edits.
func ApplyEdits(content []byte, edits []Edit) ([]byte, []Edit, int) {
	type ordered struct {
		Edit
		seq int
	}
	sorted := make([]ordered, len(edits))
	for i, e := range edits {
		sorted[i] = ordered{Edit: e, seq: i}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		if sorted[i].End != sorted[j].End {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].seq < sorted[j].seq
	})

	accepted := make([]Edit, 0, len(sorted))
	skipped := 0
	for _, cand := range sorted {
		if cand.Start < 0 || cand.End > len(content) || cand.Start > cand.End {
			skipped++
			continue
		}
		conflict := false
		for _, prev := range accepted {
			if editsConflict(prev, cand.Edit) {
				conflict = true
				break
			}
		}
		if conflict {
			skipped++
			continue
		}
		accepted = append(accepted, cand.Edit)
	}

	out := append([]byte(nil), content...)
	for i := len(accepted) - 1; i >= 0; i-- {
		e := accepted[i]
		suffix := append([]byte(nil), out[e.End:]...)
		out = append(append(out[:e.Start], e.Text...), suffix...)
	}
	return out, accepted, skipped
}

// applyFixes applies whole fixes in offense order. A fix is accepted only
// when none of its edits conflict with an edit of an accepted fix; the
// indexes of offenses whose fix was applied are returned.
func applyFixes(content []byte, offenses []Offense) ([]byte, []int) {
	var accepted []Edit
	var fixed []int

	for i, o := range offenses {
		if len(o.fix) == 0 {
			continue
		}
		ok := true
		for _, e := range o.fix {
			if e.Start < 0 || e.End > len(content) {
				ok = false
				break
			}
			for _, prev := range accepted {
				if editsConflict(prev, e) {
					ok = false
					break
				}
			}
			if !ok {
				break
			}
		}
		if !ok {
			continue
		}
		accepted = append(accepted, o.fix...)
		fixed = append(fixed, i)
	}

	if len(accepted) == 0 {
		return content, nil
	}
	out, _, _ := ApplyEdits(content, accepted)
	return out, fixed
}
