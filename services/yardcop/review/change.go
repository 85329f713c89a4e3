// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package review

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/AleutianAI/yardcop/services/yardcop/lint"
)

// ErrFileChanged is returned by Apply when a file was modified on disk
// after its change was proposed.
var ErrFileChanged = errors.New("file changed since review")

// =============================================================================
// Diff lines and hunks
// =============================================================================

// LineKind classifies a diff line.
type LineKind string

const (
	LineContext LineKind = " "
	LineAdded   LineKind = "+"
	LineRemoved LineKind = "-"
)

// Line is one line of a hunk. OldNum and NewNum are 1-based; zero means
// the line does not exist on that side.
type Line struct {
	Kind   LineKind
	Text   string
	OldNum int
	NewNum int
}

// Hunk is a contiguous group of changed lines with surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// Header returns the unified diff hunk header.
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
}

// splitLines splits content into lines without their terminators. A
// trailing newline does not produce an empty last line.
func splitLines(content []byte) []string {
	s := strings.TrimSuffix(string(content), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Hunks computes the line diff between old and updated with the given
// number of context lines.
func Hunks(old, updated []byte, contextLines int) []Hunk {
	a, b := splitLines(old), splitLines(updated)
	matcher := difflib.NewMatcher(a, b)

	var hunks []Hunk
	for _, group := range matcher.GetGroupedOpCodes(contextLines) {
		first, last := group[0], group[len(group)-1]
		h := Hunk{
			OldStart: first.I1 + 1,
			OldCount: last.I2 - first.I1,
			NewStart: first.J1 + 1,
			NewCount: last.J2 - first.J1,
		}
		for _, op := range group {
			switch op.Tag {
			case 'e':
				for i, j := op.I1, op.J1; i < op.I2; i, j = i+1, j+1 {
					h.Lines = append(h.Lines, Line{Kind: LineContext, Text: a[i], OldNum: i + 1, NewNum: j + 1})
				}
			case 'r', 'd', 'i':
				for i := op.I1; i < op.I2; i++ {
					h.Lines = append(h.Lines, Line{Kind: LineRemoved, Text: a[i], OldNum: i + 1})
				}
				for j := op.J1; j < op.J2; j++ {
					h.Lines = append(h.Lines, Line{Kind: LineAdded, Text: b[j], NewNum: j + 1})
				}
			}
		}
		hunks = append(hunks, h)
	}
	return hunks
}

// =============================================================================
// Proposed changes
// =============================================================================

// Change is the autocorrection proposed for one file.
type Change struct {
	Path     string
	Original []byte
	Proposed []byte

	// Corrected lists the offenses the proposal fixes.
	Corrected []lint.Offense

	Hunks []Hunk
}

// LineStats counts added and removed lines over all hunks.
func (c *Change) LineStats() (added, removed int) {
	for _, h := range c.Hunks {
		for _, l := range h.Lines {
			switch l.Kind {
			case LineAdded:
				added++
			case LineRemoved:
				removed++
			}
		}
	}
	return added, removed
}

// Propose lints files with an autocorrecting runner and returns one
// Change per file the runner would modify. Nothing is written.
//
// Description:
//
//	runner must have been built with lint.WithAutocorrect(true). Files
//	that cannot be read or parsed are skipped; their errors are joined
//	into the returned error.
func Propose(ctx context.Context, runner *lint.Runner, files []string, contextLines int) ([]*Change, error) {
	var (
		changes []*Change
		errs    []error
	)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return changes, err
		}
		original, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("reading %s: %w", path, err))
			continue
		}
		result, proposed, err := runner.LintContent(ctx, original, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if bytes.Equal(original, proposed) {
			continue
		}
		change := &Change{
			Path:     path,
			Original: original,
			Proposed: proposed,
			Hunks:    Hunks(original, proposed, contextLines),
		}
		for _, o := range result.Offenses {
			if o.Corrected {
				change.Corrected = append(change.Corrected, o)
			}
		}
		changes = append(changes, change)
	}
	return changes, errors.Join(errs...)
}

// =============================================================================
// Decisions
// =============================================================================

// Decision is the reviewer's verdict on one file.
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
	DecisionSkipped  Decision = "skipped"
)

// IsTerminal reports whether the file needs no further review.
func (d Decision) IsTerminal() bool {
	return d == DecisionAccepted || d == DecisionRejected || d == DecisionSkipped
}

// Result is the outcome of a review session.
type Result struct {
	Decisions map[string]Decision
	Cancelled bool
}

// NewResult creates an empty result.
func NewResult() *Result {
	return &Result{Decisions: make(map[string]Decision)}
}

// Accepted returns the accepted paths, sorted.
func (r *Result) Accepted() []string {
	var out []string
	for path, d := range r.Decisions {
		if d == DecisionAccepted {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// Apply writes the proposed content of every accepted change.
//
// Description:
//
//	A cancelled review applies nothing. Each file is re-read first and
//	left alone, with ErrFileChanged joined into the error, when it no
//	longer matches the content the proposal was built from.
//
// Outputs:
//
//	[]string - Paths written.
//	error    - Joined per-file failures, or nil.
func Apply(changes []*Change, result *Result) ([]string, error) {
	if result == nil || result.Cancelled {
		return nil, nil
	}

	var (
		written []string
		errs    []error
	)
	for _, change := range changes {
		if result.Decisions[change.Path] != DecisionAccepted {
			continue
		}
		info, err := os.Stat(change.Path)
		if err != nil {
			errs = append(errs, fmt.Errorf("stat %s: %w", change.Path, err))
			continue
		}
		current, err := os.ReadFile(change.Path)
		if err != nil {
			errs = append(errs, fmt.Errorf("reading %s: %w", change.Path, err))
			continue
		}
		if !bytes.Equal(current, change.Original) {
			errs = append(errs, fmt.Errorf("%w: %s", ErrFileChanged, change.Path))
			continue
		}
		if err := os.WriteFile(change.Path, change.Proposed, info.Mode()); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", change.Path, err))
			continue
		}
		slog.Debug("applied reviewed correction", slog.String("file", change.Path), slog.Int("corrected", len(change.Corrected)))
		written = append(written, change.Path)
	}
	return written, errors.Join(errs...)
}
