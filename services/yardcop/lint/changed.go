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
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// ChangedLines records the added lines of a unified diff, per file.
type ChangedLines struct {
	files map[string]map[int]bool
}

// ParseChangedLines reads a unified (git) diff.
//
// Description:
//
//	Only lines added on the new side count. Deleted files are ignored and
//	"a/" / "b/" prefixes are stripped from names.
//
// Outputs:
//
//	*ChangedLines - Added lines keyed by slash-separated path.
//	error         - Non-nil if the diff cannot be parsed.
func ParseChangedLines(patch []byte) (*ChangedLines, error) {
	fileDiffs, err := diff.NewMultiFileDiffReader(bytes.NewReader(patch)).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	cl := &ChangedLines{files: make(map[string]map[int]bool)}
	for _, fd := range fileDiffs {
		name := diffPath(fd.NewName)
		if name == "" {
			continue
		}
		lines := cl.files[name]
		if lines == nil {
			lines = make(map[int]bool)
			cl.files[name] = lines
		}
		for _, h := range fd.Hunks {
			addHunkLines(lines, h)
		}
	}
	return cl, nil
}

func diffPath(name string) string {
	if name == "" || name == "/dev/null" {
		return ""
	}
	name = strings.TrimPrefix(name, "b/")
	return filepath.ToSlash(filepath.Clean(name))
}

func addHunkLines(lines map[int]bool, h *diff.Hunk) {
	line := int(h.NewStartLine)
	body := strings.TrimSuffix(string(h.Body), "\n")
	for _, text := range strings.Split(body, "\n") {
		if text == "" {
			line++
			continue
		}
		switch text[0] {
		case '+':
			lines[line] = true
			line++
		case '-', '\\':
		default:
			line++
		}
	}
}

// Files returns the paths present in the diff.
func (c *ChangedLines) Files() []string {
	out := make([]string, 0, len(c.files))
	for name := range c.files {
		out = append(out, name)
	}
	return out
}

// lookup finds the diff entry for path, matching on path suffix so that
// "./lib/a.rb" and "/repo/lib/a.rb" both find "lib/a.rb".
func (c *ChangedLines) lookup(path string) (map[int]bool, bool) {
	p := filepath.ToSlash(filepath.Clean(path))
	if lines, ok := c.files[p]; ok {
		return lines, true
	}
	for name, lines := range c.files {
		if strings.HasSuffix(p, "/"+name) {
			return lines, true
		}
	}
	return nil, false
}

// Touches reports whether any line from startLine to endLine of path was
// added.
func (c *ChangedLines) Touches(path string, startLine, endLine int) bool {
	lines, ok := c.lookup(path)
	if !ok {
		return false
	}
	for l := startLine; l <= endLine; l++ {
		if lines[l] {
			return true
		}
	}
	return false
}

// Filter drops offenses that do not touch an added line. Results for files
// outside the diff end up with no offenses.
func (c *ChangedLines) Filter(results []*FileResult) []*FileResult {
	out := make([]*FileResult, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		filtered := *r
		filtered.Offenses = make([]Offense, 0, len(r.Offenses))
		for _, o := range r.Offenses {
			if c.Touches(o.File, o.Range.StartLine, o.Range.EndLine) {
				filtered.Offenses = append(filtered.Offenses, o)
			}
		}
		out = append(out, &filtered)
	}
	return out
}
