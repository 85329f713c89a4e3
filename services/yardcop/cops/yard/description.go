// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package yard

import (
	"github.com/AleutianAI/yardcop/services/yardcop/ast"
	"github.com/AleutianAI/yardcop/services/yardcop/lint"
	"github.com/AleutianAI/yardcop/services/yardcop/node"
	yarddoc "github.com/AleutianAI/yardcop/services/yardcop/yard"
)

const (
	// MissingDescriptionMessage is reported when a docstring opens with a tag.
	MissingDescriptionMessage = "Missing description in YARD docstring. The first line should be descriptive text"

	// SpacingMessage is reported when no blank comment line separates the
	// description from the first tag.
	SpacingMessage = "Missing blank line between description and YARD tags"
)

// Description checks that a docstring starts with free text and that the
// text is separated from the tags by a blank "#" line.
//
// Description:
//
//	A docstring whose first non-empty line is a tag or directive gets one
//	offense over the whole declaration. Otherwise, when the first tag line
//	directly follows a non-blank line, the declaration is flagged and the
//	fix inserts a "#" line, indented like the tag line and ending like
//	the line above it, above the tag.
type Description struct {
	declarationHooks
}

// NewDescription creates the YARD/Description cop.
func NewDescription() *Description {
	d := &Description{}
	d.declarationHooks = declarationHooks{check: d.check}
	return d
}

// Name implements lint.Cop.
func (d *Description) Name() string { return "YARD/Description" }

// Description implements lint.Cop.
func (d *Description) Description() string {
	return "Ensures YARD docstrings start with a description separated from tags by a blank line."
}

func (d *Description) check(c *lint.Context, w node.Wrapper) {
	comments := w.Comments()
	if len(comments) == 0 {
		return
	}

	if first := firstNonEmpty(comments); first >= 0 && yarddoc.IsTagStart(commentText(comments[first])) {
		c.Report(w.Range(), MissingDescriptionMessage)
		return
	}

	idx := firstTagIndex(comments)
	if idx <= 0 || commentText(comments[idx-1]) == "" {
		return
	}

	tag := comments[idx]
	c.ReportWithFix(w.Range(), SpacingMessage, func(corr *lint.Corrector) {
		lineStart := c.File.LineStart(tag.Line())
		indent := c.File.Content[lineStart:tag.Range.Start]
		corr.InsertBefore(c.File.RangeOf(lineStart, lineStart), string(indent)+"#"+lineEnding(c.File.Content, lineStart))
	})
}

// lineEnding returns the terminator of the line that ends at lineStart,
// "\r\n" or "\n".
func lineEnding(content []byte, lineStart int) string {
	if lineStart >= 2 && content[lineStart-2] == '\r' {
		return "\r\n"
	}
	return "\n"
}

func firstNonEmpty(comments []ast.Comment) int {
	for i, cm := range comments {
		if commentText(cm) != "" {
			return i
		}
	}
	return -1
}

// firstTagIndex returns the index of the first tag-start comment, or -1.
func firstTagIndex(comments []ast.Comment) int {
	for i, cm := range comments {
		if yarddoc.IsTagStart(commentText(cm)) {
			return i
		}
	}
	return -1
}
