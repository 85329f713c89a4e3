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
	"strings"

	"github.com/AleutianAI/yardcop/services/yardcop/ast"
	"github.com/AleutianAI/yardcop/services/yardcop/lint"
	"github.com/AleutianAI/yardcop/services/yardcop/node"
	yarddoc "github.com/AleutianAI/yardcop/services/yardcop/yard"
)

// NoPeriodMessage is reported on every docstring line ending in a period.
const NoPeriodMessage = "YARD docstring lines should not end with periods"

// NoPeriod flags docstring lines that end with a single period and strips
// it on autocorrect.
//
// Description:
//
//	Lines are skipped when they are blank, end with "...", are indented
//	deeper than the first non-blank line of the block, or sit inside a code
//	region. A code region is either fenced by "```" lines or opened by an
//	@example tag and closed by the next tag line indented no deeper than
//	the @example line.
type NoPeriod struct {
	declarationHooks
}

// NewNoPeriod creates the YARD/NoPeriod cop.
func NewNoPeriod() *NoPeriod {
	p := &NoPeriod{}
	p.declarationHooks = declarationHooks{check: p.check}
	return p
}

// Name implements lint.Cop.
func (p *NoPeriod) Name() string { return "YARD/NoPeriod" }

// Description implements lint.Cop.
func (p *NoPeriod) Description() string {
	return "Forbids trailing periods on YARD docstring lines."
}

func (p *NoPeriod) check(c *lint.Context, w node.Wrapper) {
	comments := w.Comments()
	if len(comments) == 0 {
		return
	}

	scan := newRegionScanner(comments)
	for _, cm := range comments {
		text := strings.TrimRight(yarddoc.StripMarker(cm.Text), " \t\r")
		if scan.skip(text) {
			continue
		}
		if !strings.HasSuffix(text, ".") || strings.HasSuffix(text, "...") {
			continue
		}
		period := cm.Range.Start + len(strings.TrimRight(cm.Text, " \t\r")) - 1
		c.ReportWithFix(cm.Range, NoPeriodMessage, func(corr *lint.Corrector) {
			corr.Remove(c.File.RangeOf(period, period+1))
		})
	}
}

// regionScanner walks a comment block line by line and decides which lines
// are prose that NoPeriod may inspect.
type regionScanner struct {
	baseIndent int

	inFence       bool
	inExample     bool
	exampleIndent int
}

func newRegionScanner(comments []ast.Comment) *regionScanner {
	s := &regionScanner{baseIndent: -1}
	for _, cm := range comments {
		text := yarddoc.StripMarker(cm.Text)
		if strings.TrimSpace(text) != "" {
			s.baseIndent = indentWidth(text)
			break
		}
	}
	return s
}

// skip consumes one stripped line and reports whether it must not be
// checked.
func (s *regionScanner) skip(text string) bool {
	trimmed := strings.TrimSpace(text)
	indent := indentWidth(text)

	if strings.HasPrefix(trimmed, "```") {
		s.inFence = !s.inFence
		return true
	}
	if s.inFence {
		return true
	}

	if yarddoc.IsTagStart(text) {
		if s.inExample && indent <= s.exampleIndent {
			s.inExample = false
		}
		if !s.inExample && isExampleTag(trimmed) {
			s.inExample = true
			s.exampleIndent = indent
			return true
		}
	}
	if s.inExample {
		return true
	}

	if trimmed == "" {
		return true
	}
	return s.baseIndent >= 0 && indent > s.baseIndent
}

func isExampleTag(trimmed string) bool {
	rest, ok := strings.CutPrefix(trimmed, "@example")
	return ok && (rest == "" || rest[0] == ' ' || rest[0] == '\t')
}

func indentWidth(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t"))
}
