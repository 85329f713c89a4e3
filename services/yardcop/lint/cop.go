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
	"context"

	"github.com/AleutianAI/yardcop/services/yardcop/ast"
	"github.com/AleutianAI/yardcop/services/yardcop/config"
)

// Cop is a single lint rule.
//
// A cop implements Cop plus any of the hook interfaces below. The
// Commissioner calls a hook for every node of the matching kind.
type Cop interface {
	// Name returns "Department/Name", e.g. "YARD/NoPeriod".
	Name() string

	// Description returns a one-line summary of the rule.
	Description() string
}

// ClassHook is implemented by cops that inspect class definitions.
type ClassHook interface {
	OnClass(c *Context, n *ast.Node)
}

// ModuleHook is implemented by cops that inspect module definitions.
type ModuleHook interface {
	OnModule(c *Context, n *ast.Node)
}

// MethodHook is implemented by cops that inspect instance method definitions.
type MethodHook interface {
	OnDef(c *Context, n *ast.Node)
}

// SingletonMethodHook is implemented by cops that inspect `def self.x`.
type SingletonMethodHook interface {
	OnDefs(c *Context, n *ast.Node)
}

// ConstantHook is implemented by cops that inspect constant assignments.
type ConstantHook interface {
	OnCasgn(c *Context, n *ast.Node)
}

// SendHook is implemented by cops that inspect method calls.
type SendHook interface {
	OnSend(c *Context, n *ast.Node)
}

// =============================================================================
// CONTEXT
// =============================================================================

type rangeKey struct {
	start, end int
}

// Context is handed to every hook call of one cop on one file.
//
// Description:
//
//	Context carries the source file, the run configuration and the
//	reporter. Offenses at a range already reported by the same cop are
//	dropped; the first report wins.
//
// Thread Safety:
//
//	Not safe for concurrent use. The Commissioner runs cops on a file
//	sequentially.
type Context struct {
	// File is the file being inspected.
	File *ast.SourceFile

	// Config is the merged run configuration.
	Config *config.Config

	ctx      context.Context
	cop      Cop
	severity Severity
	offenses []Offense
	edits    []Edit
	seen     map[rangeKey]struct{}
}

func newContext(ctx context.Context, file *ast.SourceFile, cfg *config.Config, cop Cop, sev Severity) *Context {
	return &Context{
		File:     file,
		Config:   cfg,
		ctx:      ctx,
		cop:      cop,
		severity: sev,
		seen:     make(map[rangeKey]struct{}),
	}
}

// Context returns the run's context.Context.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Report records an offense without a fix.
func (c *Context) Report(rng ast.Range, message string) {
	c.report(rng, message, nil)
}

// ReportWithFix records an offense and collects the edits built by fix.
// A fix that produces no edits leaves the offense uncorrectable.
func (c *Context) ReportWithFix(rng ast.Range, message string, fix func(*Corrector)) {
	c.report(rng, message, fix)
}

func (c *Context) report(rng ast.Range, message string, fix func(*Corrector)) {
	key := rangeKey{rng.Start, rng.End}
	if _, dup := c.seen[key]; dup {
		return
	}
	c.seen[key] = struct{}{}

	offense := Offense{
		Cop:      c.cop.Name(),
		Severity: c.severity,
		Message:  message,
		File:     c.File.Path,
		Range:    rng,
	}

	if fix != nil {
		corrector := &Corrector{cop: c.cop.Name()}
		fix(corrector)
		if len(corrector.edits) > 0 {
			offense.Correctable = true
			offense.fix = corrector.edits
			c.edits = append(c.edits, corrector.edits...)
		}
	}

	c.offenses = append(c.offenses, offense)
}

