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
	"fmt"
	"log/slog"
	"sort"

	"github.com/AleutianAI/yardcop/services/yardcop/ast"
	"github.com/AleutianAI/yardcop/services/yardcop/config"
)

// dispatchKinds are the node kinds the Commissioner hands to hooks.
var dispatchKinds = []ast.Kind{
	ast.KindClass,
	ast.KindModule,
	ast.KindMethod,
	ast.KindSingletonMethod,
	ast.KindConstantAssignment,
	ast.KindCall,
}

// Investigation is the outcome of running every cop once over a file.
type Investigation struct {
	Offenses  []Offense
	Edits     []Edit
	CopErrors []*CopError
}

// Commissioner runs a set of cops over parsed files.
//
// Thread Safety: Safe for concurrent use; each Investigate call has its own
// per-cop contexts.
type Commissioner struct {
	cops   []Cop
	cfg    *config.Config
	policy *RulePolicy
}

// NewCommissioner creates a commissioner. A nil policy selects every cop
// at convention severity.
func NewCommissioner(cops []Cop, cfg *config.Config, policy *RulePolicy) *Commissioner {
	if policy == nil {
		policy = &RulePolicy{}
	}
	return &Commissioner{cops: cops, cfg: cfg, policy: policy}
}

// Cops returns the cops this commissioner runs.
func (c *Commissioner) Cops() []Cop {
	return c.cops
}

// Investigate walks file once and dispatches nodes to cop hooks.
//
// Description:
//
//	Nodes are visited in source order. For each cop that applies to the
//	file path, every hook it implements is called with that cop's Context.
//	A panicking cop is stopped for this file and recorded as a CopError;
//	the remaining cops still run. Offenses come back sorted by position
//	then cop name.
//
// Inputs:
//
//	ctx  - Context passed through to hooks.
//	file - The parsed file. Must not be nil.
//
// Outputs:
//
//	*Investigation - Offenses, edits and cop errors.
func (c *Commissioner) Investigate(ctx context.Context, file *ast.SourceFile) *Investigation {
	inv := &Investigation{}
	nodes := file.Root().Descendants(dispatchKinds...)

	for _, cop := range c.cops {
		if !c.policy.Selected(cop.Name()) {
			continue
		}
		if c.cfg != nil && !c.cfg.AppliesTo(cop.Name(), file.Path) {
			continue
		}

		cc := newContext(ctx, file, c.cfg, cop, c.policy.Severity(cop.Name()))
		if err := runCop(cop, cc, nodes); err != nil {
			slog.Warn("cop failed",
				slog.String("cop", cop.Name()),
				slog.String("file", file.Path),
				slog.Any("panic", err.Value),
			)
			inv.CopErrors = append(inv.CopErrors, err)
		}
		inv.Offenses = append(inv.Offenses, cc.offenses...)
		inv.Edits = append(inv.Edits, cc.edits...)
	}

	sortOffenses(inv.Offenses)
	return inv
}

func runCop(cop Cop, cc *Context, nodes []*ast.Node) (copErr *CopError) {
	defer func() {
		if r := recover(); r != nil {
			copErr = &CopError{Cop: cop.Name(), File: cc.File.Path, Value: r}
		}
	}()

	for _, n := range nodes {
		dispatch(cop, cc, n)
	}
	return nil
}

func dispatch(cop Cop, cc *Context, n *ast.Node) {
	switch n.Kind() {
	case ast.KindClass:
		if h, ok := cop.(ClassHook); ok {
			h.OnClass(cc, n)
		}
	case ast.KindModule:
		if h, ok := cop.(ModuleHook); ok {
			h.OnModule(cc, n)
		}
	case ast.KindMethod:
		if h, ok := cop.(MethodHook); ok {
			h.OnDef(cc, n)
		}
	case ast.KindSingletonMethod:
		if h, ok := cop.(SingletonMethodHook); ok {
			h.OnDefs(cc, n)
		}
	case ast.KindConstantAssignment:
		if h, ok := cop.(ConstantHook); ok {
			h.OnCasgn(cc, n)
		}
	case ast.KindCall:
		if h, ok := cop.(SendHook); ok {
			h.OnSend(cc, n)
		}
	}
}

func sortOffenses(offenses []Offense) {
	sort.SliceStable(offenses, func(i, j int) bool {
		a, b := offenses[i].Range, offenses[j].Range
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return offenses[i].Cop < offenses[j].Cop
	})
}

// String implements fmt.Stringer for debugging.
func (inv *Investigation) String() string {
	return fmt.Sprintf("Investigation{offenses=%d edits=%d errors=%d}",
		len(inv.Offenses), len(inv.Edits), len(inv.CopErrors))
}
