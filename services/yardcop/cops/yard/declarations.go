// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package yard holds the YARD documentation cops.
//
// Every cop here inspects the same declaration kinds: classes, modules,
// instance and singleton methods, constant assignments and attr_*
// declarations. declarationHooks forwards each of those hooks to a single
// check function that receives the wrapped declaration.
package yard

import (
	"strings"

	"github.com/AleutianAI/yardcop/services/yardcop/ast"
	"github.com/AleutianAI/yardcop/services/yardcop/lint"
	"github.com/AleutianAI/yardcop/services/yardcop/node"
	yarddoc "github.com/AleutianAI/yardcop/services/yardcop/yard"
)

// declarationHooks implements every declaration hook by calling check.
type declarationHooks struct {
	check func(c *lint.Context, w node.Wrapper)
}

func (h declarationHooks) OnClass(c *lint.Context, n *ast.Node)  { h.check(c, node.Wrap(n)) }
func (h declarationHooks) OnModule(c *lint.Context, n *ast.Node) { h.check(c, node.Wrap(n)) }
func (h declarationHooks) OnDef(c *lint.Context, n *ast.Node)    { h.check(c, node.Wrap(n)) }
func (h declarationHooks) OnDefs(c *lint.Context, n *ast.Node)   { h.check(c, node.Wrap(n)) }
func (h declarationHooks) OnCasgn(c *lint.Context, n *ast.Node)  { h.check(c, node.Wrap(n)) }

// OnSend only forwards attr_accessor, attr_reader and attr_writer calls.
func (h declarationHooks) OnSend(c *lint.Context, n *ast.Node) {
	if !node.IsAttributeCall(n) {
		return
	}
	h.check(c, node.Wrap(n))
}

// commentText returns a comment with its "#" marker removed and surrounding
// whitespace trimmed.
func commentText(c ast.Comment) string {
	return strings.TrimSpace(yarddoc.StripMarker(c.Text))
}
