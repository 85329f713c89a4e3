// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package node wraps Ruby declaration nodes with documentation-aware
// accessors.
//
// A Wrapper pairs a syntax node with the comment block above it. Wrap picks
// one variant per node kind, and each variant only exposes the queries that
// make sense for that kind: visibility on methods, nesting on classes and
// modules, attribute names on attr_* declarations.
package node

import (
	"regexp"
	"sort"

	"github.com/AleutianAI/yardcop/services/yardcop/ast"
	"github.com/AleutianAI/yardcop/services/yardcop/yard"
)

// Wrapper is the shared view over every declaration variant.
//
// The interface is sealed: only this package provides implementations.
type Wrapper interface {
	// Node returns the wrapped syntax node.
	Node() *ast.Node

	// Kind returns the wrapped node's kind.
	Kind() ast.Kind

	// Name returns the declared name as written in source.
	Name() string

	// Range returns the declaration's full source range.
	Range() ast.Range

	// Comments returns the contiguous comment run directly above the
	// declaration, in ascending line order.
	Comments() []ast.Comment

	// Docstring returns the parsed comment run, or nil if it could not be
	// parsed.
	Docstring() *yard.Docstring

	wrapper()
}

// attributeMethodPattern matches attribute declaration selectors.
var attributeMethodPattern = regexp.MustCompile(`^attr_(accessor|reader|writer)$`)

// IsAttributeCall reports whether n is a receiver-less attr_accessor,
// attr_reader or attr_writer call.
func IsAttributeCall(n *ast.Node) bool {
	return n != nil &&
		n.Kind() == ast.KindCall &&
		n.Receiver() == nil &&
		attributeMethodPattern.MatchString(n.MethodName())
}

var constructors = map[ast.Kind]func(*ast.Node) Wrapper{
	ast.KindClass:              func(n *ast.Node) Wrapper { return &Module{base: base{node: n}} },
	ast.KindModule:             func(n *ast.Node) Wrapper { return &Module{base: base{node: n}} },
	ast.KindMethod:             func(n *ast.Node) Wrapper { return &Method{base: base{node: n}} },
	ast.KindSingletonMethod:    func(n *ast.Node) Wrapper { return &Method{base: base{node: n}} },
	ast.KindConstantAssignment: func(n *ast.Node) Wrapper { return &Constant{base: base{node: n}} },
}

// Wrap returns the variant for n's kind. Attribute declarations become
// *Attribute; kinds without a dedicated variant become *Generic.
func Wrap(n *ast.Node) Wrapper {
	if ctor, ok := constructors[n.Kind()]; ok {
		return ctor(n)
	}
	if IsAttributeCall(n) {
		return &Attribute{base: base{node: n}}
	}
	return &Generic{base: base{node: n}}
}

// base holds the state every variant shares. Comments and Docstring are
// computed on first access and cached; a wrapper lives for one hook call
// and is not shared between goroutines.
type base struct {
	node *ast.Node

	comments     []ast.Comment
	commentsDone bool

	docstring     *yard.Docstring
	docstringDone bool
}

func (b *base) wrapper() {}

// Node returns the wrapped syntax node.
func (b *base) Node() *ast.Node { return b.node }

// Kind returns the wrapped node's kind.
func (b *base) Kind() ast.Kind { return b.node.Kind() }

// Name returns the declared name as written in source.
func (b *base) Name() string { return b.node.Name() }

// Range returns the declaration's full source range.
func (b *base) Range() ast.Range { return b.node.Range() }

// Comments returns the nearest contiguous comment run above the node.
func (b *base) Comments() []ast.Comment {
	if !b.commentsDone {
		b.comments = ContiguousRun(b.node.File().CommentsFor(b.node))
		b.commentsDone = true
	}
	return b.comments
}

// Docstring parses Comments. It returns nil when parsing fails.
func (b *base) Docstring() *yard.Docstring {
	if !b.docstringDone {
		comments := b.Comments()
		lines := make([]string, len(comments))
		for i, c := range comments {
			lines[i] = c.Text
		}
		if doc, ok := yard.TryParse(lines); ok {
			b.docstring = doc
		}
		b.docstringDone = true
	}
	return b.docstring
}

// ContiguousRun sorts comments by line and keeps only the last run in
// which every comment sits on the line right after the previous one.
func ContiguousRun(comments []ast.Comment) []ast.Comment {
	if len(comments) == 0 {
		return nil
	}
	sorted := make([]ast.Comment, len(comments))
	copy(sorted, comments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Line() < sorted[j].Line()
	})

	start := 0
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Line() != sorted[i-1].Line()+1 {
			start = i
		}
	}
	return sorted[start:]
}

// Generic wraps nodes with no dedicated variant.
type Generic struct {
	base
}

// Module wraps class and module declarations.
type Module struct {
	base
}

// IsClass reports whether the declaration is a class rather than a module.
func (m *Module) IsClass() bool {
	return m.node.Kind() == ast.KindClass
}

// Keyword returns "class" or "module".
func (m *Module) Keyword() string {
	if m.IsClass() {
		return "class"
	}
	return "module"
}

// InnermostConstant reports whether no class or module is nested inside
// this one.
func (m *Module) InnermostConstant() bool {
	return len(m.node.Descendants(ast.KindClass, ast.KindModule)) == 0
}

// QualifiedName joins the names of enclosing classes and modules with the
// declaration's own name, outermost first ("Outer::Inner"). A leading "::"
// written in source is kept only when it starts the result.
func (m *Module) QualifiedName() string {
	ancestors := m.node.Ancestors(ast.KindClass, ast.KindModule)
	name := ""
	for i := len(ancestors) - 1; i >= 0; i-- {
		name = joinConst(name, ancestors[i].Name())
	}
	return joinConst(name, m.node.Name())
}

func joinConst(prefix, name string) string {
	if prefix == "" {
		return name
	}
	if len(name) >= 2 && name[:2] == "::" {
		return prefix + name
	}
	return prefix + "::" + name
}

// Constant wraps constant assignments.
type Constant struct {
	base
}

// Attribute wraps attr_accessor, attr_reader and attr_writer calls.
type Attribute struct {
	base
}

// AttributeNames returns the declared attribute names in order. Arguments
// that are not symbol or string literals are skipped.
func (a *Attribute) AttributeNames() []string {
	var names []string
	for _, arg := range a.node.Arguments() {
		if v, ok := arg.SymbolValue(); ok {
			names = append(names, v)
			continue
		}
		if v, ok := arg.StringValue(); ok {
			names = append(names, v)
		}
	}
	return names
}

// Name returns the first declared attribute name.
func (a *Attribute) Name() string {
	if names := a.AttributeNames(); len(names) > 0 {
		return names[0]
	}
	return ""
}
