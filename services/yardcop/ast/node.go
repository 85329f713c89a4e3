// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Kind classifies the Ruby syntax nodes that linters care about.
type Kind int

const (
	// KindOther is any node without a dedicated kind.
	KindOther Kind = iota

	// KindProgram is the root of a file.
	KindProgram

	// KindClass is "class Foo ... end".
	KindClass

	// KindModule is "module Foo ... end".
	KindModule

	// KindMethod is "def foo ... end".
	KindMethod

	// KindSingletonMethod is "def self.foo ... end".
	KindSingletonMethod

	// KindConstantAssignment is "FOO = value", "Foo::BAR = value" or an
	// operator assignment such as "FOO ||= value".
	KindConstantAssignment

	// KindCall is a method call with a selector, e.g. "attr_reader :x".
	KindCall

	// KindIdentifier is a bare identifier. Argument-less calls such as a
	// lone "private" or "raise" parse as identifiers.
	KindIdentifier

	// KindYield is a "yield" expression.
	KindYield

	// KindString is a string literal.
	KindString

	// KindSymbol is a symbol literal.
	KindSymbol

	// KindComment is a comment.
	KindComment
)

var kindNames = map[Kind]string{
	KindOther:              "other",
	KindProgram:            "program",
	KindClass:              "class",
	KindModule:             "module",
	KindMethod:             "def",
	KindSingletonMethod:    "defs",
	KindConstantAssignment: "casgn",
	KindCall:               "send",
	KindIdentifier:         "identifier",
	KindYield:              "yield",
	KindString:             "str",
	KindSymbol:             "sym",
	KindComment:            "comment",
}

// String returns the short node-type name used in hooks and logs.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Node is a read-only view over one tree-sitter node of a SourceFile.
//
// Description:
//
//	Node hides tree-sitter behind the handful of queries linters need:
//	kind, range, text, navigation and a few type-specific accessors.
//	Accessors that do not apply to a node's kind return zero values.
//
// Thread Safety:
//
//	Safe for concurrent reads while the owning SourceFile is open.
type Node struct {
	sn   *sitter.Node
	file *SourceFile
}

func (f *SourceFile) wrap(sn *sitter.Node) *Node {
	if sn == nil || sn.IsNull() {
		return nil
	}
	return &Node{sn: sn, file: f}
}

// File returns the source file the node belongs to.
func (n *Node) File() *SourceFile {
	return n.file
}

// Type returns the raw grammar type, e.g. "singleton_method".
func (n *Node) Type() string {
	return n.sn.Type()
}

// Kind returns the node's classification.
func (n *Node) Kind() Kind {
	switch n.sn.Type() {
	case "program":
		return KindProgram
	case "class":
		return KindClass
	case "module":
		return KindModule
	case "method":
		return KindMethod
	case "singleton_method":
		return KindSingletonMethod
	case "assignment", "operator_assignment":
		if left := n.sn.ChildByFieldName("left"); left != nil {
			switch left.Type() {
			case "constant", "scope_resolution":
				return KindConstantAssignment
			}
		}
		return KindOther
	case "call", "method_call":
		return KindCall
	case "identifier":
		return KindIdentifier
	case "yield":
		return KindYield
	case "string":
		return KindString
	case "simple_symbol", "symbol", "delimited_symbol":
		return KindSymbol
	case "comment":
		return KindComment
	default:
		return KindOther
	}
}

// Range returns the node's location.
func (n *Node) Range() Range {
	start, end := n.sn.StartPoint(), n.sn.EndPoint()
	return Range{
		Start:       int(n.sn.StartByte()),
		End:         int(n.sn.EndByte()),
		StartLine:   int(start.Row) + 1,
		StartColumn: int(start.Column) + 1,
		EndLine:     int(end.Row) + 1,
		EndColumn:   int(end.Column) + 1,
	}
}

// Line returns the 1-indexed line the node starts on.
func (n *Node) Line() int {
	return int(n.sn.StartPoint().Row) + 1
}

// Column returns the 1-indexed byte column the node starts on.
func (n *Node) Column() int {
	return int(n.sn.StartPoint().Column) + 1
}

// Text returns the node's source text.
func (n *Node) Text() string {
	return n.sn.Content(n.file.Content)
}

// Equal reports whether two views refer to the same syntax node.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	return n.sn.StartByte() == o.sn.StartByte() &&
		n.sn.EndByte() == o.sn.EndByte() &&
		n.sn.Type() == o.sn.Type()
}

// Parent returns the enclosing node, or nil at the root.
func (n *Node) Parent() *Node {
	return n.file.wrap(n.sn.Parent())
}

// Children returns all children including anonymous tokens.
func (n *Node) Children() []*Node {
	count := int(n.sn.ChildCount())
	children := make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.file.wrap(n.sn.Child(i)); c != nil {
			children = append(children, c)
		}
	}
	return children
}

// NamedChildren returns the named children. Comments are skipped.
func (n *Node) NamedChildren() []*Node {
	count := int(n.sn.NamedChildCount())
	children := make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.sn.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		children = append(children, n.file.wrap(c))
	}
	return children
}

// ChildByField returns the child stored under a grammar field name.
func (n *Node) ChildByField(name string) *Node {
	return n.file.wrap(n.sn.ChildByFieldName(name))
}

// Ancestors returns enclosing nodes, nearest first. With kinds given, only
// ancestors of those kinds are returned.
func (n *Node) Ancestors(kinds ...Kind) []*Node {
	var out []*Node
	for p := n.Parent(); p != nil; p = p.Parent() {
		if matchesKind(p.Kind(), kinds) {
			out = append(out, p)
		}
	}
	return out
}

// Descendants returns nested named nodes in pre-order, excluding n itself.
// With kinds given, only descendants of those kinds are returned.
func (n *Node) Descendants(kinds ...Kind) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		for _, c := range cur.NamedChildren() {
			if matchesKind(c.Kind(), kinds) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// PrecedingSiblings returns the named siblings before n, nearest first.
func (n *Node) PrecedingSiblings() []*Node {
	parent := n.Parent()
	if parent == nil {
		return nil
	}
	var before []*Node
	for _, c := range parent.NamedChildren() {
		if c.Range().Start >= n.Range().Start {
			break
		}
		before = append(before, c)
	}
	for i, j := 0, len(before)-1; i < j; i, j = i+1, j-1 {
		before[i], before[j] = before[j], before[i]
	}
	return before
}

func matchesKind(k Kind, kinds []Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

// =============================================================================
// TYPE-SPECIFIC ACCESSORS
// =============================================================================

// Name returns the declared name.
//
// Description:
//
//	Classes and modules return their name as written ("Foo::Bar"), methods
//	and singleton methods their method name, constant assignments the
//	constant ("FOO" or "Foo::BAR"), calls their selector. Other kinds
//	return "".
func (n *Node) Name() string {
	switch n.Kind() {
	case KindClass, KindModule, KindMethod, KindSingletonMethod:
		if name := n.ChildByField("name"); name != nil {
			return name.Text()
		}
	case KindConstantAssignment:
		if left := n.ChildByField("left"); left != nil {
			return left.Text()
		}
	case KindCall, KindIdentifier:
		return n.MethodName()
	}
	return ""
}

// MethodName returns the selector of a call ("attr_reader" for
// "attr_reader :x") or the text of a bare identifier.
func (n *Node) MethodName() string {
	switch n.Kind() {
	case KindCall:
		if m := n.ChildByField("method"); m != nil {
			return m.Text()
		}
	case KindIdentifier:
		return n.Text()
	}
	return ""
}

// Selector returns the node holding a call's method name. For a bare
// identifier the identifier itself is returned.
func (n *Node) Selector() *Node {
	switch n.Kind() {
	case KindCall:
		return n.ChildByField("method")
	case KindIdentifier:
		return n
	}
	return nil
}

// Receiver returns a call's explicit receiver, or nil.
func (n *Node) Receiver() *Node {
	if n.Kind() != KindCall {
		return nil
	}
	return n.ChildByField("receiver")
}

// Arguments returns a call's arguments or a method's parameters.
func (n *Node) Arguments() []*Node {
	var list *Node
	switch n.Kind() {
	case KindCall:
		list = n.ChildByField("arguments")
	case KindMethod, KindSingletonMethod:
		list = n.ChildByField("parameters")
	}
	if list == nil {
		return nil
	}
	return list.NamedChildren()
}

// Block returns the block attached to a call, or nil.
func (n *Node) Block() *Node {
	if n.Kind() != KindCall {
		return nil
	}
	return n.ChildByField("block")
}

// ParameterName returns the local name bound by a method parameter node,
// e.g. "opts" for "**opts". Destructuring and anonymous parameters return "".
func (n *Node) ParameterName() string {
	if n.Type() == "identifier" {
		return n.Text()
	}
	if name := n.ChildByField("name"); name != nil {
		return name.Text()
	}
	return ""
}

// StringValue returns the content of a string literal. The second result is
// false for non-strings and for strings with interpolation.
func (n *Node) StringValue() (string, bool) {
	if n.Kind() != KindString {
		return "", false
	}
	var b strings.Builder
	for _, c := range n.NamedChildren() {
		switch c.Type() {
		case "string_content":
			b.WriteString(c.Text())
		case "escape_sequence":
			b.WriteString(c.Text())
		default:
			return "", false
		}
	}
	return b.String(), true
}

// SymbolValue returns a symbol literal's name without the leading colon.
func (n *Node) SymbolValue() (string, bool) {
	if n.Kind() != KindSymbol {
		return "", false
	}
	text := strings.TrimPrefix(n.Text(), ":")
	if len(text) >= 2 && (text[0] == '"' || text[0] == '\'') {
		text = text[1 : len(text)-1]
	}
	return text, true
}
