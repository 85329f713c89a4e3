// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package node

import (
	"strings"

	"github.com/AleutianAI/yardcop/services/yardcop/ast"
)

// Method wraps def and def self.x declarations.
type Method struct {
	base
}

// HasParams reports whether the method declares any parameter.
func (m *Method) HasParams() bool {
	return len(m.node.Arguments()) > 0
}

// ParamNames returns the names bound by the method's parameters in order.
// Anonymous and destructuring parameters are skipped.
func (m *Method) ParamNames() []string {
	var names []string
	for _, p := range m.node.Arguments() {
		if name := p.ParameterName(); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Raises reports whether the body calls raise or fail anywhere.
func (m *Method) Raises() bool {
	for _, d := range m.node.Descendants(ast.KindCall, ast.KindIdentifier) {
		switch d.Kind() {
		case ast.KindCall:
			if isRaise(d.MethodName()) {
				return true
			}
		case ast.KindIdentifier:
			if isRaise(d.Text()) && isStatementIdentifier(d) {
				return true
			}
		}
	}
	return false
}

// Yields reports whether the body contains a yield expression.
func (m *Method) Yields() bool {
	return len(m.node.Descendants(ast.KindYield)) > 0
}

func isRaise(name string) bool {
	return name == "raise" || name == "fail"
}

// isStatementIdentifier filters out identifiers that name a method, a call
// selector or a parameter, leaving argument-less calls like a bare "raise".
func isStatementIdentifier(n *ast.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return true
	}
	switch parent.Kind() {
	case ast.KindMethod, ast.KindSingletonMethod:
		if name := parent.ChildByField("name"); name != nil && name.Equal(n) {
			return false
		}
	case ast.KindCall:
		return false
	}
	t := parent.Type()
	return !strings.HasSuffix(t, "parameters") && !strings.HasSuffix(t, "_parameter")
}

// =============================================================================
// DOCUMENTATION SIGNALS
// =============================================================================

// apiVisibility returns the body of the first @api tag.
func (m *Method) apiVisibility() string {
	doc := m.Docstring()
	if doc == nil {
		return ""
	}
	if tag := doc.Tag("api"); tag != nil {
		return strings.TrimSpace(tag.Body)
	}
	return ""
}

// visibilityDirective returns the body of the first @!visibility directive.
func (m *Method) visibilityDirective() string {
	doc := m.Docstring()
	if doc == nil {
		return ""
	}
	if d := doc.Directive("visibility"); d != nil {
		return strings.TrimSpace(d.Body)
	}
	return ""
}

// privateFromDocs is true for "@api private", "@!visibility private" or a
// bare "@private" tag.
func (m *Method) privateFromDocs() bool {
	doc := m.Docstring()
	if doc == nil {
		return false
	}
	return m.apiVisibility() == "private" ||
		m.visibilityDirective() == "private" ||
		doc.HasTag("private")
}

// IsPublic reports public visibility.
//
// "@api public" makes it true; any private documentation signal makes it
// false; otherwise the Ruby visibility decides.
func (m *Method) IsPublic() bool {
	if m.apiVisibility() == "public" {
		return true
	}
	if m.privateFromDocs() {
		return false
	}
	return m.RubyVisibility() == VisibilityPublic
}

// IsPrivate reports private visibility.
//
// "@api public" makes it false; any private documentation signal or a
// private Ruby visibility makes it true.
func (m *Method) IsPrivate() bool {
	if m.apiVisibility() == "public" {
		return false
	}
	return m.privateFromDocs() || m.RubyVisibility() == VisibilityPrivate
}

// IsProtected reports protected visibility.
//
// "@!visibility protected" makes it true; otherwise the Ruby visibility
// decides. "@api public" is not consulted, so a protected method documented
// "@api public" answers true to both IsPublic and IsProtected. Use
// Visibility for a single answer.
func (m *Method) IsProtected() bool {
	if m.visibilityDirective() == "protected" {
		return true
	}
	return m.RubyVisibility() == VisibilityProtected
}

// Visibility returns one effective visibility, resolving overlaps between
// the predicates in favour of "@api public", then private, then protected.
func (m *Method) Visibility() Visibility {
	switch {
	case m.apiVisibility() == "public":
		return VisibilityPublic
	case m.IsPrivate():
		return VisibilityPrivate
	case m.IsProtected():
		return VisibilityProtected
	default:
		return VisibilityPublic
	}
}

// RubyVisibility returns the visibility implied by Ruby syntax alone.
func (m *Method) RubyVisibility() Visibility {
	return resolveRubyVisibility(m.node)
}
