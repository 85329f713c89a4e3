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
	"github.com/AleutianAI/yardcop/services/yardcop/ast"
)

// Visibility is a Ruby method visibility.
type Visibility int

const (
	// VisibilityPublic is the default visibility.
	VisibilityPublic Visibility = iota

	// VisibilityProtected is set by "protected".
	VisibilityProtected

	// VisibilityPrivate is set by "private" or "private_class_method".
	VisibilityPrivate
)

// String returns the Ruby keyword for the visibility.
func (v Visibility) String() string {
	switch v {
	case VisibilityProtected:
		return "protected"
	case VisibilityPrivate:
		return "private"
	default:
		return "public"
	}
}

var instanceModifiers = map[string]Visibility{
	"public":    VisibilityPublic,
	"protected": VisibilityProtected,
	"private":   VisibilityPrivate,
}

var singletonModifiers = map[string]Visibility{
	"public_class_method":  VisibilityPublic,
	"private_class_method": VisibilityPrivate,
}

func modifierFor(name string, singleton bool) (Visibility, bool) {
	if singleton {
		v, ok := singletonModifiers[name]
		return v, ok
	}
	v, ok := instanceModifiers[name]
	return v, ok
}

// resolveRubyVisibility applies Ruby's visibility rules to a method node.
//
// Description:
//
//	Three sources are checked, first match wins:
//	  1. a modifier call wrapping the definition ("private def foo"),
//	     nearest first
//	  2. a modifier call in the same body naming the method
//	     ("private :foo"); the last such call wins
//	  3. the nearest bare modifier statement above the definition in the
//	     same body ("private" on its own line); instance methods only
//	Singleton methods only respond to private_class_method and
//	public_class_method. Without any match the method is public.
func resolveRubyVisibility(n *ast.Node) Visibility {
	singleton := n.Kind() == ast.KindSingletonMethod

	anchor := n
	for {
		args := anchor.Parent()
		if args == nil || args.Type() != "argument_list" {
			break
		}
		call := args.Parent()
		if call == nil || call.Kind() != ast.KindCall {
			break
		}
		if call.Receiver() == nil {
			if v, ok := modifierFor(call.MethodName(), singleton); ok {
				return v
			}
		}
		anchor = call
	}

	if v, ok := namedModifier(anchor, n.Name(), singleton); ok {
		return v
	}

	if !singleton {
		for _, sibling := range anchor.PrecedingSiblings() {
			if v, ok := bareModifier(sibling); ok {
				return v
			}
		}
	}

	return VisibilityPublic
}

// namedModifier finds "private :name" style calls among the anchor's
// siblings.
func namedModifier(anchor *ast.Node, name string, singleton bool) (Visibility, bool) {
	parent := anchor.Parent()
	if parent == nil || name == "" {
		return VisibilityPublic, false
	}

	var (
		found bool
		vis   Visibility
	)
	for _, stmt := range parent.NamedChildren() {
		if stmt.Kind() != ast.KindCall || stmt.Receiver() != nil {
			continue
		}
		v, ok := modifierFor(stmt.MethodName(), singleton)
		if !ok {
			continue
		}
		for _, arg := range stmt.Arguments() {
			value, isSym := arg.SymbolValue()
			if !isSym {
				value, isSym = arg.StringValue()
			}
			if isSym && value == name {
				found, vis = true, v
			}
		}
	}
	return vis, found
}

// bareModifier recognises "private" and "private()" statements.
func bareModifier(stmt *ast.Node) (Visibility, bool) {
	switch stmt.Kind() {
	case ast.KindIdentifier:
		v, ok := instanceModifiers[stmt.Text()]
		return v, ok
	case ast.KindCall:
		if stmt.Receiver() != nil || len(stmt.Arguments()) > 0 || stmt.Block() != nil {
			return VisibilityPublic, false
		}
		v, ok := instanceModifiers[stmt.MethodName()]
		return v, ok
	}
	return VisibilityPublic, false
}
