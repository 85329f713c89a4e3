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
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/yardcop/services/yardcop/ast"
)

func parse(t *testing.T, lines ...string) *ast.SourceFile {
	t.Helper()
	file, err := ast.NewRubyParser().Parse(context.Background(), []byte(strings.Join(lines, "\n")+"\n"), "test.rb")
	require.NoError(t, err)
	t.Cleanup(file.Close)
	return file
}

// methodNamed finds the first def or defs with the given name.
func methodNamed(t *testing.T, file *ast.SourceFile, name string) *Method {
	t.Helper()
	for _, n := range file.Root().Descendants(ast.KindMethod, ast.KindSingletonMethod) {
		if n.Name() == name {
			m, ok := Wrap(n).(*Method)
			require.True(t, ok)
			return m
		}
	}
	t.Fatalf("method %q not found", name)
	return nil
}

func TestWrap_SelectsVariant(t *testing.T) {
	file := parse(t,
		"module M",
		"  class C",
		"    X = 1",
		"    attr_reader :a",
		"    def m; end",
		"    def self.s; end",
		"    puts 'hi'",
		"  end",
		"end",
	)

	for _, n := range file.Root().Descendants() {
		w := Wrap(n)
		switch n.Kind() {
		case ast.KindClass, ast.KindModule:
			assert.IsType(t, &Module{}, w)
		case ast.KindMethod, ast.KindSingletonMethod:
			assert.IsType(t, &Method{}, w)
		case ast.KindConstantAssignment:
			assert.IsType(t, &Constant{}, w)
			assert.Equal(t, "X", w.Name())
		case ast.KindCall:
			if n.MethodName() == "attr_reader" {
				assert.IsType(t, &Attribute{}, w)
				assert.Equal(t, "a", w.Name())
			} else {
				assert.IsType(t, &Generic{}, w)
			}
		}
	}
}

func TestContiguousRun(t *testing.T) {
	c := func(line int) ast.Comment {
		return ast.Comment{Text: "#", Range: ast.Range{StartLine: line}}
	}

	tests := []struct {
		name  string
		in    []ast.Comment
		lines []int
	}{
		{"empty", nil, nil},
		{"single", []ast.Comment{c(4)}, []int{4}},
		{"contiguous", []ast.Comment{c(1), c(2), c(3)}, []int{1, 2, 3}},
		{"gap keeps nearest run", []ast.Comment{c(1), c(2), c(4), c(5)}, []int{4, 5}},
		{"unsorted input", []ast.Comment{c(5), c(1), c(4)}, []int{4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lines []int
			for _, cm := range ContiguousRun(tt.in) {
				lines = append(lines, cm.Line())
			}
			assert.Equal(t, tt.lines, lines)
		})
	}
}

func TestWrapper_CommentsAndDocstring(t *testing.T) {
	file := parse(t,
		"# Unrelated header",
		"",
		"# Adds two numbers",
		"#",
		"# @param a [Integer] first",
		"",
		"def add(a); end",
	)

	m := methodNamed(t, file, "add")
	comments := m.Comments()
	require.Len(t, comments, 3)
	assert.Equal(t, "# Adds two numbers", comments[0].Text)

	doc := m.Docstring()
	require.NotNil(t, doc)
	assert.Equal(t, "Adds two numbers", doc.Description)
	assert.Equal(t, []string{"param"}, doc.TagNames())
	assert.Same(t, doc, m.Docstring(), "docstring is cached")
}

func TestWrapper_NoComments(t *testing.T) {
	file := parse(t, "x = 1", "def bare; end")

	m := methodNamed(t, file, "bare")
	assert.Empty(t, m.Comments())
	doc := m.Docstring()
	require.NotNil(t, doc)
	assert.True(t, doc.Empty())
}

func TestModule_InnermostAndQualifiedName(t *testing.T) {
	file := parse(t,
		"module Outer",
		"  class Middle::Part",
		"    class Inner; end",
		"  end",
		"end",
	)

	var mods []*Module
	for _, n := range file.Root().Descendants(ast.KindClass, ast.KindModule) {
		mods = append(mods, Wrap(n).(*Module))
	}
	require.Len(t, mods, 3)

	assert.False(t, mods[0].InnermostConstant())
	assert.False(t, mods[0].IsClass())
	assert.Equal(t, "module", mods[0].Keyword())
	assert.Equal(t, "Outer", mods[0].QualifiedName())

	assert.False(t, mods[1].InnermostConstant())
	assert.Equal(t, "Outer::Middle::Part", mods[1].QualifiedName())

	assert.True(t, mods[2].InnermostConstant())
	assert.True(t, mods[2].IsClass())
	assert.Equal(t, "Outer::Middle::Part::Inner", mods[2].QualifiedName())
}

func TestMethod_ParamsRaisesYields(t *testing.T) {
	file := parse(t,
		"def none; end",
		"def all(a, b = 2, *c, d:, e: 1, **f, &g); end",
		"def raises_call",
		"  raise ArgumentError, 'bad'",
		"end",
		"def raises_bare",
		"  raise",
		"end",
		"def fails",
		"  fail 'nope' if broken?",
		"end",
		"def fail; end",
		"def yields",
		"  [1].each { |x| yield x }",
		"end",
	)

	none := methodNamed(t, file, "none")
	assert.False(t, none.HasParams())
	assert.Empty(t, none.ParamNames())
	assert.False(t, none.Raises())
	assert.False(t, none.Yields())

	all := methodNamed(t, file, "all")
	assert.True(t, all.HasParams())
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g"}, all.ParamNames())

	assert.True(t, methodNamed(t, file, "raises_call").Raises())
	assert.True(t, methodNamed(t, file, "raises_bare").Raises())
	assert.True(t, methodNamed(t, file, "fails").Raises())
	assert.False(t, methodNamed(t, file, "fail").Raises(), "a method named fail does not raise")
	assert.True(t, methodNamed(t, file, "yields").Yields())
}

func TestMethod_RubyVisibility(t *testing.T) {
	file := parse(t,
		"class Widget",
		"  def open_one; end",
		"  private def wrapped; end",
		"  protected",
		"  def guarded; end",
		"  private",
		"  def hidden; end",
		"  public",
		"  def reopened; end",
		"  def later; end",
		"  private :later",
		"  def self.klass; end",
		"  def self.secret; end",
		"  private_class_method :secret",
		"end",
		"module Tools",
		"  private",
		"  def helper; end",
		"end",
	)

	tests := []struct {
		method string
		want   Visibility
	}{
		{"open_one", VisibilityPublic},
		{"wrapped", VisibilityPrivate},
		{"guarded", VisibilityProtected},
		{"hidden", VisibilityPrivate},
		{"reopened", VisibilityPublic},
		{"later", VisibilityPrivate},
		{"klass", VisibilityPublic},
		{"secret", VisibilityPrivate},
		{"helper", VisibilityPrivate},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			assert.Equal(t, tt.want, methodNamed(t, file, tt.method).RubyVisibility())
		})
	}
}

func TestMethod_VisibilityPredicates(t *testing.T) {
	file := parse(t,
		"class Widget",
		"  def plain; end",
		"",
		"  # Documented public",
		"  #",
		"  # @api public",
		"  private def api_public_private; end",
		"",
		"  # Internal",
		"  #",
		"  # @api private",
		"  def api_private; end",
		"",
		"  # Internal",
		"  #",
		"  # @private",
		"  def bare_private_tag; end",
		"",
		"  # Internal",
		"  #",
		"  # @!visibility private",
		"  def directive_private; end",
		"",
		"  # Shared",
		"  #",
		"  # @!visibility protected",
		"  def directive_protected; end",
		"",
		"  protected",
		"",
		"  # Exposed",
		"  #",
		"  # @api public",
		"  def protected_api_public; end",
		"end",
	)

	tests := []struct {
		method                     string
		public, private, protected bool
		effective                  Visibility
	}{
		{"plain", true, false, false, VisibilityPublic},
		{"api_public_private", true, false, false, VisibilityPublic},
		{"api_private", false, true, false, VisibilityPrivate},
		{"bare_private_tag", false, true, false, VisibilityPrivate},
		{"directive_private", false, true, false, VisibilityPrivate},
		{"directive_protected", true, false, true, VisibilityProtected},
		{"protected_api_public", true, false, true, VisibilityPublic},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			m := methodNamed(t, file, tt.method)
			assert.Equal(t, tt.public, m.IsPublic(), "IsPublic")
			assert.Equal(t, tt.private, m.IsPrivate(), "IsPrivate")
			assert.Equal(t, tt.protected, m.IsProtected(), "IsProtected")
			assert.Equal(t, tt.effective, m.Visibility(), "Visibility")
		})
	}
}

func TestAttribute_Names(t *testing.T) {
	file := parse(t,
		"class C",
		"  attr_accessor :first, 'second', some_call",
		"  self.attr_reader :ignored",
		"end",
	)

	var attrs []*Attribute
	for _, n := range file.Root().Descendants(ast.KindCall) {
		if a, ok := Wrap(n).(*Attribute); ok {
			attrs = append(attrs, a)
		}
	}
	require.Len(t, attrs, 1, "calls with a receiver are not attribute declarations")
	assert.Equal(t, []string{"first", "second"}, attrs[0].AttributeNames())
	assert.Equal(t, "first", attrs[0].Name())
}

func TestVisibility_String(t *testing.T) {
	assert.Equal(t, "public", VisibilityPublic.String())
	assert.Equal(t, "protected", VisibilityProtected.String())
	assert.Equal(t, "private", VisibilityPrivate.String())
}
