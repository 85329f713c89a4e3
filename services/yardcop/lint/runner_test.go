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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/yardcop/services/yardcop/ast"
	"github.com/AleutianAI/yardcop/services/yardcop/config"
)

func rangeAt(start, end int) ast.Range {
	return ast.Range{Start: start, End: end}
}

// defCop reports every instance method twice at the same range.
type defCop struct{}

func (defCop) Name() string        { return "Test/Def" }
func (defCop) Description() string { return "reports methods" }
func (defCop) OnDef(c *Context, n *ast.Node) {
	c.Report(n.Range(), "def "+n.Name())
	c.Report(n.Range(), "duplicate")
}

// kindCop records the order hooks are called in.
type kindCop struct {
	seen []string
}

func (k *kindCop) Name() string                     { return "Test/Kinds" }
func (k *kindCop) Description() string              { return "records kinds" }
func (k *kindCop) OnClass(_ *Context, n *ast.Node)  { k.seen = append(k.seen, "class "+n.Name()) }
func (k *kindCop) OnModule(_ *Context, n *ast.Node) { k.seen = append(k.seen, "module "+n.Name()) }
func (k *kindCop) OnDef(_ *Context, n *ast.Node)    { k.seen = append(k.seen, "def "+n.Name()) }
func (k *kindCop) OnDefs(_ *Context, n *ast.Node)   { k.seen = append(k.seen, "defs "+n.Name()) }
func (k *kindCop) OnCasgn(_ *Context, n *ast.Node)  { k.seen = append(k.seen, "casgn "+n.Name()) }
func (k *kindCop) OnSend(_ *Context, n *ast.Node)   { k.seen = append(k.seen, "send "+n.MethodName()) }

// periodCop strips a trailing period from comments above methods.
type periodCop struct{}

func (periodCop) Name() string        { return "Test/Period" }
func (periodCop) Description() string { return "strips periods" }
func (periodCop) OnDef(c *Context, n *ast.Node) {
	for _, cm := range c.File.CommentsFor(n) {
		if !strings.HasSuffix(cm.Text, ".") {
			continue
		}
		c.ReportWithFix(cm.Range, "period", func(cr *Corrector) {
			cr.Remove(c.File.RangeOf(cm.Range.End-1, cm.Range.End))
		})
	}
}

// growCop always inserts another comment line.
type growCop struct{}

func (growCop) Name() string        { return "Test/Grow" }
func (growCop) Description() string { return "never converges" }
func (growCop) OnDef(c *Context, n *ast.Node) {
	c.ReportWithFix(n.Range(), "grow", func(cr *Corrector) {
		cr.InsertBefore(n.Range(), "# more\n")
	})
}

// panicCop fails on every method.
type panicCop struct{}

func (panicCop) Name() string        { return "Test/Panic" }
func (panicCop) Description() string { return "panics" }
func (panicCop) OnDef(*Context, *ast.Node) {
	panic("boom")
}

func parseRuby(t *testing.T, src string) *ast.SourceFile {
	t.Helper()
	file, err := ast.NewRubyParser().Parse(context.Background(), []byte(src), "test.rb")
	require.NoError(t, err)
	t.Cleanup(file.Close)
	return file
}

func TestCommissioner_DispatchOrder(t *testing.T) {
	src := `module Outer
  VERSION = "1"

  class Inner
    attr_reader :name

    def self.build; end

    def call; end
  end
end
`
	k := &kindCop{}
	NewCommissioner([]Cop{k}, nil, nil).Investigate(context.Background(), parseRuby(t, src))

	assert.Equal(t, []string{
		"module Outer",
		"casgn VERSION",
		"class Inner",
		"send attr_reader",
		"defs build",
		"def call",
	}, k.seen)
}

func TestCommissioner_DedupAndPanic(t *testing.T) {
	src := "def one; end\n\ndef two; end\n"
	inv := NewCommissioner([]Cop{panicCop{}, defCop{}}, nil, nil).
		Investigate(context.Background(), parseRuby(t, src))

	require.Len(t, inv.Offenses, 2, "same-range duplicates are dropped")
	assert.Equal(t, "def one", inv.Offenses[0].Message)
	assert.Equal(t, "def two", inv.Offenses[1].Message)
	assert.Equal(t, SeverityConvention, inv.Offenses[0].Severity)

	require.Len(t, inv.CopErrors, 1)
	assert.Equal(t, "Test/Panic", inv.CopErrors[0].Cop)
}

func TestCommissioner_PolicyAndExcludes(t *testing.T) {
	cfg, err := config.FromMap(map[string]any{
		"Test/Def": map[string]any{"Enabled": true, "Severity": "error", "Exclude": []any{"test.rb"}},
	})
	require.NoError(t, err)

	file := parseRuby(t, "def one; end\n")
	inv := NewCommissioner([]Cop{defCop{}}, cfg, NewRulePolicy(cfg, nil, nil)).Investigate(context.Background(), file)
	assert.Empty(t, inv.Offenses, "excluded path")

	cfg, err = config.FromMap(map[string]any{
		"Test/Def": map[string]any{"Enabled": true, "Severity": "error"},
	})
	require.NoError(t, err)
	inv = NewCommissioner([]Cop{defCop{}}, cfg, NewRulePolicy(cfg, nil, nil)).Investigate(context.Background(), file)
	require.Len(t, inv.Offenses, 1)
	assert.Equal(t, SeverityError, inv.Offenses[0].Severity)

	inv = NewCommissioner([]Cop{defCop{}}, cfg, NewRulePolicy(cfg, nil, []string{"Test"})).Investigate(context.Background(), file)
	assert.Empty(t, inv.Offenses, "department excluded")
}

func TestRunner_LintContent(t *testing.T) {
	r := NewRunner(nil, []Cop{defCop{}})
	result, out, err := r.LintContent(context.Background(), []byte("def a; end\n"), "lib/a.rb")
	require.NoError(t, err)
	assert.Equal(t, "def a; end\n", string(out))
	require.Len(t, result.Offenses, 1)
	assert.Equal(t, "lib/a.rb", result.Offenses[0].File)
	assert.Equal(t, 1, result.Offenses[0].Line())

	_, _, err = r.LintContent(context.Background(), []byte("x"), "notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	//nolint:staticcheck // nil context is the case under test
	_, _, err = r.LintContent(nil, []byte("x"), "a.rb")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRunner_Autocorrect(t *testing.T) {
	src := "# Does a thing.\n# More..\ndef a; end\n"
	r := NewRunner(nil, []Cop{periodCop{}}, WithAutocorrect(true))

	result, out, err := r.LintContent(context.Background(), []byte(src), "a.rb")
	require.NoError(t, err)
	assert.Equal(t, "# Does a thing\n# More\ndef a; end\n", string(out))
	assert.Equal(t, 3, result.CorrectedCount, "the second comment needs two passes")
	for _, o := range result.Offenses {
		assert.True(t, o.Corrected)
	}

	again, out2, err := r.LintContent(context.Background(), out, "a.rb")
	require.NoError(t, err)
	assert.Equal(t, string(out), string(out2), "correction is idempotent")
	assert.Empty(t, again.Offenses)
}

func TestRunner_InfiniteCorrection(t *testing.T) {
	r := NewRunner(nil, []Cop{growCop{}}, WithAutocorrect(true))
	_, _, err := r.LintContent(context.Background(), []byte("def a; end\n"), "a.rb")
	assert.ErrorIs(t, err, ErrInfiniteCorrection)
}

func TestRunner_LintFileWritesCorrections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.rb")
	require.NoError(t, os.WriteFile(path, []byte("# Hi.\ndef a; end\n"), 0o600))

	r := NewRunner(nil, []Cop{periodCop{}}, WithAutocorrect(true))
	result, err := r.LintFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CorrectedCount)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Hi\ndef a; end\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

type memCache struct {
	entries map[string][]Offense
	stores  int
}

func (m *memCache) Lookup(path string, content []byte) ([]Offense, bool) {
	o, ok := m.entries[path+"\x00"+string(content)]
	return o, ok
}

func (m *memCache) Store(path string, content []byte, offenses []Offense) error {
	m.stores++
	m.entries[path+"\x00"+string(content)] = offenses
	return nil
}

func TestRunner_Cache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.rb")
	require.NoError(t, os.WriteFile(path, []byte("def a; end\n"), 0o644))

	cache := &memCache{entries: make(map[string][]Offense)}
	r := NewRunner(nil, []Cop{defCop{}}, WithCache(cache))

	first, err := r.LintFile(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := r.LintFile(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Offenses, second.Offenses)
	assert.Equal(t, 1, cache.stores)
}

func TestRunner_LintPaths(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		p := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	write("lib/a.rb", "def a; end\n")
	write("lib/b.rb", "def b; end\n")
	write("Rakefile", "def task_helper; end\n")
	write("README.md", "# readme\n")
	write("vendor/gem/c.rb", "def c; end\n")
	write(".hidden/d.rb", "def d; end\n")
	write("tmp/e.rb", "def e; end\n")

	cfg, err := config.Default()
	require.NoError(t, err)
	r := NewRunner(cfg, []Cop{defCop{}}, WithPolicy(&RulePolicy{}), WithConcurrency(2))

	files, err := r.CollectFiles([]string{dir})
	require.NoError(t, err)
	var rel []string
	for _, f := range files {
		relPath, err := filepath.Rel(dir, f)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(relPath))
	}
	assert.Equal(t, []string{"Rakefile", "lib/a.rb", "lib/b.rb"}, rel)

	results, err := r.LintPaths(context.Background(), []string{dir})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 3, Summarize(results).Offenses)
}

func TestRunner_LintFilesPartialFailure(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.rb")
	require.NoError(t, os.WriteFile(good, []byte("def a; end\n"), 0o644))

	r := NewRunner(nil, []Cop{defCop{}})
	results, err := r.LintFiles(context.Background(), []string{good, filepath.Join(dir, "missing.rb")})
	require.Error(t, err)
	require.Len(t, results, 2)
	assert.NotNil(t, results[0])
	assert.Nil(t, results[1])
}
