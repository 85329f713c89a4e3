// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/yardcop/services/yardcop/ast"
	"github.com/AleutianAI/yardcop/services/yardcop/cops/yard"
	"github.com/AleutianAI/yardcop/services/yardcop/lint"
)

func sampleOffenses() []lint.Offense {
	return []lint.Offense{
		{
			Cop:         "YARD/NoPeriod",
			Severity:    lint.SeverityConvention,
			Message:     "YARD docstring lines should not end with periods",
			File:        "lib/a.rb",
			Range:       ast.Range{Start: 0, End: 9, StartLine: 1, StartColumn: 1, EndLine: 1, EndColumn: 10},
			Correctable: true,
		},
	}
}

func openTest(t *testing.T, version, digest string) *Cache {
	t.Helper()
	c, err := OpenInMemory(version, digest)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_RoundTrip(t *testing.T) {
	c := openTest(t, "1.0.0", "cfg")
	content := []byte("# Adds.\ndef add; end\n")

	_, ok := c.Lookup("lib/a.rb", content)
	assert.False(t, ok)

	require.NoError(t, c.Store("lib/a.rb", content, sampleOffenses()))

	got, ok := c.Lookup("lib/a.rb", content)
	require.True(t, ok)
	assert.Equal(t, sampleOffenses(), got)

	assert.Equal(t, Stats{Hits: 1, Misses: 1, Stores: 1}, c.Stats())
}

func TestCache_EmptyResult(t *testing.T) {
	c := openTest(t, "1.0.0", "cfg")
	content := []byte("def add; end\n")

	require.NoError(t, c.Store("lib/a.rb", content, nil))
	got, ok := c.Lookup("lib/a.rb", content)
	require.True(t, ok)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestCache_KeyChanges(t *testing.T) {
	c := openTest(t, "1.0.0", "cfg")
	content := []byte("def add; end\n")
	require.NoError(t, c.Store("lib/a.rb", content, sampleOffenses()))

	_, ok := c.Lookup("lib/a.rb", []byte("def add(a); end\n"))
	assert.False(t, ok, "content change must miss")

	_, ok = c.Lookup("lib/b.rb", content)
	assert.False(t, ok, "path change must miss")

	other := openTest(t, "1.0.1", "cfg")
	assert.NotEqual(t, c.Key("lib/a.rb", content), other.Key("lib/a.rb", content))

	digest := openTest(t, "1.0.0", "cfg2")
	assert.NotEqual(t, c.Key("lib/a.rb", content), digest.Key("lib/a.rb", content))
}

func TestCache_ClearAndLen(t *testing.T) {
	c := openTest(t, "1.0.0", "cfg")
	require.NoError(t, c.Store("a.rb", []byte("a"), nil))
	require.NoError(t, c.Store("b.rb", []byte("b"), nil))

	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, c.Clear())
	n, err = c.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCache_Persistent(t *testing.T) {
	dir := t.TempDir()
	content := []byte("def add; end\n")

	c, err := Open(Config{Dir: dir, Version: "1", RunDigest: "d"})
	require.NoError(t, err)
	require.NoError(t, c.Store("a.rb", content, sampleOffenses()))
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	reopened, err := Open(Config{Dir: dir, Version: "1", RunDigest: "d"})
	require.NoError(t, err)
	defer reopened.Close()

	got, ok := reopened.Lookup("a.rb", content)
	require.True(t, ok)
	assert.Len(t, got, 1)
}

func TestCache_Closed(t *testing.T) {
	c, err := OpenInMemory("1", "d")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	assert.ErrorIs(t, c.Store("a.rb", nil, nil), ErrClosed)
	_, ok := c.Lookup("a.rb", nil)
	assert.False(t, ok)
	assert.ErrorIs(t, c.Clear(), ErrClosed)
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := Open(Config{})
	assert.ErrorIs(t, err, ErrNoDir)
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg/yardcop", dir)
}

func TestCache_WithRunner(t *testing.T) {
	c := openTest(t, "1", "d")
	path := filepath.Join(t.TempDir(), "a.rb")
	require.NoError(t, os.WriteFile(path, []byte("# Adds.\ndef add; end\n"), 0o644))

	runner := lint.NewRunner(nil, []lint.Cop{yard.NewNoPeriod()}, lint.WithCache(c))

	first, err := runner.LintFile(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	require.Len(t, first.Offenses, 1)

	second, err := runner.LintFile(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Offenses[0].Message, second.Offenses[0].Message)
	assert.Equal(t, first.Offenses[0].Range, second.Offenses[0].Range)
}
