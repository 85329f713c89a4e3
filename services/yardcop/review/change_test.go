// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package review

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/yardcop/services/yardcop/config"
	"github.com/AleutianAI/yardcop/services/yardcop/cops/yard"
	"github.com/AleutianAI/yardcop/services/yardcop/lint"
)

func TestHunks_Replace(t *testing.T) {
	hunks := Hunks([]byte("a\nb.\nc\n"), []byte("a\nb\nc\n"), 1)
	require.Len(t, hunks, 1)

	h := hunks[0]
	assert.Equal(t, "@@ -1,3 +1,3 @@", h.Header())
	assert.Equal(t, []Line{
		{Kind: LineContext, Text: "a", OldNum: 1, NewNum: 1},
		{Kind: LineRemoved, Text: "b.", OldNum: 2},
		{Kind: LineAdded, Text: "b", NewNum: 2},
		{Kind: LineContext, Text: "c", OldNum: 3, NewNum: 3},
	}, h.Lines)
}

func TestHunks_Insert(t *testing.T) {
	old := []byte("# Desc\n# @return [X]\ndef a; end\n")
	updated := []byte("# Desc\n#\n# @return [X]\ndef a; end\n")

	change := &Change{Hunks: Hunks(old, updated, 3)}
	require.Len(t, change.Hunks, 1)
	added, removed := change.LineStats()
	assert.Equal(t, 1, added)
	assert.Equal(t, 0, removed)
	assert.Equal(t, Line{Kind: LineAdded, Text: "#", NewNum: 2}, change.Hunks[0].Lines[1])
}

func TestHunks_Identical(t *testing.T) {
	assert.Empty(t, Hunks([]byte("a\n"), []byte("a\n"), 3))
}

func newCorrectingRunner(t *testing.T) *lint.Runner {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	return lint.NewRunner(cfg, []lint.Cop{yard.NewNoPeriod()}, lint.WithAutocorrect(true))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProposeAndApply(t *testing.T) {
	dir := t.TempDir()
	dirty := writeFile(t, dir, "dirty.rb", "# Adds numbers.\ndef add; end\n")
	clean := writeFile(t, dir, "clean.rb", "# Adds numbers\ndef add; end\n")

	changes, err := Propose(context.Background(), newCorrectingRunner(t), []string{clean, dirty}, 3)
	require.NoError(t, err)
	require.Len(t, changes, 1)

	change := changes[0]
	assert.Equal(t, dirty, change.Path)
	assert.Equal(t, "# Adds numbers\ndef add; end\n", string(change.Proposed))
	require.Len(t, change.Corrected, 1)
	assert.Equal(t, "YARD/NoPeriod", change.Corrected[0].Cop)

	data, err := os.ReadFile(dirty)
	require.NoError(t, err)
	assert.Equal(t, "# Adds numbers.\ndef add; end\n", string(data), "Propose must not write")

	result := NewResult()
	result.Decisions[dirty] = DecisionAccepted
	written, err := Apply(changes, result)
	require.NoError(t, err)
	assert.Equal(t, []string{dirty}, written)

	data, err = os.ReadFile(dirty)
	require.NoError(t, err)
	assert.Equal(t, "# Adds numbers\ndef add; end\n", string(data))
}

func TestApply_SkipsRejectedAndCancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.rb", "# Doc.\ndef a; end\n")

	changes, err := Propose(context.Background(), newCorrectingRunner(t), []string{path}, 3)
	require.NoError(t, err)
	require.Len(t, changes, 1)

	rejected := NewResult()
	rejected.Decisions[path] = DecisionRejected
	written, err := Apply(changes, rejected)
	require.NoError(t, err)
	assert.Empty(t, written)

	cancelled := NewResult()
	cancelled.Decisions[path] = DecisionAccepted
	cancelled.Cancelled = true
	written, err = Apply(changes, cancelled)
	require.NoError(t, err)
	assert.Empty(t, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Doc.\ndef a; end\n", string(data))
}

func TestApply_FileChanged(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.rb", "# Doc.\ndef a; end\n")

	changes, err := Propose(context.Background(), newCorrectingRunner(t), []string{path}, 3)
	require.NoError(t, err)
	require.Len(t, changes, 1)

	require.NoError(t, os.WriteFile(path, []byte("# Edited.\ndef a; end\n"), 0o644))

	result := NewResult()
	result.Decisions[path] = DecisionAccepted
	written, err := Apply(changes, result)
	assert.Empty(t, written)
	assert.True(t, errors.Is(err, ErrFileChanged), "got %v", err)
}

func TestPropose_ReportsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "a.rb", "# Doc.\ndef a; end\n")

	changes, err := Propose(context.Background(), newCorrectingRunner(t), []string{filepath.Join(dir, "missing.rb"), good}, 3)
	require.Error(t, err)
	assert.Len(t, changes, 1)
}

func TestResult_Accepted(t *testing.T) {
	r := NewResult()
	r.Decisions["b.rb"] = DecisionAccepted
	r.Decisions["a.rb"] = DecisionAccepted
	r.Decisions["c.rb"] = DecisionSkipped
	assert.Equal(t, []string{"a.rb", "b.rb"}, r.Accepted())

	assert.True(t, DecisionSkipped.IsTerminal())
	assert.False(t, DecisionPending.IsTerminal())
}
