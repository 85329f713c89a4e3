// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cops

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/yardcop/services/yardcop/config"
	"github.com/AleutianAI/yardcop/services/yardcop/lint"
)

type stubCop struct{ name string }

func (s stubCop) Name() string        { return s.name }
func (s stubCop) Description() string { return "stub" }

func TestDefault(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{
		"RSpec/ItIsExpected",
		"YARD/Description",
		"YARD/Documentation",
		"YARD/NoPeriod",
		"YARD/RequiredTags",
	}, r.Names())
	assert.Equal(t, []string{"RSpec", "YARD"}, r.Departments())

	cop, ok := r.ByName("YARD/NoPeriod")
	require.True(t, ok)
	assert.Equal(t, "YARD/NoPeriod", cop.Name())

	_, ok = r.ByName("YARD/Missing")
	assert.False(t, ok)
}

func TestDefault_EveryCopIsConfigured(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	configured := make(map[string]bool)
	for _, name := range cfg.CopNames() {
		configured[name] = true
	}
	for _, cop := range Default().All() {
		assert.True(t, configured[cop.Name()], "%s has no default configuration", cop.Name())
		assert.NotEmpty(t, cop.Description())
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register(nil)
	assert.Empty(t, r.All())

	r.Register(stubCop{name: "B/Two"})
	r.Register(stubCop{name: "A/One"})
	r.Register(stubCop{name: "B/Two"})
	assert.Equal(t, []string{"A/One", "B/Two"}, r.Names())
}

func TestDefault_RunsTogether(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	runner := lint.NewRunner(cfg, Default().All(), lint.WithConcurrency(1))

	src := "# Adds numbers.\n# @return [Integer]\ndef add; end\n"
	result, _, err := runner.LintContent(context.Background(), []byte(src), "lib/math.rb")
	require.NoError(t, err)

	cops := make(map[string]int)
	for _, o := range result.Offenses {
		cops[o.Cop]++
	}
	assert.Equal(t, 1, cops["YARD/NoPeriod"])
	assert.Equal(t, 1, cops["YARD/Description"])
	assert.Zero(t, cops["YARD/Documentation"])
	assert.Equal(t, 1, cops["YARD/RequiredTags"])
	assert.Zero(t, cops["RSpec/ItIsExpected"])
}

func TestRegistry_CheckNames(t *testing.T) {
	r := Default()

	assert.NoError(t, r.CheckNames(nil))
	assert.NoError(t, r.CheckNames([]string{"YARD", "rspec", "yard/noperiod"}))

	err := r.CheckNames([]string{"YARD/Nope", "Lint"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCop))
	assert.Contains(t, err.Error(), `"YARD/Nope"`)
	assert.Contains(t, err.Error(), `"Lint"`)
}
