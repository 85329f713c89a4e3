// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "embedded", cfg.Source())
	assert.NotEmpty(t, cfg.Digest())
	assert.Equal(t, []string{
		"RSpec/ItIsExpected",
		"YARD/Description",
		"YARD/Documentation",
		"YARD/NoPeriod",
		"YARD/RequiredTags",
	}, cfg.CopNames())

	s := cfg.Settings("YARD/NoPeriod")
	assert.True(t, s.Enabled)
	assert.Equal(t, "convention", s.Severity)
}

func TestParse_MergesOverDefault(t *testing.T) {
	yml := `
YARD/NoPeriod:
  Enabled: false
YARD/RequiredTags:
  RequiredTags:
    Method:
      - return
`
	cfg, err := Parse(context.Background(), []byte(yml), "test.yml")
	require.NoError(t, err)

	assert.False(t, cfg.Settings("YARD/NoPeriod").Enabled)
	assert.Equal(t, "convention", cfg.Settings("YARD/NoPeriod").Severity, "untouched keys survive the merge")

	rt := cfg.RequiredTags()
	assert.Equal(t, []string{"return"}, rt.Method)
	assert.Equal(t, []string{"api", "author", "since"}, rt.Class, "sibling lists keep their defaults")
	assert.True(t, rt.RequireParams)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{"not yaml", "YARD/NoPeriod: [unclosed"},
		{"bad severity", "YARD/NoPeriod:\n  Severity: loud\n"},
		{"string enabled", "YARD/NoPeriod:\n  Enabled: \"yes\"\n"},
		{"bad glob", "YARD/NoPeriod:\n  Exclude:\n    - \"[a-\"\n"},
		{"bad minimum version", "AllCops:\n  MinimumVersion: \"next\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), []byte(tt.yml), "bad.yml")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(p, []byte("YARD/Description:\n  Enabled: false\n"), 0o644))

	cfg, err := Load(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, p, cfg.Source())
	assert.False(t, cfg.Settings("YARD/Description").Enabled)
}

func TestLoad_EnvAndMissing(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "env.yml")
	require.NoError(t, os.WriteFile(p, []byte("YARD/NoPeriod:\n  Enabled: false\n"), 0o644))

	t.Setenv(EnvConfigPath, p)
	cfg, err := Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, p, cfg.Source())

	_, err = Load(context.Background(), filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}

func TestLoad_TooLarge(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "big.yml")
	big := make([]byte, MaxYAMLFileSize+1)
	for i := range big {
		big[i] = '#'
	}
	require.NoError(t, os.WriteFile(p, big, 0o644))

	_, err := Load(context.Background(), p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfigTooLarge))
}

func TestMerge_DoesNotMutate(t *testing.T) {
	base := map[string]any{"a": map[string]any{"x": 1, "y": 2}, "list": []any{"p"}}
	override := map[string]any{"a": map[string]any{"y": 3}, "list": []any{"q"}}

	out := Merge(base, override)

	assert.Equal(t, map[string]any{"x": 1, "y": 3}, out["a"])
	assert.Equal(t, []any{"q"}, out["list"])
	assert.Equal(t, map[string]any{"x": 1, "y": 2}, base["a"])
	assert.Equal(t, []any{"p"}, base["list"])
}

func TestSection(t *testing.T) {
	s := NewSection(map[string]any{
		"flag":   true,
		"quoted": "true",
		"name":   "x",
		"one":    "solo",
		"many":   []any{" a ", "b", nil, 3},
		"nested": map[string]any{"deep": true},
	})

	assert.True(t, s.Bool(false, "flag"))
	assert.False(t, s.Bool(false, "quoted"), "only literal booleans count")
	assert.True(t, s.Bool(true, "absent"))
	assert.Equal(t, "x", s.String("", "name"))
	assert.Equal(t, []string{"solo"}, s.Strings(nil, "one"))
	assert.Equal(t, []string{"a", "b", "3"}, s.Strings(nil, "many"))
	assert.True(t, s.Bool(false, "nested", "deep"))
	assert.True(t, s.Sub("nested").Has("deep"))
	assert.False(t, s.Has("nested", "missing"))
	assert.Nil(t, s.Strings(nil, "absent"))
}

func TestRequiredTags_Defaults(t *testing.T) {
	cfg, err := FromMap(map[string]any{
		CopRequiredTags: map[string]any{
			"RequiredTags": map[string]any{"Class": []any{"since"}},
		},
	})
	require.NoError(t, err)

	rt := cfg.RequiredTags()
	assert.Equal(t, []string{"since"}, rt.Class)
	assert.Equal(t, []string{"since"}, rt.Module, "module falls back to class")

	empty := NewSection(nil)
	assert.Equal(t, []string{}, empty.Sub("RequiredTags").Strings([]string{}, "Attribute"))
}

func TestRequiredTags_ExplicitModule(t *testing.T) {
	cfg, err := FromMap(map[string]any{
		CopRequiredTags: map[string]any{
			"RequireParams": "yes",
			"RequiredTags":  map[string]any{"Module": []any{"author"}},
		},
	})
	require.NoError(t, err)

	rt := cfg.RequiredTags()
	assert.Equal(t, []string{"author"}, rt.Module)
	assert.Equal(t, []string{"api", "author", "since"}, rt.Class)
	assert.False(t, rt.RequireParams, "non-boolean switches read as false")
}

func TestExcluded(t *testing.T) {
	list := []string{" Foo ", "bar"}
	assert.True(t, Excluded(list, "Foo"))
	assert.True(t, Excluded(list, " bar"))
	assert.False(t, Excluded(list, "baz"))
	assert.False(t, Excluded(nil, "Foo"))
}

func TestDocumentation(t *testing.T) {
	cfg, err := FromMap(map[string]any{
		CopDocumentation: map[string]any{"Method": false, "Constant": "true"},
	})
	require.NoError(t, err)

	doc := cfg.Documentation()
	assert.False(t, doc.Method)
	assert.False(t, doc.Constant)
	assert.True(t, doc.Class)
}

func TestMatchPath(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"**/*_spec.rb", "spec/models/user_spec.rb", true},
		{"**/*_spec.rb", "user_spec.rb", true},
		{"**/*_spec.rb", "lib/user.rb", false},
		{"vendor/**/*", "vendor/gems/a.rb", true},
		{"vendor/**/*", "/home/me/app/vendor/a.rb", false},
		{"**/vendor/**/*", "app/vendor/a.rb", true},
		{"lib/**/*", "lib/a/b/c.rb", true},
		{"vendor/**/*", "lib/vendor.rb", false},
		{"lib/*.rb", "lib/a.rb", true},
		{"lib/*.rb", "lib/x/a.rb", false},
		{"test/**/*_test.rb", "test/a_test.rb", true},
		{"test/**/*_test.rb", "test/unit/a_test.rb", true},
		{"test/**/*_test.rb", "spec/a_test.rb", false},
		{"a/**/b/**/c/**/*.rb", "a/b/c/d.rb", true},
		{"a/**/b/**/c/**/*.rb", "a/x/y/b/z/c/q/r/d.rb", true},
		{"a/**/b/**/c/**/*.rb", "a/x/b/y/d.rb", false},
		{"{lib,app}/**/*.rb", "app/models/user.rb", true},
		{"[a-", "[a-", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchPath(tt.pattern, tt.path))
		})
	}
}

func TestMatchPath_ManyDoubleStars(t *testing.T) {
	pattern := "a/**/b/**/c/**/d/**/e/**/*.rb"
	segments := make([]string, 0, 64)
	segments = append(segments, "a")
	for i := 0; i < 60; i++ {
		segments = append(segments, "x")
	}
	p := strings.Join(append(segments, "z.rb"), "/")

	done := make(chan bool, 1)
	go func() { done <- MatchPath(pattern, p) }()
	select {
	case got := <-done:
		assert.False(t, got)
	case <-time.After(5 * time.Second):
		t.Fatal("MatchPath did not return")
	}
}

func TestValidate_GlobPatterns(t *testing.T) {
	cfg, err := FromMap(map[string]any{
		"YARD/NoPeriod": map[string]any{"Exclude": []any{"a/**/b/**/c/**/*.rb", "{lib,app}/**/*"}},
	})
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())

	cfg, err = FromMap(map[string]any{
		"YARD/NoPeriod": map[string]any{"Include": []any{"lib/[a-/*.rb"}},
	})
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestRelativePath(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, "lib/a.rb", RelativePath(filepath.Join(wd, "lib", "a.rb")))
	assert.Equal(t, "lib/a.rb", RelativePath("./lib/a.rb"))
	assert.Equal(t, "/elsewhere/a.rb", RelativePath("/elsewhere/a.rb"))
}

func TestAppliesTo(t *testing.T) {
	cfg, err := FromMap(map[string]any{
		"YARD/NoPeriod": map[string]any{"Exclude": []any{"legacy/**/*"}},
	})
	require.NoError(t, err)

	assert.True(t, cfg.AppliesTo("YARD/NoPeriod", "lib/a.rb"))
	assert.False(t, cfg.AppliesTo("YARD/NoPeriod", "legacy/a.rb"))
	assert.False(t, cfg.AppliesTo("YARD/Description", "vendor/x/a.rb"), "AllCops exclude applies")
	assert.True(t, cfg.AppliesTo("RSpec/ItIsExpected", "spec/a_spec.rb"))
	assert.True(t, cfg.AppliesTo("RSpec/ItIsExpected", "./spec/models/a_spec.rb"))
	assert.False(t, cfg.AppliesTo("RSpec/ItIsExpected", "lib/a.rb"), "include list must match")
}
