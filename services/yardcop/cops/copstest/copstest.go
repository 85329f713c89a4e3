// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package copstest runs a single cop over annotated Ruby source in tests.
//
// Expected offenses are written under the offending line as a run of
// carets spanning the offense, followed by "Cop/Name: message":
//
//	copstest.ExpectOffense(t, cop, `
//	# Adds numbers.
//	^^^^^^^^^^^^^^^ YARD/NoPeriod: YARD docstring lines should not end with periods
//	def add(a, b); end
//	`)
//
// For an offense spanning several lines the carets cover its part of the
// first line.
package copstest

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/yardcop/services/yardcop/config"
	"github.com/AleutianAI/yardcop/services/yardcop/lint"
)

// DefaultPath is the file name offenses are reported against.
const DefaultPath = "example.rb"

var annotationPattern = regexp.MustCompile(`^(\s*)(\^+) (.+)$`)

type harness struct {
	path      string
	overrides map[string]any
}

// Option configures a harness run.
type Option func(*harness)

// WithPath sets the file path, for cops limited by an Include list.
func WithPath(path string) Option {
	return func(h *harness) {
		h.path = path
	}
}

// WithConfig deep-merges a configuration map over the embedded defaults,
// e.g. {"YARD/Documentation": {"Method": false}}.
func WithConfig(overrides map[string]any) Option {
	return func(h *harness) {
		h.overrides = config.Merge(h.overrides, overrides)
	}
}

func newHarness(opts []Option) *harness {
	h := &harness{path: DefaultPath, overrides: map[string]any{}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *harness) runner(t *testing.T, cop lint.Cop, autocorrect bool) *lint.Runner {
	t.Helper()
	cfg, err := config.FromMap(h.overrides)
	require.NoError(t, err)
	return lint.NewRunner(cfg, []lint.Cop{cop},
		lint.WithPolicy(lint.NewRulePolicy(cfg, []string{cop.Name()}, nil)),
		lint.WithAutocorrect(autocorrect),
		lint.WithConcurrency(1),
	)
}

// Offenses runs cop over src and returns what it reports.
func Offenses(t *testing.T, cop lint.Cop, src string, opts ...Option) []lint.Offense {
	t.Helper()
	h := newHarness(opts)
	result, _, err := h.runner(t, cop, false).LintContent(context.Background(), []byte(trimLeadingNewline(src)), h.path)
	require.NoError(t, err)
	require.Empty(t, result.CopErrors, "cop panicked")
	return result.Offenses
}

// Correct runs cop with autocorrect and returns the corrected source.
func Correct(t *testing.T, cop lint.Cop, src string, opts ...Option) string {
	t.Helper()
	h := newHarness(opts)
	_, out, err := h.runner(t, cop, true).LintContent(context.Background(), []byte(trimLeadingNewline(src)), h.path)
	require.NoError(t, err)
	return string(out)
}

// ExpectOffense checks that cop reports exactly the annotated offenses and
// returns them.
func ExpectOffense(t *testing.T, cop lint.Cop, annotated string, opts ...Option) []lint.Offense {
	t.Helper()
	src, want := parseAnnotations(t, trimLeadingNewline(annotated))
	offenses := Offenses(t, cop, src, opts...)
	require.Equal(t, want, describe(src, offenses), "offenses for:\n%s", src)
	return offenses
}

// ExpectNoOffenses checks that cop reports nothing for src.
func ExpectNoOffenses(t *testing.T, cop lint.Cop, src string, opts ...Option) {
	t.Helper()
	offenses := Offenses(t, cop, src, opts...)
	require.Empty(t, describe(trimLeadingNewline(src), offenses))
}

// ExpectCorrection checks the annotated offenses, then that autocorrect
// produces corrected and that corrected is clean.
func ExpectCorrection(t *testing.T, cop lint.Cop, annotated, corrected string, opts ...Option) {
	t.Helper()
	ExpectOffense(t, cop, annotated, opts...)
	src, _ := parseAnnotations(t, trimLeadingNewline(annotated))
	want := trimLeadingNewline(corrected)
	require.Equal(t, want, Correct(t, cop, src, opts...))
	ExpectNoOffenses(t, cop, want, opts...)
}

func trimLeadingNewline(s string) string {
	return strings.TrimPrefix(s, "\n")
}

// parseAnnotations splits annotated source into plain source and the
// expected offense descriptions.
func parseAnnotations(t *testing.T, annotated string) (string, []string) {
	t.Helper()
	var (
		source []string
		want   []string
	)
	for _, line := range strings.Split(annotated, "\n") {
		m := annotationPattern.FindStringSubmatch(line)
		if m == nil {
			source = append(source, line)
			continue
		}
		require.NotEmpty(t, source, "annotation before any source line: %q", line)
		want = append(want, fmt.Sprintf("%d:%d:%d %s", len(source), len(m[1])+1, len(m[2]), m[3]))
	}
	sort.Strings(want)
	if want == nil {
		want = []string{}
	}
	return strings.Join(source, "\n"), want
}

// describe renders offenses in the annotation format for comparison.
func describe(src string, offenses []lint.Offense) []string {
	lines := strings.Split(src, "\n")
	out := make([]string, 0, len(offenses))
	for _, o := range offenses {
		r := o.Range
		width := r.EndColumn - r.StartColumn
		if r.EndLine != r.StartLine && r.StartLine >= 1 && r.StartLine <= len(lines) {
			width = len(lines[r.StartLine-1]) - r.StartColumn + 1
		}
		out = append(out, fmt.Sprintf("%d:%d:%d %s: %s", r.StartLine, r.StartColumn, width, o.Cop, o.Message))
	}
	sort.Strings(out)
	return out
}
