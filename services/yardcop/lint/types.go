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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AleutianAI/yardcop/services/yardcop/ast"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidInput indicates a programming error such as a nil context.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInfiniteCorrection is returned when autocorrect keeps producing
	// edits after MaxCorrectionIterations passes.
	ErrInfiniteCorrection = errors.New("infinite autocorrection loop")

	// ErrUnknownSeverity is returned by ParseSeverity for unknown names.
	ErrUnknownSeverity = errors.New("unknown severity")
)

// CopError records a cop that panicked while inspecting a file.
type CopError struct {
	Cop   string
	File  string
	Value any
}

// Error implements error.
func (e *CopError) Error() string {
	return fmt.Sprintf("cop %s panicked on %s: %v", e.Cop, e.File, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *CopError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// =============================================================================
// SEVERITY
// =============================================================================

// Severity ranks offenses. Higher values are more severe.
type Severity int

const (
	// SeverityInfo is informational only.
	SeverityInfo Severity = iota

	// SeverityConvention is a style convention; the default for cops.
	SeverityConvention

	// SeverityWarning marks a likely mistake.
	SeverityWarning

	// SeverityError marks a definite problem.
	SeverityError

	// SeverityFatal is reserved for failures of the host itself.
	SeverityFatal
)

// String returns the string representation of a Severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityConvention:
		return "convention"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Code returns the one-letter code used by the text formatter.
func (s Severity) Code() string {
	switch s {
	case SeverityInfo:
		return "I"
	case SeverityConvention:
		return "C"
	case SeverityWarning:
		return "W"
	case SeverityError:
		return "E"
	case SeverityFatal:
		return "F"
	default:
		return "?"
	}
}

// ParseSeverity converts a configured severity name. Common aliases are
// accepted ("warn", "err", "note", "style").
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fatal", "critical":
		return SeverityFatal, nil
	case "error", "err":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "convention", "style", "refactor":
		return SeverityConvention, nil
	case "info", "note", "hint":
		return SeverityInfo, nil
	default:
		return SeverityConvention, fmt.Errorf("%w: %q", ErrUnknownSeverity, s)
	}
}

// SeverityFromString is ParseSeverity without the error. Unknown and empty
// names map to SeverityConvention.
func SeverityFromString(s string) Severity {
	sev, _ := ParseSeverity(s)
	return sev
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	sev, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = sev
	return nil
}

// =============================================================================
// OFFENSES AND RESULTS
// =============================================================================

// Offense is one problem reported by a cop.
type Offense struct {
	// Cop is the reporting cop's name, e.g. "YARD/NoPeriod".
	Cop string `json:"cop_name"`

	// Severity comes from the cop's configuration.
	Severity Severity `json:"severity"`

	// Message is the human-readable description.
	Message string `json:"message"`

	// File is the path of the inspected file.
	File string `json:"file"`

	// Range locates the offense in the file.
	Range ast.Range `json:"location"`

	// Correctable is true when the cop supplied a fix.
	Correctable bool `json:"correctable"`

	// Corrected is true when the fix was applied in this run.
	Corrected bool `json:"corrected"`

	fix []Edit
}

// Fix returns the edits attached to the offense, if any.
func (o Offense) Fix() []Edit {
	return o.fix
}

// Line returns the 1-based line of the offense.
func (o Offense) Line() int {
	return o.Range.StartLine
}

// Column returns the 1-based column of the offense.
func (o Offense) Column() int {
	return o.Range.StartColumn
}

// FileResult is the outcome of linting one file.
type FileResult struct {
	// Path is the file path as given to the runner.
	Path string `json:"path"`

	// Offenses in source order.
	Offenses []Offense `json:"offenses"`

	// CorrectedCount is the number of offenses fixed by autocorrect.
	CorrectedCount int `json:"corrected_count,omitempty"`

	// SyntaxErrors are parse errors recorded by the parser. Cops still run.
	SyntaxErrors []string `json:"syntax_errors,omitempty"`

	// CopErrors records cops that panicked on this file.
	CopErrors []string `json:"cop_errors,omitempty"`

	// Cached is true when the result came from the cache.
	Cached bool `json:"cached,omitempty"`

	// Duration is the time spent on the file.
	Duration time.Duration `json:"duration"`
}

// HasOffenses returns true if any offense was reported.
func (r *FileResult) HasOffenses() bool {
	return len(r.Offenses) > 0
}

// CountAtLeast counts offenses at or above the given severity that were
// not corrected.
func (r *FileResult) CountAtLeast(level Severity) int {
	n := 0
	for _, o := range r.Offenses {
		if !o.Corrected && o.Severity >= level {
			n++
		}
	}
	return n
}

// Summary aggregates a run.
type Summary struct {
	Files     int `json:"inspected_file_count"`
	Offenses  int `json:"offense_count"`
	Corrected int `json:"corrected_count"`
	Errors    int `json:"error_count"`
}

// Summarize builds a Summary from file results.
func Summarize(results []*FileResult) Summary {
	var s Summary
	for _, r := range results {
		if r == nil {
			continue
		}
		s.Files++
		s.Offenses += len(r.Offenses)
		s.Corrected += r.CorrectedCount
		s.Errors += len(r.CopErrors)
	}
	return s
}

// FailLevel decides whether a run failed.
//
// Description:
//
//	A run fails when any uncorrected offense has a severity at or above
//	the level. The zero value fails on every offense.
type FailLevel struct {
	Level Severity
}

// Failed reports whether results contain an offense at or above the level.
func (f FailLevel) Failed(results []*FileResult) bool {
	for _, r := range results {
		if r != nil && r.CountAtLeast(f.Level) > 0 {
			return true
		}
	}
	return false
}
