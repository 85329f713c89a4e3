// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"github.com/AleutianAI/yardcop/services/yardcop/lint"
)

// LintRequest is the body of POST /v1/yardcop/lint.
type LintRequest struct {
	// Path names the file the source belongs to. It selects the parser and
	// is matched against Include and Exclude patterns. Required.
	Path string `json:"path" binding:"required"`

	// Source is the file content. An empty source is linted as-is.
	Source string `json:"source"`

	// Autocorrect returns the corrected source in LintResponse.Corrected.
	// Nothing is written to disk.
	Autocorrect bool `json:"autocorrect"`

	// Only and Except select cops or departments, like the CLI flags.
	Only   []string `json:"only,omitempty"`
	Except []string `json:"except,omitempty"`
}

// LintResponse is the response for POST /v1/yardcop/lint.
type LintResponse struct {
	// Result holds the offenses. Nil when Excluded is true.
	Result *lint.FileResult `json:"result,omitempty"`

	// Corrected is the source after autocorrection. Set only when the
	// request asked for autocorrect.
	Corrected *string `json:"corrected,omitempty"`

	// Excluded is true when Path matches AllCops.Exclude.
	Excluded bool `json:"excluded,omitempty"`

	Summary lint.Summary `json:"summary"`
}

// CopInfo describes one cop in GET /v1/yardcop/cops.
type CopInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
	Severity    string `json:"severity"`
}

// CopsResponse is the response for GET /v1/yardcop/cops.
type CopsResponse struct {
	Cops []CopInfo `json:"cops"`
}

// HealthResponse is the response for GET /v1/yardcop/health.
type HealthResponse struct {
	// Status is always "healthy" while the process serves requests.
	Status string `json:"status"`

	// Version is the yardcop version.
	Version string `json:"version"`

	// ConfigSource names the loaded configuration file.
	ConfigSource string `json:"config_source"`
}

// ErrorResponse is returned for all error cases.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code (optional).
	Code string `json:"code,omitempty"`
}
