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
	"strings"

	"github.com/AleutianAI/yardcop/services/yardcop/config"
)

// RulePolicy decides which cops run and at what severity.
//
// Description:
//
//	Only and Except hold cop names or department names ("YARD" selects
//	every YARD/ cop). Except wins over Only. Severities come from each
//	cop's configured Severity, defaulting to convention.
type RulePolicy struct {
	// Only restricts the run to matching cops. Empty means all.
	Only []string

	// Except removes matching cops from the run.
	Except []string

	cfg *config.Config
}

// NewRulePolicy creates a policy reading severities from cfg.
func NewRulePolicy(cfg *config.Config, only, except []string) *RulePolicy {
	return &RulePolicy{Only: only, Except: except, cfg: cfg}
}

// Selected reports whether a cop is enabled and passes the Only/Except
// filters. A cop named in Only runs even when disabled in configuration.
func (p *RulePolicy) Selected(cop string) bool {
	for _, pattern := range p.Except {
		if matchesCop(cop, pattern) {
			return false
		}
	}
	if len(p.Only) > 0 {
		for _, pattern := range p.Only {
			if matchesCop(cop, pattern) {
				return true
			}
		}
		return false
	}
	if p.cfg == nil {
		return true
	}
	return p.cfg.Settings(cop).Enabled
}

// Severity returns the configured severity of a cop.
func (p *RulePolicy) Severity(cop string) Severity {
	if p.cfg == nil {
		return SeverityConvention
	}
	return SeverityFromString(p.cfg.Settings(cop).Severity)
}

// matchesCop checks if a cop name matches a pattern.
// Supports exact match and department prefix (e.g., "YARD" matches "YARD/NoPeriod").
func matchesCop(cop, pattern string) bool {
	cop = strings.ToLower(cop)
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return false
	}
	if cop == pattern {
		return true
	}
	return strings.HasPrefix(cop, pattern+"/")
}

// SplitList splits a comma-separated flag value, dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
