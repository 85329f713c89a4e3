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

import "strings"

// Cop names whose sections have typed views.
const (
	CopDocumentation = "YARD/Documentation"
	CopRequiredTags  = "YARD/RequiredTags"
)

// DocumentationConfig selects which declaration kinds must be documented.
// A flag counts only when it is literally true in YAML.
type DocumentationConfig struct {
	Attribute bool
	Class     bool
	Constant  bool
	Method    bool
	Module    bool
}

// Documentation returns the typed YARD/Documentation settings.
func (c *Config) Documentation() DocumentationConfig {
	s := c.Cop(CopDocumentation)
	return DocumentationConfig{
		Attribute: s.Bool(false, "Attribute"),
		Class:     s.Bool(false, "Class"),
		Constant:  s.Bool(false, "Constant"),
		Method:    s.Bool(false, "Method"),
		Module:    s.Bool(false, "Module"),
	}
}

// RequiredTagsConfig is the typed view of YARD/RequiredTags.
//
// Description:
//
//	Tag lists are tag names without the "@" marker. A missing list reads
//	as empty, and a missing Module list falls back to Class. Boolean
//	switches default to false when absent.
type RequiredTagsConfig struct {
	Attribute []string
	Class     []string
	Constant  []string
	Method    []string
	Module    []string

	RequireExampleOnPublicMethods bool
	RequireParams                 bool
	RequireRaise                  bool
	RequireYield                  bool

	ExcludedAttributes []string
	ExcludedClasses    []string
	ExcludedConstants  []string
	ExcludedMethods    []string
	ExcludedModules    []string
}

// RequiredTags returns the typed YARD/RequiredTags settings.
func (c *Config) RequiredTags() RequiredTagsConfig {
	s := c.Cop(CopRequiredTags)
	tags := s.Sub("RequiredTags")

	cfg := RequiredTagsConfig{
		Attribute: tags.Strings([]string{}, "Attribute"),
		Class:     tags.Strings([]string{}, "Class"),
		Constant:  tags.Strings([]string{}, "Constant"),
		Method:    tags.Strings([]string{}, "Method"),

		RequireExampleOnPublicMethods: s.Bool(false, "RequireExampleOnPublicMethods"),
		RequireParams:                 s.Bool(false, "RequireParams"),
		RequireRaise:                  s.Bool(false, "RequireRaise"),
		RequireYield:                  s.Bool(false, "RequireYield"),

		ExcludedAttributes: s.Strings(nil, "ExcludedAttributes"),
		ExcludedClasses:    s.Strings(nil, "ExcludedClasses"),
		ExcludedConstants:  s.Strings(nil, "ExcludedConstants"),
		ExcludedMethods:    s.Strings(nil, "ExcludedMethods"),
		ExcludedModules:    s.Strings(nil, "ExcludedModules"),
	}
	cfg.Module = tags.Strings(cfg.Class, "Module")
	return cfg
}

// Excluded reports whether name appears in list, comparing entries with
// surrounding whitespace trimmed.
func Excluded(list []string, name string) bool {
	name = strings.TrimSpace(name)
	for _, entry := range list {
		if strings.TrimSpace(entry) == name {
			return true
		}
	}
	return false
}
