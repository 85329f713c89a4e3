// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package yard

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/yardcop/services/yardcop/config"
	"github.com/AleutianAI/yardcop/services/yardcop/lint"
	"github.com/AleutianAI/yardcop/services/yardcop/node"
	yarddoc "github.com/AleutianAI/yardcop/services/yardcop/yard"
)

// RequiredTagsMessage is formatted with the missing tags, e.g.
// "@api, @since".
const RequiredTagsMessage = "Missing required YARD tag(s): %s"

// RequiredTags checks documented declarations for the tags configured for
// their kind.
//
// Description:
//
//	Only declarations with a non-empty comment block are checked, and
//	classes and modules only when nothing is nested inside them. Missing
//	tags are the configured tags for the kind in configured order, followed
//	for methods by the conditional tags below, in this order:
//
//	  param    RequireParams and some parameter has no matching @param
//	  example  RequireExampleOnPublicMethods and the method is public
//	  raise    RequireRaise and the body calls raise or fail
//	  yield    RequireYield and the body yields
//
//	All missing tags are reported in one offense over the declaration.
//	Names listed under the kind's Excluded* key are skipped.
type RequiredTags struct {
	declarationHooks
}

// NewRequiredTags creates the YARD/RequiredTags cop.
func NewRequiredTags() *RequiredTags {
	r := &RequiredTags{}
	r.declarationHooks = declarationHooks{check: r.check}
	return r
}

// Name implements lint.Cop.
func (r *RequiredTags) Name() string { return config.CopRequiredTags }

// Description implements lint.Cop.
func (r *RequiredTags) Description() string {
	return "Requires configured YARD tags on documented declarations."
}

func (r *RequiredTags) check(c *lint.Context, w node.Wrapper) {
	doc := w.Docstring()
	if doc == nil || doc.Empty() {
		return
	}

	cfg := c.Config.RequiredTags()
	required, ok := configuredTags(cfg, w)
	if !ok {
		return
	}

	missing := newTagSet()
	for _, tag := range required {
		if !doc.HasTag(tag) {
			missing.add(tag)
		}
	}
	if m, isMethod := w.(*node.Method); isMethod {
		for _, tag := range conditionalTags(cfg, m, doc) {
			missing.add(tag)
		}
	}

	if len(missing.order) == 0 {
		return
	}
	c.Report(w.Range(), fmt.Sprintf(RequiredTagsMessage, "@"+strings.Join(missing.order, ", @")))
}

// configuredTags returns the tag list for w's kind. ok is false when w is
// excluded by name or is a class or module with nested declarations.
func configuredTags(cfg config.RequiredTagsConfig, w node.Wrapper) (tags []string, ok bool) {
	switch v := w.(type) {
	case *node.Module:
		if !v.InnermostConstant() {
			return nil, false
		}
		excluded := cfg.ExcludedModules
		tags = cfg.Module
		if v.IsClass() {
			excluded = cfg.ExcludedClasses
			tags = cfg.Class
		}
		if config.Excluded(excluded, v.QualifiedName()) || config.Excluded(excluded, v.Name()) {
			return nil, false
		}
		return tags, true
	case *node.Method:
		return cfg.Method, !config.Excluded(cfg.ExcludedMethods, v.Name())
	case *node.Constant:
		return cfg.Constant, !config.Excluded(cfg.ExcludedConstants, v.Name())
	case *node.Attribute:
		for _, name := range v.AttributeNames() {
			if config.Excluded(cfg.ExcludedAttributes, name) {
				return nil, false
			}
		}
		return cfg.Attribute, true
	}
	return nil, false
}

// conditionalTags returns the method tags required by the method's shape
// that the docstring lacks.
func conditionalTags(cfg config.RequiredTagsConfig, m *node.Method, doc *yarddoc.Docstring) []string {
	var out []string
	if cfg.RequireParams && m.HasParams() && hasUndocumentedParam(m, doc) {
		out = append(out, "param")
	}
	if cfg.RequireExampleOnPublicMethods && m.IsPublic() && !doc.HasTag("example") {
		out = append(out, "example")
	}
	if cfg.RequireRaise && m.Raises() && !doc.HasTag("raise") {
		out = append(out, "raise")
	}
	if cfg.RequireYield && m.Yields() && !doc.HasTag("yield") {
		out = append(out, "yield")
	}
	return out
}

func hasUndocumentedParam(m *node.Method, doc *yarddoc.Docstring) bool {
	documented := make(map[string]bool)
	for _, t := range doc.TagsNamed("param") {
		documented[t.Label] = true
	}
	names := m.ParamNames()
	if len(names) == 0 {
		// Only anonymous or destructured parameters: any @param will do.
		return !doc.HasTag("param")
	}
	for _, name := range names {
		if !documented[name] {
			return true
		}
	}
	return false
}

// tagSet keeps tags in first-seen order without duplicates.
type tagSet struct {
	seen  map[string]bool
	order []string
}

func newTagSet() *tagSet {
	return &tagSet{seen: make(map[string]bool)}
}

func (s *tagSet) add(tag string) {
	if s.seen[tag] {
		return
	}
	s.seen[tag] = true
	s.order = append(s.order, tag)
}
