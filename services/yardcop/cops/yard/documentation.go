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

	"github.com/AleutianAI/yardcop/services/yardcop/config"
	"github.com/AleutianAI/yardcop/services/yardcop/lint"
	"github.com/AleutianAI/yardcop/services/yardcop/node"
)

// DocumentationMessage is formatted with the declaration type and name.
const DocumentationMessage = "Missing YARD documentation for `%s %s`"

// Documentation requires a description on every declaration kind enabled in
// its configuration.
//
// Description:
//
//	A declaration is undocumented when its comment block has no description
//	text, which includes having no comments at all. Classes and modules are
//	only checked when nothing is nested inside them and are named by their
//	fully qualified name. A block that fails to parse is skipped.
type Documentation struct {
	declarationHooks
}

// NewDocumentation creates the YARD/Documentation cop.
func NewDocumentation() *Documentation {
	d := &Documentation{}
	d.declarationHooks = declarationHooks{check: d.check}
	return d
}

// Name implements lint.Cop.
func (d *Documentation) Name() string { return config.CopDocumentation }

// Description implements lint.Cop.
func (d *Documentation) Description() string {
	return "Requires YARD documentation on classes, modules, methods, constants and attributes."
}

func (d *Documentation) check(c *lint.Context, w node.Wrapper) {
	doc := w.Docstring()
	if doc == nil || doc.Description != "" {
		return
	}

	kind, name, ok := d.subject(c.Config.Documentation(), w)
	if !ok {
		return
	}
	c.Report(w.Range(), fmt.Sprintf(DocumentationMessage, kind, name))
}

// subject returns the reported type and name of w, or ok == false when w's
// kind is not enabled.
func (d *Documentation) subject(flags config.DocumentationConfig, w node.Wrapper) (kind, name string, ok bool) {
	switch v := w.(type) {
	case *node.Module:
		if !v.InnermostConstant() {
			return "", "", false
		}
		if v.IsClass() {
			return v.Keyword(), v.QualifiedName(), flags.Class
		}
		return v.Keyword(), v.QualifiedName(), flags.Module
	case *node.Method:
		return "method", v.Name(), flags.Method
	case *node.Constant:
		return "constant", v.Name(), flags.Constant
	case *node.Attribute:
		return "attribute", v.Name(), flags.Attribute
	}
	return "", "", false
}
