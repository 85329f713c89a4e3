// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rspec holds cops for RSpec spec files.
package rspec

import (
	"strings"

	"github.com/AleutianAI/yardcop/services/yardcop/ast"
	"github.com/AleutianAI/yardcop/services/yardcop/lint"
)

// ItIsExpectedMessage is reported at the `it` selector.
const ItIsExpectedMessage = "Described RSpec `it` blocks should start with \"is expected\""

const expectedPrefix = "is expected"

// ItIsExpected requires `it "..."` descriptions to start with "is expected".
//
// Only receiver-less `it` calls whose first argument is a plain string
// literal are checked; `it { ... }` and interpolated descriptions are left
// alone. The default configuration limits the cop to *_spec.rb files.
type ItIsExpected struct{}

// NewItIsExpected creates the RSpec/ItIsExpected cop.
func NewItIsExpected() *ItIsExpected {
	return &ItIsExpected{}
}

// Name implements lint.Cop.
func (*ItIsExpected) Name() string { return "RSpec/ItIsExpected" }

// Description implements lint.Cop.
func (*ItIsExpected) Description() string {
	return `Requires described ` + "`it`" + ` blocks to start with "is expected".`
}

// OnSend implements lint.SendHook.
func (*ItIsExpected) OnSend(c *lint.Context, n *ast.Node) {
	if n.Receiver() != nil || n.MethodName() != "it" {
		return
	}
	args := n.Arguments()
	if len(args) == 0 {
		return
	}
	desc, ok := args[0].StringValue()
	if !ok || strings.HasPrefix(desc, expectedPrefix) {
		return
	}
	if sel := n.Selector(); sel != nil {
		c.Report(sel.Range(), ItIsExpectedMessage)
	}
}
