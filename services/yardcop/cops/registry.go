// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cops assembles the built-in cops into a registry.
package cops

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/AleutianAI/yardcop/services/yardcop/cops/rspec"
	"github.com/AleutianAI/yardcop/services/yardcop/cops/yard"
	"github.com/AleutianAI/yardcop/services/yardcop/lint"
)

// ErrUnknownCop is returned by CheckNames for a name that matches neither
// a cop nor a department.
var ErrUnknownCop = errors.New("unknown cop or department")

// Registry holds cops by name.
//
// Thread Safety:
//
//	Registry is safe for concurrent use. Registration takes the write
//	lock, lookups the read lock.
type Registry struct {
	mu   sync.RWMutex
	cops map[string]lint.Cop
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{cops: make(map[string]lint.Cop)}
}

// Default returns a registry with every built-in cop.
func Default() *Registry {
	r := NewRegistry()
	r.Register(yard.NewDescription())
	r.Register(yard.NewDocumentation())
	r.Register(yard.NewNoPeriod())
	r.Register(yard.NewRequiredTags())
	r.Register(rspec.NewItIsExpected())
	return r
}

// Register adds cop under its Name, replacing any cop of the same name.
// A nil cop is ignored.
func (r *Registry) Register(cop lint.Cop) {
	if cop == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cops[cop.Name()] = cop
}

// ByName returns the cop registered under name.
func (r *Registry) ByName(name string) (lint.Cop, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cop, ok := r.cops[name]
	return cop, ok
}

// All returns every cop sorted by name.
func (r *Registry) All() []lint.Cop {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]lint.Cop, 0, len(r.cops))
	for _, cop := range r.cops {
		out = append(out, cop)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name() < out[j].Name()
	})
	return out
}

// Names returns every registered cop name, sorted.
func (r *Registry) Names() []string {
	all := r.All()
	names := make([]string, len(all))
	for i, cop := range all {
		names[i] = cop.Name()
	}
	return names
}

// Departments returns the distinct department prefixes, sorted.
func (r *Registry) Departments() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range r.Names() {
		dept, _, _ := strings.Cut(name, "/")
		if !seen[dept] {
			seen[dept] = true
			out = append(out, dept)
		}
	}
	return out
}

// CheckNames rejects selection entries (as given to --only and --except)
// that name neither a registered cop nor a department. Matching ignores
// case.
func (r *Registry) CheckNames(names []string) error {
	known := make(map[string]bool)
	for _, name := range r.Names() {
		known[strings.ToLower(name)] = true
	}
	for _, dept := range r.Departments() {
		known[strings.ToLower(dept)] = true
	}
	var errs []error
	for _, name := range names {
		if !known[strings.ToLower(name)] {
			errs = append(errs, fmt.Errorf("%w %q", ErrUnknownCop, name))
		}
	}
	return errors.Join(errs...)
}
