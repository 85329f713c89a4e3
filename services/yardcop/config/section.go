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
	"fmt"
	"strings"
)

// Section is a read-only view over one nested map of raw configuration.
//
// Description:
//
//	Section never mutates the map it wraps. Every accessor takes a default
//	that is returned when the key path is absent or holds a value of the
//	wrong type.
//
// Thread Safety: Safe for concurrent reads.
type Section struct {
	values map[string]any
}

// NewSection wraps a raw map. A nil map behaves as an empty section.
func NewSection(values map[string]any) Section {
	return Section{values: values}
}

// Get returns the raw value at the key path and whether it was present.
func (s Section) Get(keys ...string) (any, bool) {
	if len(keys) == 0 {
		return s.values, s.values != nil
	}
	var cur any = s.values
	for _, k := range keys {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[k]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// Has reports whether the key path is present with a non-nil value.
func (s Section) Has(keys ...string) bool {
	_, ok := s.Get(keys...)
	return ok
}

// Bool returns the boolean at the key path. Only a literal YAML boolean
// counts; strings such as "true" fall back to the default.
func (s Section) Bool(def bool, keys ...string) bool {
	v, ok := s.Get(keys...)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// String returns the string at the key path.
func (s Section) String(def string, keys ...string) string {
	v, ok := s.Get(keys...)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return def
	}
}

// Strings returns the list of strings at the key path. Scalar list items
// are formatted with %v; a single string becomes a one-element list.
func (s Section) Strings(def []string, keys ...string) []string {
	v, ok := s.Get(keys...)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			out = append(out, strings.TrimSpace(fmt.Sprint(item)))
		}
		return out
	default:
		return def
	}
}

// Sub returns the nested section at the key path, or an empty section.
func (s Section) Sub(keys ...string) Section {
	v, ok := s.Get(keys...)
	if !ok {
		return Section{}
	}
	m, _ := asMap(v)
	return Section{values: m}
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}
