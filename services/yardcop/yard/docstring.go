// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package yard parses YARD documentation comments.
//
// A docstring is the block of "#" comment lines above a Ruby declaration,
// consisting of free-text description followed by tags of the form
// "@name [Types] label body" and directives of the form "@!name body".
package yard

// Tag is one "@name ..." entry of a docstring.
type Tag struct {
	// Name is the tag name without "@" or "!", e.g. "param".
	Name string `json:"name"`

	// Label is the named subject of the tag, e.g. the parameter name of
	// "@param name [String]" or the title of "@example Title". Empty for
	// tags that do not take one.
	Label string `json:"label,omitempty"`

	// Types holds the bracketed type list, e.g. ["String", "nil"].
	Types []string `json:"types,omitempty"`

	// Body is the remaining free text. Continuation lines are joined with
	// "\n" and share their common indentation removed.
	Body string `json:"body,omitempty"`

	// Line is the 0-indexed docstring line the tag starts on.
	Line int `json:"line"`
}

// Docstring is a parsed documentation block.
type Docstring struct {
	// Description is the text before the first tag line, trimmed.
	Description string `json:"description"`

	// RawText is every dedented line joined with "\n". Empty when the
	// block contains no text at all.
	RawText string `json:"raw_text"`

	// Tags are regular tags in source order.
	Tags []Tag `json:"tags"`

	// Directives are "@!" tags in source order.
	Directives []Tag `json:"directives"`
}

// TagNames returns the tag names in source order, duplicates included.
func (d *Docstring) TagNames() []string {
	names := make([]string, 0, len(d.Tags))
	for _, t := range d.Tags {
		names = append(names, t.Name)
	}
	return names
}

// HasTag reports whether at least one tag has the given name.
func (d *Docstring) HasTag(name string) bool {
	return d.Tag(name) != nil
}

// Tag returns the first tag with the given name, or nil.
func (d *Docstring) Tag(name string) *Tag {
	for i := range d.Tags {
		if d.Tags[i].Name == name {
			return &d.Tags[i]
		}
	}
	return nil
}

// TagsNamed returns every tag with the given name.
func (d *Docstring) TagsNamed(name string) []Tag {
	var out []Tag
	for _, t := range d.Tags {
		if t.Name == name {
			out = append(out, t)
		}
	}
	return out
}

// Directive returns the first directive with the given name, or nil.
func (d *Docstring) Directive(name string) *Tag {
	for i := range d.Directives {
		if d.Directives[i].Name == name {
			return &d.Directives[i]
		}
	}
	return nil
}

// Empty reports whether the block had no text at all.
func (d *Docstring) Empty() bool {
	return d.RawText == ""
}
