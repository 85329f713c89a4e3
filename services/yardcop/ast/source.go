// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Range is a half-open byte span [Start, End) in a source file together with
// the 1-indexed line and column of both ends. Columns count bytes.
type Range struct {
	Start       int `json:"start"`
	End         int `json:"end"`
	StartLine   int `json:"start_line"`
	StartColumn int `json:"start_column"`
	EndLine     int `json:"end_line"`
	EndColumn   int `json:"end_column"`
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Overlaps reports whether two ranges share at least one byte.
//
// Empty ranges never overlap anything, so two insertions at the same
// offset do not conflict.
func (r Range) Overlaps(o Range) bool {
	if r.Len() == 0 || o.Len() == 0 {
		return false
	}
	return r.Start < o.End && o.Start < r.End
}

// Comment is a single "#" line comment.
type Comment struct {
	// Text is the raw comment source including the leading "#".
	Text string

	// Range is the comment's location.
	Range Range
}

// Line returns the 1-indexed line the comment starts on.
func (c Comment) Line() int {
	return c.Range.StartLine
}

// SourceFile is a parsed Ruby file.
//
// Description:
//
//	SourceFile owns the tree-sitter tree, the original bytes and an ordered
//	list of line comments. Node views returned by Root are only valid until
//	Close is called.
//
// Thread Safety:
//
//	Read-only methods are safe for concurrent use. Close must not race with
//	any other call.
type SourceFile struct {
	// Path is the file path used in offense locations.
	Path string

	// Content is the source text.
	Content []byte

	// Hash is the hex SHA-256 of Content.
	Hash string

	// Errors lists syntax problems found in the tree. Linting still runs.
	Errors []string

	// Comments are all "#" comments in source order. Block comments
	// (=begin/=end) are not included.
	Comments []Comment

	tree       *sitter.Tree
	root       *Node
	lineStarts []int
}

func newSourceFile(path string, content []byte, hash string) *SourceFile {
	f := &SourceFile{
		Path:    path,
		Content: content,
		Hash:    hash,
		Errors:  make([]string, 0),
	}
	f.lineStarts = append(f.lineStarts, 0)
	for i, b := range content {
		if b == '\n' {
			f.lineStarts = append(f.lineStarts, i+1)
		}
	}
	return f
}

// Root returns the program node, or nil if the file has no tree.
func (f *SourceFile) Root() *Node {
	return f.root
}

// Close releases the native tree. Safe to call more than once.
func (f *SourceFile) Close() {
	if f.tree != nil {
		f.tree.Close()
		f.tree = nil
		f.root = nil
	}
}

// LineCount returns the number of lines in the file.
func (f *SourceFile) LineCount() int {
	return len(f.lineStarts)
}

// Line returns the text of the 1-indexed line n without its line break.
// Out-of-range lines return "".
func (f *SourceFile) Line(n int) string {
	if n < 1 || n > len(f.lineStarts) {
		return ""
	}
	start := f.lineStarts[n-1]
	end := len(f.Content)
	if n < len(f.lineStarts) {
		end = f.lineStarts[n] - 1
	}
	return strings.TrimSuffix(string(f.Content[start:end]), "\r")
}

// LineStart returns the byte offset at which the 1-indexed line n begins.
func (f *SourceFile) LineStart(n int) int {
	if n < 1 {
		return 0
	}
	if n > len(f.lineStarts) {
		return len(f.Content)
	}
	return f.lineStarts[n-1]
}

// Position converts a byte offset to a 1-indexed line and column.
func (f *SourceFile) Position(offset int) (line, column int) {
	idx := sort.Search(len(f.lineStarts), func(i int) bool {
		return f.lineStarts[i] > offset
	}) - 1
	if idx < 0 {
		idx = 0
	}
	return idx + 1, offset - f.lineStarts[idx] + 1
}

// RangeOf builds a Range for the byte span [start, end).
func (f *SourceFile) RangeOf(start, end int) Range {
	sl, sc := f.Position(start)
	el, ec := f.Position(end)
	return Range{
		Start:       start,
		End:         end,
		StartLine:   sl,
		StartColumn: sc,
		EndLine:     el,
		EndColumn:   ec,
	}
}

// CommentsFor returns the comments attached above a declaration.
//
// Description:
//
//	Comments are collected upward from the node's statement anchor. A
//	comment is attached when only whitespace (including blank lines) and
//	other attached comments separate it from the anchor, and when it is the
//	first thing on its line. Trailing comments after code stop the scan.
//	When the node is the first argument of a call, as in "private def foo",
//	the call is the anchor.
//
// Outputs:
//
//	[]Comment - Attached comments in ascending line order. May be empty.
func (f *SourceFile) CommentsFor(n *Node) []Comment {
	if n == nil || len(f.Comments) == 0 {
		return nil
	}

	limit := statementAnchor(n).Range().Start
	idx := sort.Search(len(f.Comments), func(i int) bool {
		return f.Comments[i].Range.End > limit
	}) - 1

	var attached []Comment
	for ; idx >= 0; idx-- {
		c := f.Comments[idx]
		if !isBlank(f.Content[c.Range.End:limit]) {
			break
		}
		if !isBlank(f.Content[f.LineStart(c.Range.StartLine):c.Range.Start]) {
			break
		}
		attached = append(attached, c)
		limit = c.Range.Start
	}

	for i, j := 0, len(attached)-1; i < j; i, j = i+1, j-1 {
		attached[i], attached[j] = attached[j], attached[i]
	}
	return attached
}

// statementAnchor climbs from a node to the call that wraps it as its first
// argument, so comments above "private def foo" belong to the method.
func statementAnchor(n *Node) *Node {
	anchor := n
	for {
		args := anchor.Parent()
		if args == nil || args.Type() != "argument_list" {
			return anchor
		}
		named := args.NamedChildren()
		if len(named) == 0 || !named[0].Equal(anchor) {
			return anchor
		}
		call := args.Parent()
		if call == nil || call.Kind() != KindCall {
			return anchor
		}
		anchor = call
	}
}

func isBlank(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n', '\f', '\v':
		default:
			return false
		}
	}
	return true
}
