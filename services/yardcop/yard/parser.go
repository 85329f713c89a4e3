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
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidText is returned when a comment line is not valid UTF-8.
	ErrInvalidText = errors.New("docstring is not valid UTF-8")

	// ErrMalformed is returned when the docstring cannot be parsed.
	ErrMalformed = errors.New("malformed docstring")
)

// tagStartPattern matches a line that opens a tag or directive once its
// leading whitespace has been removed.
var tagStartPattern = regexp.MustCompile(`^@!?[A-Za-z]`)

// tagSyntax describes how the text after a tag name is split.
type tagSyntax int

const (
	// syntaxText keeps everything as Body ("@api private").
	syntaxText tagSyntax = iota

	// syntaxTypes reads an optional [Types] list ("@return [String] ...").
	syntaxTypes

	// syntaxTypesAndName reads a name and an optional [Types] list on either
	// side of it ("@param name [String] ...").
	syntaxTypesAndName

	// syntaxTitle takes the rest of the first line as Label and the
	// following lines as Body ("@example Title").
	syntaxTitle

	// syntaxName takes the first token as Label ("@!macro name").
	syntaxName
)

var tagSyntaxes = map[string]tagSyntax{
	"param":       syntaxTypesAndName,
	"option":      syntaxTypesAndName,
	"yieldparam":  syntaxTypesAndName,
	"attr":        syntaxTypesAndName,
	"attr_reader": syntaxTypesAndName,
	"attr_writer": syntaxTypesAndName,
	"return":      syntaxTypes,
	"raise":       syntaxTypes,
	"yield":       syntaxTypes,
	"yieldreturn": syntaxTypes,
	"example":     syntaxTitle,
	"overload":    syntaxText,
}

var directiveSyntaxes = map[string]tagSyntax{
	"attribute": syntaxTypesAndName,
	"macro":     syntaxName,
}

// IsTagStart reports whether a comment line, with its "#" marker already
// removed, opens a tag or directive.
func IsTagStart(line string) bool {
	return tagStartPattern.MatchString(strings.TrimLeft(line, " \t"))
}

// StripMarker removes leading whitespace and one "#" from a raw comment
// line. Whitespace after the marker is kept.
func StripMarker(line string) string {
	return strings.TrimPrefix(strings.TrimLeft(line, " \t"), "#")
}

// Dedent removes the smallest leading-whitespace width found on non-blank
// lines from every line and returns that width. Blank lines become "".
func Dedent(lines []string) ([]string, int) {
	indent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		w := len(l) - len(strings.TrimLeft(l, " \t"))
		if indent < 0 || w < indent {
			indent = w
		}
	}
	if indent < 0 {
		indent = 0
	}

	out := make([]string, len(lines))
	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out[i] = l[indent:]
	}
	return out, indent
}

// Parse builds a Docstring from raw comment lines.
//
// Description:
//
//	Each line has its "#" marker stripped, then the whole block is dedented.
//	Lines before the first tag-start line form the description. From there
//	on every tag-start line opens a new tag and other lines are appended to
//	the current tag's body.
//
// Inputs:
//   - lines: Raw comment lines, e.g. "# @param name [String] the name".
//
// Outputs:
//   - *Docstring: The parsed block. Never nil when err is nil.
//   - error: ErrInvalidText or ErrMalformed.
//
// Thread Safety: Parse is pure and safe for concurrent use.
func Parse(lines []string) (doc *Docstring, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()

	stripped := make([]string, len(lines))
	for i, l := range lines {
		if !utf8.ValidString(l) {
			return nil, fmt.Errorf("%w: line %d", ErrInvalidText, i+1)
		}
		stripped[i] = strings.TrimRight(StripMarker(l), " \t\r")
	}
	text, _ := Dedent(stripped)

	doc = &Docstring{
		Tags:       make([]Tag, 0),
		Directives: make([]Tag, 0),
	}
	if strings.TrimSpace(strings.Join(text, "")) != "" {
		doc.RawText = strings.Join(text, "\n")
	}

	first := len(text)
	for i, l := range text {
		if IsTagStart(l) {
			first = i
			break
		}
	}
	doc.Description = strings.TrimSpace(strings.Join(text[:first], "\n"))

	for _, rec := range groupTags(text, first) {
		tag, directive := parseTag(rec)
		if directive {
			doc.Directives = append(doc.Directives, tag)
		} else {
			doc.Tags = append(doc.Tags, tag)
		}
	}

	return doc, nil
}

// TryParse is Parse with failures turned into absence.
//
// Description:
//
//	This is the one place where an unparseable block becomes "no
//	documentation". Callers that receive ok == false must treat the
//	declaration as undocumented rather than as an error.
func TryParse(lines []string) (*Docstring, bool) {
	doc, err := Parse(lines)
	if err != nil {
		slog.Debug("discarding unparseable docstring", slog.String("error", err.Error()))
		return nil, false
	}
	return doc, true
}

type tagRecord struct {
	line  int
	lines []string
}

func groupTags(text []string, first int) []tagRecord {
	var records []tagRecord
	for i := first; i < len(text); i++ {
		if IsTagStart(text[i]) {
			records = append(records, tagRecord{
				line:  i,
				lines: []string{strings.TrimLeft(text[i], " \t")},
			})
			continue
		}
		cur := &records[len(records)-1]
		cur.lines = append(cur.lines, text[i])
	}
	return records
}

func parseTag(rec tagRecord) (Tag, bool) {
	head := strings.TrimPrefix(rec.lines[0], "@")
	directive := strings.HasPrefix(head, "!")
	head = strings.TrimPrefix(head, "!")

	nameEnd := strings.IndexAny(head, " \t")
	if nameEnd < 0 {
		nameEnd = len(head)
	}
	tag := Tag{
		Name: head[:nameEnd],
		Line: rec.line,
	}
	rest := strings.TrimSpace(head[nameEnd:])

	cont, _ := Dedent(rec.lines[1:])

	syntax := tagSyntaxes[tag.Name]
	if directive {
		syntax = directiveSyntaxes[tag.Name]
	}

	switch syntax {
	case syntaxTypes:
		tag.Types, rest = parseTypes(rest)
	case syntaxTypesAndName:
		tag.Types, rest = parseTypes(rest)
		tag.Label, rest = splitToken(rest)
		if tag.Types == nil {
			tag.Types, rest = parseTypes(rest)
		}
	case syntaxName:
		tag.Label, rest = splitToken(rest)
	case syntaxTitle:
		tag.Label, rest = rest, ""
	}

	parts := make([]string, 0, len(cont)+1)
	if rest != "" {
		parts = append(parts, rest)
	}
	parts = append(parts, cont...)
	tag.Body = strings.Trim(strings.Join(parts, "\n"), "\n")

	return tag, directive
}

// splitToken returns the first whitespace-delimited token and the rest.
func splitToken(s string) (string, string) {
	s = strings.TrimSpace(s)
	end := strings.IndexAny(s, " \t")
	if end < 0 {
		return s, ""
	}
	return s[:end], strings.TrimSpace(s[end:])
}

// parseTypes reads a leading "[A, B<C>]" list. Unbalanced brackets leave the
// text untouched and yield no types.
func parseTypes(s string) ([]string, string) {
	if !strings.HasPrefix(s, "[") {
		return nil, s
	}

	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '<', '{', '(':
			depth++
		case '>':
			if i > 0 && s[i-1] == '=' {
				continue
			}
			depth--
		case ']', '}', ')':
			depth--
		}
		if depth == 0 {
			return splitTypes(s[1:i]), strings.TrimSpace(s[i+1:])
		}
	}
	return nil, s
}

func splitTypes(inner string) []string {
	types := make([]string, 0, 2)
	depth, start := 0, 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '[', '<', '{', '(':
			depth++
		case '>':
			if i > 0 && inner[i-1] == '=' {
				continue
			}
			depth--
		case ']', '}', ')':
			depth--
		case ',':
			if depth == 0 {
				if t := strings.TrimSpace(inner[start:i]); t != "" {
					types = append(types, t)
				}
				start = i + 1
			}
		}
	}
	if t := strings.TrimSpace(inner[start:]); t != "" {
		types = append(types, t)
	}
	return types
}
