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
	"context"
	"path/filepath"
	"sort"
	"sync"
)

// Parser defines the contract for turning source bytes into a SourceFile.
//
// Description:
//
//	Parser implementations build a syntax tree for one language and collect
//	the file's comments so that linters can associate documentation with
//	declarations. The returned SourceFile owns native tree-sitter memory and
//	must be closed by the caller.
//
// Inputs:
//
//	ctx      - Context for cancellation. Checked before and after parsing.
//	content  - Raw source bytes. Must be valid UTF-8.
//	filePath - Path used for error reporting and offense locations.
//
// Outputs:
//
//	*SourceFile - The parsed file. Syntax errors are listed in Errors.
//	error       - Non-nil only if no tree could be produced.
//
// Example:
//
//	file, err := NewRubyParser().Parse(ctx, content, "lib/foo.rb")
//	if err != nil {
//	    return fmt.Errorf("parse failed: %w", err)
//	}
//	defer file.Close()
type Parser interface {
	// Parse builds a SourceFile from content.
	//
	// Thread Safety:
	//   Implementations must be safe for concurrent use.
	Parse(ctx context.Context, content []byte, filePath string) (*SourceFile, error)

	// Language returns the canonical lowercase language name, e.g. "ruby".
	Language() string

	// Extensions returns the file extensions this parser handles, each with
	// a leading dot. Entries without a dot (e.g. "Gemfile") match whole
	// base names.
	Extensions() []string
}

// ParserRegistry manages parser instances by language and file extension.
//
// Thread Safety:
//
//	ParserRegistry is fully thread-safe. Registration uses write locks,
//	lookups use read locks.
type ParserRegistry struct {
	mu sync.RWMutex

	byLanguage  map[string]Parser
	byExtension map[string]Parser
}

// NewParserRegistry creates a new empty ParserRegistry.
func NewParserRegistry() *ParserRegistry {
	return &ParserRegistry{
		byLanguage:  make(map[string]Parser),
		byExtension: make(map[string]Parser),
	}
}

// DefaultRegistry returns a registry with the Ruby parser registered.
func DefaultRegistry() *ParserRegistry {
	r := NewParserRegistry()
	r.Register(NewRubyParser())
	return r
}

// Register adds a parser under its Language() name and all Extensions().
// Existing registrations are overwritten. A nil parser is ignored.
func (r *ParserRegistry) Register(parser Parser) {
	if parser == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byLanguage[parser.Language()] = parser
	for _, ext := range parser.Extensions() {
		r.byExtension[ext] = parser
	}
}

// GetByLanguage returns the parser for the given language name.
func (r *ParserRegistry) GetByLanguage(language string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parser, ok := r.byLanguage[language]
	return parser, ok
}

// ForPath returns the parser for a file path.
//
// Description:
//
//	Looks up the path's extension first, then its base name, so that
//	"lib/foo.rb" and "Gemfile" both resolve to the Ruby parser.
//
// Thread Safety: This method is safe for concurrent use.
func (r *ParserRegistry) ForPath(path string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ext := filepath.Ext(path); ext != "" {
		if parser, ok := r.byExtension[ext]; ok {
			return parser, true
		}
	}
	parser, ok := r.byExtension[filepath.Base(path)]
	return parser, ok
}

// Extensions returns all registered extensions and base names, sorted.
func (r *ParserRegistry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	extensions := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}
