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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"
)

const rubyLanguage = "ruby"

// File size constants for input validation.
const (
	// DefaultMaxFileSize is the maximum file size the parser will accept (10MB).
	DefaultMaxFileSize = 10 * 1024 * 1024

	// WarnFileSize is the threshold at which a warning is logged (1MB).
	WarnFileSize = 1 * 1024 * 1024
)

// maxReportedSyntaxErrors caps SourceFile.Errors for badly broken files.
const maxReportedSyntaxErrors = 20

// RubyParserOption configures a RubyParser instance.
type RubyParserOption func(*RubyParser)

// WithMaxFileSize sets the maximum file size the parser will accept.
// Non-positive values are ignored.
//
// Example:
//
//	parser := NewRubyParser(WithMaxFileSize(5 * 1024 * 1024))
func WithMaxFileSize(bytes int64) RubyParserOption {
	return func(p *RubyParser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// RubyParser implements Parser for Ruby source code using tree-sitter.
//
// Thread Safety:
//
//	RubyParser instances are safe for concurrent use. Each Parse call
//	creates its own tree-sitter parser internally.
type RubyParser struct {
	maxFileSize int64
}

// NewRubyParser creates a RubyParser with the given options.
func NewRubyParser(opts ...RubyParserOption) *RubyParser {
	p := &RubyParser{
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse builds a SourceFile for Ruby source.
//
// Description:
//
//	Validates the input, runs tree-sitter and collects every "#" comment in
//	source order. Tree-sitter is error tolerant, so syntactically broken
//	files still produce a tree; the problems are listed in
//	SourceFile.Errors.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before and after parsing.
//   - content: Ruby source bytes. Must be valid UTF-8.
//   - filePath: Path recorded on the SourceFile.
//
// Outputs:
//   - *SourceFile: The parsed file. Caller must call Close.
//   - error: ErrFileTooLarge, ErrInvalidContent, ErrParseFailed or a
//     context error.
//
// Thread Safety:
//
//	This method is safe for concurrent use.
func (p *RubyParser) Parse(ctx context.Context, content []byte, filePath string) (*SourceFile, error) {
	ctx, span := startParseSpan(ctx, filePath, len(content))
	defer span.End()

	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: %w", ErrContextCanceled, err)
	}

	if int64(len(content)) > p.maxFileSize {
		recordParseMetrics(ctx, time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}

	if len(content) > WarnFileSize {
		slog.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		recordParseMetrics(ctx, time.Since(start), 0, false)
		return nil, &ParseError{
			FilePath: filePath,
			Message:  "content is not valid UTF-8",
			Cause:    ErrInvalidContent,
		}
	}

	hash := sha256.Sum256(content)
	file := newSourceFile(filePath, content, hex.EncodeToString(hash[:]))

	parser := sitter.NewParser()
	parser.SetLanguage(ruby.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(ctx, time.Since(start), 0, false)
		return nil, WrapParseError(fmt.Errorf("%w: %w", ErrParseFailed, err), filePath)
	}

	if err := ctx.Err(); err != nil {
		tree.Close()
		recordParseMetrics(ctx, time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: %w", ErrContextCanceled, err)
	}

	root := tree.RootNode()
	if root == nil {
		tree.Close()
		recordParseMetrics(ctx, time.Since(start), 0, false)
		return nil, WrapParseError(ErrParseFailed, filePath)
	}

	file.tree = tree
	file.root = file.wrap(root)
	file.collect(root)

	setParseSpanResult(span, len(file.Comments), len(file.Errors))
	recordParseMetrics(ctx, time.Since(start), len(file.Comments), true)

	return file, nil
}

// Language returns "ruby".
func (p *RubyParser) Language() string {
	return rubyLanguage
}

// Extensions returns the Ruby extensions and conventional file names.
func (p *RubyParser) Extensions() []string {
	return []string{".rb", ".rake", ".gemspec", ".ru", "Gemfile", "Rakefile"}
}

// collect walks the tree once, gathering line comments and syntax errors.
func (f *SourceFile) collect(sn *sitter.Node) {
	switch {
	case sn.Type() == "comment":
		text := sn.Content(f.Content)
		if strings.HasPrefix(text, "#") {
			text = strings.TrimRight(text, "\r\n")
			start := int(sn.StartByte())
			f.Comments = append(f.Comments, Comment{
				Text:  text,
				Range: f.RangeOf(start, start+len(text)),
			})
		}
		return
	case sn.Type() == "ERROR" || sn.IsMissing():
		if len(f.Errors) < maxReportedSyntaxErrors {
			pt := sn.StartPoint()
			f.Errors = append(f.Errors, fmt.Sprintf("syntax error at %d:%d", pt.Row+1, pt.Column+1))
		}
	}

	count := int(sn.ChildCount())
	for i := 0; i < count; i++ {
		if c := sn.Child(i); c != nil {
			f.collect(c)
		}
	}
}
