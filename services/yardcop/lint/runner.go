// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/yardcop/services/yardcop/ast"
	"github.com/AleutianAI/yardcop/services/yardcop/config"
)

// ErrUnsupportedFile is returned for paths no registered parser handles.
var ErrUnsupportedFile = errors.New("unsupported file type")

// ResultCache stores offenses for unchanged files.
//
// Implementations key entries on path and content plus whatever run
// state (configuration, tool version) they were built with.
type ResultCache interface {
	Lookup(path string, content []byte) ([]Offense, bool)
	Store(path string, content []byte, offenses []Offense) error
}

// skipDirs are directory names never descended into.
var skipDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
}

// =============================================================================
// RUNNER
// =============================================================================

// Runner lints files with a fixed set of cops.
//
// Description:
//
//	Each file is parsed and investigated on one goroutine; LintFiles runs
//	files in parallel. With autocorrect enabled the runner loops
//	investigate-and-correct until no fix applies, then writes the file.
//
// Thread Safety: Safe for concurrent use.
type Runner struct {
	cfg          *config.Config
	parsers      *ast.ParserRegistry
	commissioner *Commissioner
	policy       *RulePolicy
	cache        ResultCache
	autocorrect  bool
	concurrency  int
}

// Option configures the Runner.
type Option func(*Runner)

// WithAutocorrect enables writing fixes back to files.
func WithAutocorrect(enabled bool) Option {
	return func(r *Runner) {
		r.autocorrect = enabled
	}
}

// WithConcurrency sets the number of files linted in parallel.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithCache sets a result cache. The cache is bypassed in autocorrect mode.
func WithCache(cache ResultCache) Option {
	return func(r *Runner) {
		r.cache = cache
	}
}

// WithPolicy sets the cop selection and severity policy.
func WithPolicy(policy *RulePolicy) Option {
	return func(r *Runner) {
		r.policy = policy
	}
}

// WithParsers sets a custom parser registry.
func WithParsers(parsers *ast.ParserRegistry) Option {
	return func(r *Runner) {
		r.parsers = parsers
	}
}

// NewRunner creates a runner.
//
// Inputs:
//
//	cfg  - Merged configuration. Must not be nil.
//	cops - Cops to run. Selection still honours the policy.
//	opts - Optional configuration options.
//
// Outputs:
//
//	*Runner - The configured runner.
func NewRunner(cfg *config.Config, cops []Cop, opts ...Option) *Runner {
	r := &Runner{
		cfg:         cfg,
		parsers:     ast.DefaultRegistry(),
		concurrency: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.policy == nil {
		r.policy = NewRulePolicy(cfg, nil, nil)
	}
	r.commissioner = NewCommissioner(cops, cfg, r.policy)
	return r
}

// LintContent lints source held in memory.
//
// Description:
//
//	Parses content as the file at path and runs every selected cop. With
//	autocorrect enabled, fixes are applied repeatedly until none remain;
//	corrected offenses are returned with Corrected set, followed by what
//	the final pass still reports.
//
// Inputs:
//
//	ctx     - Context for cancellation. Must not be nil.
//	content - Source bytes.
//	path    - Path used for parser selection, excludes and reporting.
//
// Outputs:
//
//	*FileResult - Offenses for the file.
//	[]byte      - The content after corrections (content itself when none).
//	error       - ErrUnsupportedFile, parse errors, ErrInfiniteCorrection.
//
// Thread Safety: Safe for concurrent use.
func (r *Runner) LintContent(ctx context.Context, content []byte, path string) (*FileResult, []byte, error) {
	if ctx == nil {
		return nil, nil, fmt.Errorf("%w: ctx must not be nil", ErrInvalidInput)
	}

	parser, ok := r.parsers.ForPath(path)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}

	result := &FileResult{Path: path, Offenses: make([]Offense, 0)}
	current := content
	var corrected []Offense

	for iteration := 0; ; iteration++ {
		inv, syntaxErrors, err := r.investigate(ctx, parser, current, path)
		if err != nil {
			return nil, nil, err
		}
		result.SyntaxErrors = syntaxErrors
		result.CopErrors = result.CopErrors[:0]
		for _, ce := range inv.CopErrors {
			result.CopErrors = append(result.CopErrors, ce.Error())
		}

		if !r.autocorrect || len(inv.Edits) == 0 {
			result.Offenses = append(result.Offenses, inv.Offenses...)
			break
		}
		if iteration == MaxCorrectionIterations {
			return nil, nil, fmt.Errorf("%w: %s after %d passes", ErrInfiniteCorrection, path, iteration)
		}

		next, fixed := applyFixes(current, inv.Offenses)
		if len(fixed) == 0 || bytes.Equal(next, current) {
			result.Offenses = append(result.Offenses, inv.Offenses...)
			break
		}
		for _, i := range fixed {
			o := inv.Offenses[i]
			o.Corrected = true
			corrected = append(corrected, o)
		}
		current = next
	}

	result.CorrectedCount = len(corrected)
	result.Offenses = append(corrected, result.Offenses...)
	sortOffenses(result.Offenses)
	return result, current, nil
}

func (r *Runner) investigate(ctx context.Context, parser ast.Parser, content []byte, path string) (*Investigation, []string, error) {
	file, err := parser.Parse(ctx, content, path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	return r.commissioner.Investigate(ctx, file), file.Errors, nil
}

// LintFile reads, lints and (in autocorrect mode) rewrites one file.
//
// Thread Safety: Safe for concurrent use on distinct paths.
func (r *Runner) LintFile(ctx context.Context, path string) (*FileResult, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: ctx must not be nil", ErrInvalidInput)
	}

	ctx, span := startLintSpan(ctx, path)
	defer span.End()
	start := time.Now()

	content, err := os.ReadFile(path)
	if err != nil {
		recordLintMetrics(ctx, nil, time.Since(start), false)
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	useCache := r.cache != nil && !r.autocorrect
	if useCache {
		if offenses, ok := r.cache.Lookup(path, content); ok {
			result := &FileResult{Path: path, Offenses: offenses, Cached: true, Duration: time.Since(start)}
			setLintSpanResult(span, result)
			recordLintMetrics(ctx, result, result.Duration, true)
			return result, nil
		}
	}

	result, corrected, err := r.LintContent(ctx, content, path)
	if err != nil {
		span.RecordError(err)
		recordLintMetrics(ctx, nil, time.Since(start), false)
		return nil, err
	}

	if r.autocorrect && !bytes.Equal(corrected, content) {
		if err := writePreservingMode(path, corrected); err != nil {
			recordLintMetrics(ctx, nil, time.Since(start), false)
			return nil, err
		}
		slog.Debug("autocorrected file",
			slog.String("file", path),
			slog.Int("corrected", result.CorrectedCount),
		)
	}

	if useCache && len(result.CopErrors) == 0 {
		if err := r.cache.Store(path, content, result.Offenses); err != nil {
			slog.Warn("cache store failed",
				slog.String("file", path),
				slog.String("error", err.Error()),
			)
		}
	}

	result.Duration = time.Since(start)
	setLintSpanResult(span, result)
	recordLintMetrics(ctx, result, result.Duration, true)

	slog.Debug("lint completed",
		slog.String("file", path),
		slog.Duration("duration", result.Duration),
		slog.Int("offenses", len(result.Offenses)),
	)

	return result, nil
}

func writePreservingMode(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LintFiles lints files in parallel.
//
// Description:
//
//	Runs up to the configured concurrency at once. A file that cannot be
//	read or parsed does not stop the others: its error is joined into the
//	returned error and its slot in the result slice is nil. Cancelling
//	ctx stops files that have not started.
//
// Outputs:
//
//	[]*FileResult - One entry per input path, in input order.
//	error         - errors.Join of per-file failures, or nil.
func (r *Runner) LintFiles(ctx context.Context, paths []string) ([]*FileResult, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: ctx must not be nil", ErrInvalidInput)
	}

	results := make([]*FileResult, len(paths))
	var (
		mu   sync.Mutex
		errs []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := r.LintFile(gctx, path)
			if err != nil {
				slog.Warn("lint failed",
					slog.String("file", path),
					slog.String("error", err.Error()),
				)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}
	return results, errors.Join(errs...)
}

// LintPaths expands directories and lints every supported file.
func (r *Runner) LintPaths(ctx context.Context, paths []string) ([]*FileResult, error) {
	files, err := r.CollectFiles(paths)
	if err != nil {
		return nil, err
	}
	return r.LintFiles(ctx, files)
}

// CollectFiles expands paths into the sorted list of files to lint.
//
// Description:
//
//	Directories are walked recursively, skipping hidden directories,
//	vendor and node_modules, files without a registered parser and files
//	matching AllCops.Exclude. Explicitly named files are kept as long as a
//	parser handles them.
func (r *Runner) CollectFiles(paths []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			if _, ok := r.parsers.ForPath(root); ok {
				add(root)
			} else {
				slog.Warn("skipping unsupported file", slog.String("file", root))
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				slog.Warn("walk error", slog.String("path", path), slog.String("error", err.Error()))
				return nil
			}
			if d.IsDir() {
				name := d.Name()
				if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
					return filepath.SkipDir
				}
				return nil
			}
			if _, ok := r.parsers.ForPath(path); !ok {
				return nil
			}
			if r.globallyExcluded(root, path) {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// globallyExcluded checks AllCops.Exclude against the path relative to
// the working directory and relative to the walked root.
func (r *Runner) globallyExcluded(root, path string) bool {
	if r.cfg == nil {
		return false
	}
	if r.cfg.ExcludedGlobally(config.RelativePath(path)) {
		return true
	}
	if rel, err := filepath.Rel(root, path); err == nil {
		return r.cfg.ExcludedGlobally(filepath.ToSlash(rel))
	}
	return false
}
