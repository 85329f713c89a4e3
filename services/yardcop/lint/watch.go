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
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/yardcop/services/yardcop/ast"
)

// DefaultDebounce is the quiet period before changed files are re-linted.
const DefaultDebounce = 150 * time.Millisecond

// ChangeHandler receives the deduplicated, sorted paths changed during one
// debounce window.
type ChangeHandler func(ctx context.Context, paths []string)

// Watcher re-lints Ruby files when they change.
//
// Description:
//
//	Watches the given roots recursively (skipping hidden directories,
//	vendor and node_modules), collects write and create events for files
//	a parser handles, and calls the handler once per debounce window.
//
// Thread Safety:
//
//	Run must be called once. The handler runs on Run's goroutine.
type Watcher struct {
	watcher  *fsnotify.Watcher
	parsers  *ast.ParserRegistry
	handler  ChangeHandler
	debounce time.Duration
}

// NewWatcher creates a watcher over roots.
//
// Inputs:
//
//	roots    - Files or directories to watch. Files watch their directory.
//	parsers  - Decides which changed files are interesting. Nil uses the default registry.
//	handler  - Called with each batch. Must not be nil.
//	debounce - Quiet period; zero uses DefaultDebounce.
//
// Outputs:
//
//	*Watcher - Ready to Run.
//	error    - Non-nil if fsnotify could not be set up.
func NewWatcher(roots []string, parsers *ast.ParserRegistry, handler ChangeHandler, debounce time.Duration) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("%w: handler must not be nil", ErrInvalidInput)
	}
	if parsers == nil {
		parsers = ast.DefaultRegistry()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{watcher: fw, parsers: parsers, handler: handler, debounce: debounce}
	for _, root := range roots {
		if err := w.addRoot(root); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return w.watcher.Add(filepath.Dir(root))
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && ignoredDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// watchNewDir adds a directory created while running. Failures are logged
// and the rest of the tree keeps being watched.
func (w *Watcher) watchNewDir(dir string) {
	if err := w.addRoot(dir); err != nil {
		slog.Warn("watch new directory failed",
			slog.String("path", dir),
			slog.String("error", err.Error()),
		)
	}
}

func ignoredDir(name string) bool {
	return strings.HasPrefix(name, ".") || skipDirs[name]
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(pending) == 0 {
			return
		}
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		clear(pending)
		w.handler(ctx, paths)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if event.Has(fsnotify.Create) && !ignoredDir(filepath.Base(event.Name)) {
					w.watchNewDir(event.Name)
				}
				continue
			}
			if _, ok := w.parsers.ForPath(event.Name); !ok {
				continue
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			flush()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}
