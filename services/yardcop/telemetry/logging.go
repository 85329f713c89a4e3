// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/trace"
)

// LogConfig configures OpenLogger.
type LogConfig struct {
	// Debug lowers the level from Info to Debug.
	Debug bool

	// JSON switches the console handler from text to JSON.
	JSON bool

	// File, when set, also appends JSON records to this path. A leading
	// "~" expands to the home directory.
	File string
}

// NewLogger returns a text logger at Info, or Debug when debug is set.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	logger, _, _ := OpenLogger(w, LogConfig{Debug: debug})
	return logger
}

// OpenLogger builds a logger writing to w and, optionally, a log file.
//
// Outputs:
//
//	*slog.Logger - The logger. Never nil, even on error.
//	io.Closer    - Closes the log file. Always non-nil.
//	error        - The log file could not be opened; the logger then
//	               writes to w only.
func OpenLogger(w io.Writer, cfg LogConfig) (*slog.Logger, io.Closer, error) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var console slog.Handler = slog.NewTextHandler(w, opts)
	if cfg.JSON {
		console = slog.NewJSONHandler(w, opts)
	}
	if cfg.File == "" {
		return slog.New(console), nopCloser{}, nil
	}

	path := expandHome(cfg.File)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return slog.New(console), nopCloser{}, fmt.Errorf("log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return slog.New(console), nopCloser{}, fmt.Errorf("log file: %w", err)
	}
	handler := &multiHandler{handlers: []slog.Handler{console, slog.NewJSONHandler(file, opts)}}
	return slog.New(handler), &syncCloser{file: file}, nil
}

// LoggerWithTrace adds trace_id and span_id from ctx's span, if any.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if ctx == nil {
		return logger
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}
	return logger.With(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}

// multiHandler fans out log records to multiple slog handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type syncCloser struct {
	file *os.File
}

func (c *syncCloser) Close() error {
	return errors.Join(c.file.Sync(), c.file.Close())
}

func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
