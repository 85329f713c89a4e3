// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/AleutianAI/yardcop/services/yardcop/cache"
	"github.com/AleutianAI/yardcop/services/yardcop/config"
	"github.com/AleutianAI/yardcop/services/yardcop/cops"
	"github.com/AleutianAI/yardcop/services/yardcop/lint"
	"github.com/AleutianAI/yardcop/services/yardcop/review"
	"github.com/AleutianAI/yardcop/services/yardcop/telemetry"
)

// runLint is the root command: lint, report, and pick the exit code.
func runLint(ctx context.Context, opts *options, s streams, args []string) error {
	defer setupLogging(opts, s)()

	if opts.interactive && (!opts.autocorrect || opts.watch) {
		return withCode(ExitError, errors.New("--interactive requires --autocorrect and cannot be combined with --watch"))
	}

	failLevel, err := lint.ParseSeverity(opts.failLevel)
	if err != nil {
		return withCode(ExitError, fmt.Errorf("--fail-level: %w", err))
	}
	formatter, err := newFormatter(opts)
	if err != nil {
		return withCode(ExitError, err)
	}

	shutdown, err := initTelemetry(ctx, opts)
	if err != nil {
		return withCode(ExitError, err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load(ctx, opts.configPath)
	if err != nil {
		return withCode(ExitError, err)
	}
	if err := cfg.CheckVersion(version); err != nil {
		return withCode(ExitError, err)
	}

	registry := cops.Default()
	only, except := lint.SplitList(opts.only), lint.SplitList(opts.except)
	if err := registry.CheckNames(append(append([]string{}, only...), except...)); err != nil {
		return withCode(ExitError, err)
	}
	policy := lint.NewRulePolicy(cfg, only, except)

	if opts.interactive {
		if err := reviewCorrections(ctx, opts, s, cfg, registry.All(), policy, args); err != nil {
			return withCode(ExitError, err)
		}
	}

	runnerOpts := []lint.Option{
		lint.WithAutocorrect(opts.autocorrect && !opts.interactive),
		lint.WithPolicy(policy),
	}
	if opts.jobs > 0 {
		runnerOpts = append(runnerOpts, lint.WithConcurrency(opts.jobs))
	}
	if opts.useCache {
		c, err := openCache(opts, cfg, only, except)
		if err != nil {
			slog.Warn("result cache disabled", slog.String("error", err.Error()))
		} else {
			defer c.Close()
			runnerOpts = append(runnerOpts, lint.WithCache(c))
		}
	}
	runner := lint.NewRunner(cfg, registry.All(), runnerOpts...)

	var changed *lint.ChangedLines
	if opts.diffPath != "" {
		changed, err = readDiff(opts.diffPath, s.in)
		if err != nil {
			return withCode(ExitError, err)
		}
	}

	check := func(ctx context.Context, paths []string) (failed bool, runErr error) {
		results, err := runner.LintPaths(ctx, paths)
		results = compact(results)
		if changed != nil {
			results = changed.Filter(results)
		}
		if ferr := formatter.Format(s.out, results); ferr != nil {
			return false, ferr
		}
		return lint.FailLevel{Level: failLevel}.Failed(results), err
	}

	if opts.watch {
		return watch(ctx, opts, args, check)
	}

	failed, runErr := check(ctx, args)
	if opts.metricsTextfile != "" {
		if err := telemetry.WriteTextfile(opts.metricsTextfile, nil); err != nil {
			slog.Warn("metrics textfile not written", slog.String("error", err.Error()))
		}
	}
	switch {
	case runErr != nil:
		return withCode(ExitError, runErr)
	case failed:
		return &exitError{Code: ExitOffenses}
	}
	return nil
}

// watch lints args once, then again for every batch of changed files until
// interrupted.
func watch(ctx context.Context, opts *options, args []string, check func(context.Context, []string) (bool, error)) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := check(ctx, args); err != nil {
		slog.Warn("lint failed", slog.String("error", err.Error()))
	}

	roots := args
	if len(roots) == 0 {
		roots = []string{"."}
	}
	w, err := lint.NewWatcher(roots, nil, func(ctx context.Context, paths []string) {
		slog.Debug("files changed", slog.Int("count", len(paths)))
		if _, err := check(ctx, paths); err != nil {
			slog.Warn("lint failed", slog.String("error", err.Error()))
		}
	}, 0)
	if err != nil {
		return withCode(ExitError, err)
	}
	slog.Info("watching for changes", slog.String("roots", strings.Join(roots, ",")), slog.Bool("autocorrect", opts.autocorrect))
	return w.Run(ctx)
}

// reviewCorrections proposes every autocorrection in memory, lets the user
// accept or reject them per file, and writes the accepted ones.
func reviewCorrections(ctx context.Context, opts *options, s streams, cfg *config.Config, all []lint.Cop, policy *lint.RulePolicy, args []string) error {
	runner := lint.NewRunner(cfg, all, lint.WithAutocorrect(true), lint.WithPolicy(policy))
	files, err := runner.CollectFiles(args)
	if err != nil {
		return err
	}

	rc := review.DefaultConfig()
	changes, err := review.Propose(ctx, runner, files, rc.ContextLines)
	if err != nil {
		slog.Warn("some files could not be corrected", slog.String("error", err.Error()))
	}
	if len(changes) == 0 {
		return nil
	}

	result, err := review.Run(changes, rc, s.in, s.err)
	if err != nil {
		return err
	}
	written, err := review.Apply(changes, result)
	for _, path := range written {
		slog.Info("corrected", slog.String("file", path))
	}
	return err
}

func newFormatter(opts *options) (lint.Formatter, error) {
	fo := lint.FormatterOptions{Version: version}
	switch opts.color {
	case "always":
		on := true
		fo.Color = &on
	case "never":
		off := false
		fo.Color = &off
	case "auto", "":
	default:
		return nil, fmt.Errorf("--color: unknown value %q (want auto, always or never)", opts.color)
	}
	return lint.NewFormatter(opts.format, fo)
}

func initTelemetry(ctx context.Context, opts *options) (func(context.Context) error, error) {
	tc := telemetry.DefaultConfig()
	tc.ServiceVersion = version
	switch opts.otel {
	case "":
	case telemetry.ExporterStdout:
		tc.TraceExporter, tc.MetricExporter = telemetry.ExporterStdout, telemetry.ExporterStdout
	case telemetry.ExporterOTLP:
		tc.TraceExporter = telemetry.ExporterOTLP
	default:
		return nil, fmt.Errorf("--otel: %w: %s", telemetry.ErrUnknownExporter, opts.otel)
	}
	if opts.metricsTextfile != "" {
		tc.MetricExporter = telemetry.ExporterPrometheus
	}
	return telemetry.Init(ctx, tc)
}

func openCache(opts *options, cfg *config.Config, only, except []string) (*cache.Cache, error) {
	dir := opts.cacheDir
	if dir == "" {
		var err error
		if dir, err = cache.DefaultDir(); err != nil {
			return nil, err
		}
	}
	cc := cache.DefaultConfig()
	cc.Dir = dir
	cc.Version = version
	cc.RunDigest = strings.Join([]string{cfg.Digest(), strings.Join(only, ","), strings.Join(except, ",")}, "|")
	return cache.Open(cc)
}

func readDiff(path string, stdin io.Reader) (*lint.ChangedLines, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading diff: %w", err)
	}
	return lint.ParseChangedLines(data)
}

// compact drops the nil slots LintFiles leaves for files that failed.
func compact(results []*lint.FileResult) []*lint.FileResult {
	out := make([]*lint.FileResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
