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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for lint operations.
var (
	tracer = otel.Tracer("yardcop.lint")
	meter  = otel.Meter("yardcop.lint")
)

// Metrics for lint operations.
var (
	lintLatency      metric.Float64Histogram
	lintTotal        metric.Int64Counter
	offensesTotal    metric.Int64Counter
	correctionsTotal metric.Int64Counter
	copErrorsTotal   metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		lintLatency, err = meter.Float64Histogram(
			"lint_duration_seconds",
			metric.WithDescription("Duration of linting one file"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		lintTotal, err = meter.Int64Counter(
			"lint_files_total",
			metric.WithDescription("Total number of files linted"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		offensesTotal, err = meter.Int64Counter(
			"lint_offenses_total",
			metric.WithDescription("Total number of offenses reported, by cop"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		correctionsTotal, err = meter.Int64Counter(
			"lint_corrections_total",
			metric.WithDescription("Total number of offenses autocorrected"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		copErrorsTotal, err = meter.Int64Counter(
			"lint_cop_errors_total",
			metric.WithDescription("Total number of cop panics recovered"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startLintSpan creates a span for linting one file.
func startLintSpan(ctx context.Context, filePath string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Runner.LintFile",
		trace.WithAttributes(
			attribute.String("lint.file_path", filePath),
		),
	)
}

// setLintSpanResult sets the result attributes on a lint span.
func setLintSpanResult(span trace.Span, result *FileResult) {
	span.SetAttributes(
		attribute.Int("lint.offense_count", len(result.Offenses)),
		attribute.Int("lint.corrected_count", result.CorrectedCount),
		attribute.Bool("lint.cached", result.Cached),
	)
}

// recordLintMetrics records metrics for one linted file.
func recordLintMetrics(ctx context.Context, result *FileResult, duration time.Duration, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.Bool("success", success),
		attribute.Bool("cached", result != nil && result.Cached),
	)
	lintLatency.Record(ctx, duration.Seconds(), attrs)
	lintTotal.Add(ctx, 1, attrs)

	if !success || result == nil {
		return
	}

	byCop := make(map[string]int64)
	for _, o := range result.Offenses {
		byCop[o.Cop]++
	}
	for cop, n := range byCop {
		offensesTotal.Add(ctx, n, metric.WithAttributes(attribute.String("cop", cop)))
	}
	if result.CorrectedCount > 0 {
		correctionsTotal.Add(ctx, int64(result.CorrectedCount))
	}
	if len(result.CopErrors) > 0 {
		copErrorsTotal.Add(ctx, int64(len(result.CopErrors)))
	}
}
