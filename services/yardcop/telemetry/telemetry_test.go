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
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "")
	t.Setenv("OTEL_METRICS_EXPORTER", "")
	cfg := DefaultConfig()

	if cfg.ServiceName != "yardcop" {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, "yardcop")
	}
	if cfg.TraceExporter != ExporterNone {
		t.Errorf("TraceExporter = %q, want %q", cfg.TraceExporter, ExporterNone)
	}
	if cfg.MetricExporter != ExporterNone {
		t.Errorf("MetricExporter = %q, want %q", cfg.MetricExporter, ExporterNone)
	}
}

func TestDefaultConfig_Env(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "stdout")
	if got := DefaultConfig().TraceExporter; got != "stdout" {
		t.Errorf("TraceExporter = %q, want stdout", got)
	}
}

func TestInit_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context is the case under test
	_, err := Init(nil, DefaultConfig())
	if !errors.Is(err, ErrNilContext) {
		t.Errorf("Init(nil) error = %v, want %v", err, ErrNilContext)
	}
}

func TestInit_None(t *testing.T) {
	cfg := Config{TraceExporter: ExporterNone, MetricExporter: ExporterNone}
	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestInit_Stdout(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{
		ServiceName:    "yardcop-test",
		TraceExporter:  ExporterStdout,
		MetricExporter: ExporterStdout,
		Output:         &buf,
	}
	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "lint")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"Name":"lint"`) {
		t.Errorf("stdout exporter output missing span: %s", buf.String())
	}
}

func TestInit_Prometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := Config{TraceExporter: ExporterNone, MetricExporter: ExporterPrometheus, Registerer: reg}
	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer shutdown(context.Background())

	counter, err := otel.Meter("test").Int64Counter("files_checked")
	if err != nil {
		t.Fatalf("Int64Counter() error = %v", err)
	}
	counter.Add(context.Background(), 3)

	path := filepath.Join(t.TempDir(), "yardcop.prom")
	if err := WriteTextfile(path, reg); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "files_checked_total") {
		t.Errorf("textfile missing counter:\n%s", data)
	}
}

func TestInit_UnknownExporter(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "trace", cfg: Config{TraceExporter: "zipkin", MetricExporter: ExporterNone}},
		{name: "metric", cfg: Config{TraceExporter: ExporterNone, MetricExporter: "statsd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Init(context.Background(), tt.cfg)
			if !errors.Is(err, ErrUnknownExporter) {
				t.Errorf("Init() error = %v, want %v", err, ErrUnknownExporter)
			}
		})
	}
}

func TestWriteTextfile_Registry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "yardcop_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Add(2)

	path := filepath.Join(t.TempDir(), "out.prom")
	if err := WriteTextfile(path, reg); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "yardcop_test_total 2") {
		t.Errorf("textfile = %s", data)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, false).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug message logged at info level: %s", buf.String())
	}
	NewLogger(&buf, true).Debug("shown", "file", "a.rb")
	if !strings.Contains(buf.String(), "file=a.rb") {
		t.Errorf("debug message missing: %s", buf.String())
	}
}

func TestLoggerWithTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, false)

	if got := LoggerWithTrace(context.Background(), logger); got != logger {
		t.Error("logger without span should be returned unchanged")
	}

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	LoggerWithTrace(ctx, logger).Info("traced")
	if !strings.Contains(buf.String(), "trace_id="+span.SpanContext().TraceID().String()) {
		t.Errorf("trace_id missing: %s", buf.String())
	}
}

func TestOpenLogger_File(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "yardcop.log")

	logger, closer, err := OpenLogger(&console, LogConfig{File: path})
	if err != nil {
		t.Fatalf("OpenLogger: %v", err)
	}
	logger.Info("linted", "files", 3)
	logger.Debug("hidden")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if !strings.Contains(console.String(), "msg=linted files=3") {
		t.Errorf("expected text record on the console, got %q", console.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"linted","files":3`) {
		t.Errorf("expected JSON record in the file, got %q", data)
	}
	if strings.Contains(string(data), "hidden") {
		t.Error("debug record written at info level")
	}
}

func TestOpenLogger_JSONConsole(t *testing.T) {
	var console bytes.Buffer
	logger, closer, err := OpenLogger(&console, LogConfig{JSON: true, Debug: true})
	if err != nil {
		t.Fatalf("OpenLogger: %v", err)
	}
	defer closer.Close()

	logger.With("cop", "YARD/NoPeriod").Debug("offense")
	if !strings.Contains(console.String(), `"cop":"YARD/NoPeriod"`) {
		t.Errorf("expected JSON debug record, got %q", console.String())
	}
}

func TestOpenLogger_BadFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	var console bytes.Buffer
	logger, closer, err := OpenLogger(&console, LogConfig{File: filepath.Join(blocker, "x.log")})
	if err == nil {
		t.Fatal("expected an error when the log directory is a file")
	}
	if logger == nil || closer == nil {
		t.Fatal("logger and closer must never be nil")
	}
	logger.Info("still works")
	if !strings.Contains(console.String(), "still works") {
		t.Error("expected the console logger to keep working")
	}
}
