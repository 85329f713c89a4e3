// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads yardcop configuration.
//
// The embedded default.yml is always loaded first; a user file is deep
// merged over it. Cops read their settings through Section, a read-only
// view, or through the typed structs built from it.
//
// Thread Safety:
//
//	A loaded Config is immutable and safe for concurrent use.
package config

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"
)

const (
	// MaxYAMLFileSize is the maximum allowed configuration file size (1MB).
	MaxYAMLFileSize = 1024 * 1024

	// DefaultFileName is the configuration file looked up in the working
	// directory when no path is given.
	DefaultFileName = ".yardcop.yml"

	// EnvConfigPath names the environment variable holding a config path.
	EnvConfigPath = "YARDCOP_CONFIG"

	// AllCopsKey is the section holding settings shared by every cop.
	AllCopsKey = "AllCops"
)

var (
	// ErrConfigTooLarge is returned for files above MaxYAMLFileSize.
	ErrConfigTooLarge = errors.New("config file too large")

	// ErrInvalidConfig is returned when the YAML cannot be decoded or fails
	// validation.
	ErrInvalidConfig = errors.New("invalid config")
)

//go:embed default.yml
var defaultConfigYAML []byte

var (
	configLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yardcop_config_loads_total",
		Help: "Total configuration loads by source",
	}, []string{"source"})

	configLoadErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yardcop_config_load_errors_total",
		Help: "Total configuration load errors",
	})

	configLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "yardcop_config_load_duration_seconds",
		Help:    "Duration of configuration loading",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05},
	})
)

var configTracer = otel.Tracer("yardcop.config")

// Config is the merged configuration for one run.
type Config struct {
	raw    map[string]any
	source string
	digest string
}

// Default returns the embedded default configuration.
func Default() (*Config, error) {
	raw, err := decode(defaultConfigYAML)
	if err != nil {
		return nil, fmt.Errorf("embedded default: %w", err)
	}
	return newConfig(raw, "embedded"), nil
}

// Load resolves, reads and merges the user configuration.
//
// Description:
//
//	The user file is located in this order: the explicit path argument,
//	the YARDCOP_CONFIG environment variable, ./.yardcop.yml. When none
//	exists the embedded default is returned. An explicit path that cannot
//	be read is an error; a missing default-location file is not.
//
// Inputs:
//
//	ctx  - Context for tracing. Must not be nil.
//	path - Explicit config path, or "".
//
// Outputs:
//
//	*Config - The merged, validated configuration.
//	error   - Non-nil on read, decode or validation failure.
//
// Example:
//
//	cfg, err := config.Load(ctx, "")
//	if err != nil {
//	    return fmt.Errorf("loading config: %w", err)
//	}
func Load(ctx context.Context, path string) (*Config, error) {
	if ctx == nil {
		return nil, fmt.Errorf("config.Load: ctx must not be nil")
	}

	ctx, span := configTracer.Start(ctx, "config.Load")
	defer span.End()

	start := time.Now()
	defer func() {
		configLoadDuration.Observe(time.Since(start).Seconds())
	}()

	explicit := path != ""
	if !explicit {
		path = resolvePath()
	}

	if path == "" {
		slog.Debug("no user config found, using embedded default")
		configLoads.WithLabelValues("embedded").Inc()
		return Default()
	}

	data, err := readConfigFile(ctx, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		configLoadErrors.Inc()
		return nil, err
	}

	cfg, err := Parse(ctx, data, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		configLoadErrors.Inc()
		return nil, err
	}

	span.SetAttributes(
		attribute.String("source", path),
		attribute.Int("cop_count", len(cfg.CopNames())),
	)
	configLoads.WithLabelValues("file").Inc()
	slog.Debug("loaded config", slog.String("path", path))

	return cfg, nil
}

// Parse merges YAML data over the embedded default and validates it.
func Parse(ctx context.Context, data []byte, source string) (*Config, error) {
	_, span := configTracer.Start(ctx, "config.Parse",
		trace.WithAttributes(attribute.Int("yaml_size", len(data))),
	)
	defer span.End()

	base, err := decode(defaultConfigYAML)
	if err != nil {
		return nil, fmt.Errorf("embedded default: %w", err)
	}

	user, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	cfg := newConfig(Merge(base, user), source)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return cfg, nil
}

// FromMap builds a Config from an already-decoded map, merged over the
// embedded default. It is meant for tests and embedding.
func FromMap(raw map[string]any) (*Config, error) {
	base, err := decode(defaultConfigYAML)
	if err != nil {
		return nil, err
	}
	return newConfig(Merge(base, raw), "inline"), nil
}

func newConfig(raw map[string]any, source string) *Config {
	cfg := &Config{raw: raw, source: source}
	if out, err := yaml.Marshal(raw); err == nil {
		sum := sha256.Sum256(out)
		cfg.digest = hex.EncodeToString(sum[:])
	}
	return cfg
}

func decode(data []byte) (map[string]any, error) {
	raw := make(map[string]any)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return raw, nil
}

func resolvePath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultFileName); err == nil {
		if abs, err := filepath.Abs(DefaultFileName); err == nil {
			return abs
		}
		return DefaultFileName
	}
	return ""
}

func readConfigFile(ctx context.Context, p string) ([]byte, error) {
	_, span := configTracer.Start(ctx, "config.ReadFile",
		trace.WithAttributes(attribute.String("path", p)),
	)
	defer span.End()

	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("stat config: %w", err)
	}
	if info.Size() > MaxYAMLFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrConfigTooLarge, info.Size(), MaxYAMLFileSize)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return data, nil
}

// Merge deep-merges override into base and returns a new map. Nested maps
// merge key by key; any other override value replaces the base value.
// Neither input is modified.
func Merge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		bm, bok := asMap(out[k])
		om, ook := asMap(v)
		if bok && ook {
			out[k] = Merge(bm, om)
			continue
		}
		out[k] = v
	}
	return out
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Source returns "embedded", "inline" or the user file path.
func (c *Config) Source() string {
	return c.source
}

// Digest returns a stable hash of the merged configuration.
func (c *Config) Digest() string {
	return c.digest
}

// Cop returns the raw section for a cop, e.g. "YARD/NoPeriod".
func (c *Config) Cop(name string) Section {
	if c == nil {
		return NewSection(nil)
	}
	m, _ := asMap(c.raw[name])
	return NewSection(m)
}

// AllCops returns the shared section.
func (c *Config) AllCops() Section {
	return c.Cop(AllCopsKey)
}

// CopNames returns every configured cop name ("Department/Name"), sorted.
func (c *Config) CopNames() []string {
	var names []string
	for k := range c.raw {
		if strings.Contains(k, "/") {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

// Settings returns the common settings of a cop.
func (c *Config) Settings(name string) CopSettings {
	s := c.Cop(name)
	return CopSettings{
		Enabled:  s.Bool(false, "Enabled"),
		Severity: s.String("", "Severity"),
		Include:  s.Strings(nil, "Include"),
		Exclude:  s.Strings(nil, "Exclude"),
	}
}

// YAML renders the merged configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c.raw)
}

// AppliesTo reports whether a cop should inspect the file at p.
//
// Description:
//
//	AllCops.Exclude and the cop's own Exclude patterns skip the file; a
//	non-empty cop Include list must match. Patterns are matched against
//	the path relative to the working directory when the file lies inside
//	it, and against the path as given otherwise.
func (c *Config) AppliesTo(cop, p string) bool {
	p = RelativePath(p)
	if c.ExcludedGlobally(p) {
		return false
	}
	settings := c.Settings(cop)
	for _, pattern := range settings.Exclude {
		if MatchPath(pattern, p) {
			return false
		}
	}
	if len(settings.Include) == 0 {
		return true
	}
	for _, pattern := range settings.Include {
		if MatchPath(pattern, p) {
			return true
		}
	}
	return false
}

// ExcludedGlobally reports whether a slash-separated path matches
// AllCops.Exclude.
func (c *Config) ExcludedGlobally(p string) bool {
	for _, pattern := range c.AllCops().Strings(nil, "Exclude") {
		if MatchPath(pattern, p) {
			return true
		}
	}
	return false
}

// RelativePath returns p relative to the working directory when p lies
// inside it, otherwise p cleaned. The result uses forward slashes.
func RelativePath(p string) string {
	clean := filepath.Clean(p)
	abs, err := filepath.Abs(clean)
	if err != nil {
		return filepath.ToSlash(clean)
	}
	wd, err := os.Getwd()
	if err != nil {
		return filepath.ToSlash(clean)
	}
	rel, err := filepath.Rel(wd, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(clean)
	}
	return filepath.ToSlash(rel)
}

// MatchPath matches a slash-separated path against a glob pattern.
//
// Description:
//
//	"**" matches any number of path segments including none. Patterns are
//	anchored at both ends, so "vendor/**/*" matches "vendor/a.rb" but not
//	"app/vendor/a.rb". An invalid pattern matches nothing.
func MatchPath(pattern, p string) bool {
	ok, err := doublestar.Match(filepath.ToSlash(pattern), p)
	return err == nil && ok
}
