// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server exposes the linter over HTTP for editor integrations.
//
// The service is stateless: every request carries the source to lint and
// is checked against the configuration loaded at startup. Nothing is read
// from or written to disk.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/yardcop/services/yardcop/ast"
	"github.com/AleutianAI/yardcop/services/yardcop/config"
	"github.com/AleutianAI/yardcop/services/yardcop/cops"
	"github.com/AleutianAI/yardcop/services/yardcop/lint"
	"github.com/AleutianAI/yardcop/services/yardcop/telemetry"
)

// DefaultMaxSourceBytes bounds the request body of the lint endpoint.
const DefaultMaxSourceBytes = 2 << 20

// Handlers serves the yardcop HTTP API.
//
// Thread Safety: Safe for concurrent use. The configuration and registry
// are read-only after construction.
type Handlers struct {
	cfg            *config.Config
	registry       *cops.Registry
	version        string
	maxSourceBytes int64
}

// NewHandlers creates handlers for a loaded configuration.
//
// Inputs:
//
//	cfg      - Merged configuration. Must not be nil.
//	registry - Cops to serve. Nil means cops.Default().
//	version  - Reported by the health endpoint.
func NewHandlers(cfg *config.Config, registry *cops.Registry, version string) *Handlers {
	if registry == nil {
		registry = cops.Default()
	}
	return &Handlers{
		cfg:            cfg,
		registry:       registry,
		version:        version,
		maxSourceBytes: DefaultMaxSourceBytes,
	}
}

// WithMaxSourceBytes overrides DefaultMaxSourceBytes.
func (h *Handlers) WithMaxSourceBytes(n int64) *Handlers {
	if n > 0 {
		h.maxSourceBytes = n
	}
	return h
}

// HandleLint handles POST /v1/yardcop/lint.
//
// Description:
//
//	Lints the source in the request body as the file named by Path. With
//	autocorrect the corrected source is returned alongside the offenses,
//	corrected ones flagged with "corrected": true.
//
// Response:
//
//	200 OK: LintResponse
//	400 Bad Request: Invalid body, unknown cop or unsupported file type
//	413 Request Entity Too Large: Body above the configured limit
//	422 Unprocessable Entity: Autocorrect did not converge
func (h *Handlers) HandleLint(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := telemetry.LoggerWithTrace(c.Request.Context(), slog.Default()).
		With("request_id", requestID, "handler", "HandleLint")

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSourceBytes)

	var req LintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: err.Error(),
				Code:  "SOURCE_TOO_LARGE",
			})
			return
		}
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	path := strings.TrimPrefix(req.Path, "./")
	if err := h.registry.CheckNames(append(append([]string{}, req.Only...), req.Except...)); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "UNKNOWN_COP",
		})
		return
	}

	if h.cfg.ExcludedGlobally(path) {
		c.JSON(http.StatusOK, LintResponse{Excluded: true})
		return
	}

	runner := lint.NewRunner(h.cfg, h.registry.All(),
		lint.WithPolicy(lint.NewRulePolicy(h.cfg, req.Only, req.Except)),
		lint.WithAutocorrect(req.Autocorrect),
	)
	result, corrected, err := runner.LintContent(c.Request.Context(), []byte(req.Source), path)
	if err != nil {
		status, code := http.StatusInternalServerError, "LINT_FAILED"
		switch {
		case errors.Is(err, lint.ErrUnsupportedFile):
			status, code = http.StatusBadRequest, "UNSUPPORTED_FILE"
		case errors.Is(err, lint.ErrInfiniteCorrection):
			status, code = http.StatusUnprocessableEntity, "CORRECTION_LOOP"
		case errors.Is(err, ast.ErrParseFailed), errors.Is(err, ast.ErrInvalidContent):
			status, code = http.StatusBadRequest, "PARSE_FAILED"
		case errors.Is(err, ast.ErrFileTooLarge):
			status, code = http.StatusRequestEntityTooLarge, "SOURCE_TOO_LARGE"
		}
		logger.Error("Lint failed", "path", path, "error", err)
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	resp := LintResponse{
		Result:  result,
		Summary: lint.Summarize([]*lint.FileResult{result}),
	}
	if req.Autocorrect {
		s := string(corrected)
		resp.Corrected = &s
	}

	logger.Debug("Linted source",
		"path", path,
		"offenses", len(result.Offenses),
		"corrected", result.CorrectedCount)

	c.JSON(http.StatusOK, resp)
}

// HandleCops handles GET /v1/yardcop/cops.
func (h *Handlers) HandleCops(c *gin.Context) {
	getOrCreateRequestID(c)
	all := h.registry.All()
	resp := CopsResponse{Cops: make([]CopInfo, 0, len(all))}
	for _, cop := range all {
		settings := h.cfg.Settings(cop.Name())
		severity := settings.Severity
		if severity == "" {
			severity = lint.SeverityConvention.String()
		}
		resp.Cops = append(resp.Cops, CopInfo{
			Name:        cop.Name(),
			Description: cop.Description(),
			Enabled:     settings.Enabled,
			Severity:    severity,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// HandleHealth handles GET /v1/yardcop/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	getOrCreateRequestID(c)
	c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		Version:      h.version,
		ConfigSource: h.cfg.Source(),
	})
}

// getOrCreateRequestID echoes X-Request-ID, generating one when absent.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
