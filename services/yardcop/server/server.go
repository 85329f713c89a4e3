// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
)

// Config configures Server.
//
// # Validation
//
//   - Addr: required
//   - RequestsPerSecond: zero disables rate limiting
//   - Burst: at least 1 when rate limiting is on
type Config struct {
	Addr              string        `validate:"required"`
	ServiceName       string        `validate:"required"`
	RequestsPerSecond float64       `validate:"gte=0"`
	Burst             int           `validate:"gte=0"`
	ShutdownTimeout   time.Duration `validate:"gte=0"`
}

// DefaultConfig listens on localhost only.
func DefaultConfig() Config {
	return Config{
		Addr:              "127.0.0.1:7878",
		ServiceName:       "yardcop",
		RequestsPerSecond: 50,
		Burst:             100,
		ShutdownTimeout:   10 * time.Second,
	}
}

var serverValidate = validator.New()

// Server runs the HTTP API until its context is cancelled.
type Server struct {
	cfg     Config
	httpSrv *http.Server
}

// New validates cfg and builds a server around h.
func New(cfg Config, h *Handlers) (*Server, error) {
	if err := serverValidate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.Burst, 1))
	}
	return &Server{
		cfg: cfg,
		httpSrv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewRouter(h, cfg.ServiceName, limiter),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Run listens on cfg.Addr and serves until ctx is cancelled, then shuts
// down gracefully within ShutdownTimeout.
//
// Inputs:
//
//	ctx   - Cancel to stop the server. Must not be nil.
//	ready - Called with the bound address once listening. May be nil.
//
// Outputs:
//
//	error - Listen or serve failure. A clean shutdown returns nil.
func (s *Server) Run(ctx context.Context, ready func(addr net.Addr)) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	if ready != nil {
		ready(ln.Addr())
	}
	slog.Info("yardcop server listening", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	slog.Info("yardcop server shutting down")
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
