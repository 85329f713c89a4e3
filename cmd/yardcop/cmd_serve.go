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
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/yardcop/services/yardcop/config"
	"github.com/AleutianAI/yardcop/services/yardcop/cops"
	"github.com/AleutianAI/yardcop/services/yardcop/server"
)

// newServeCmd runs the HTTP lint service.
func newServeCmd(opts *options, s streams) *cobra.Command {
	sc := server.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the linter over HTTP for editor integrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer setupLogging(opts, s)()
			if !opts.debug {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

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

			srv, err := server.New(sc, server.NewHandlers(cfg, cops.Default(), version))
			if err != nil {
				return withCode(ExitError, err)
			}
			err = srv.Run(ctx, func(addr net.Addr) {
				fmt.Fprintf(s.out, "listening on http://%s\n", addr)
			})
			if err != nil {
				return withCode(ExitError, err)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&sc.Addr, "addr", sc.Addr, "Listen address")
	flags.Float64Var(&sc.RequestsPerSecond, "rate", sc.RequestsPerSecond, "Requests per second admitted (0 disables limiting)")
	flags.IntVar(&sc.Burst, "burst", sc.Burst, "Rate limiter burst size")
	flags.DurationVar(&sc.ShutdownTimeout, "shutdown-timeout", sc.ShutdownTimeout, "Grace period for in-flight requests")
	return cmd
}
