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
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/yardcop/services/yardcop/cache"
	"github.com/AleutianAI/yardcop/services/yardcop/config"
	"github.com/AleutianAI/yardcop/services/yardcop/cops"
)

var (
	enabledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// newCopsCmd lists every cop with its effective settings.
func newCopsCmd(opts *options, s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "cops",
		Short: "List available cops and their configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer setupLogging(opts, s)()
			cfg, err := config.Load(cmd.Context(), opts.configPath)
			if err != nil {
				return withCode(ExitError, err)
			}

			all := cops.Default().All()
			width := 0
			for _, cop := range all {
				width = max(width, len(cop.Name()))
			}
			for _, cop := range all {
				settings := cfg.Settings(cop.Name())
				state := enabledStyle.Render("enabled ")
				if !settings.Enabled {
					state = disabledStyle.Render("disabled")
				}
				severity := settings.Severity
				if severity == "" {
					severity = "convention"
				}
				fmt.Fprintf(s.out, "%-*s  %s  %-10s  %s\n", width, cop.Name(), state, severity, cop.Description())
			}
			return nil
		},
	}
}

// newConfigCmd prints the merged configuration.
func newConfigCmd(opts *options, s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer setupLogging(opts, s)()
			cfg, err := config.Load(cmd.Context(), opts.configPath)
			if err != nil {
				return withCode(ExitError, err)
			}
			out, err := cfg.YAML()
			if err != nil {
				return withCode(ExitError, err)
			}
			fmt.Fprintf(s.out, "# source: %s\n", cfg.Source())
			_, err = s.out.Write(out)
			return err
		},
	}
}

// newCacheCmd groups result cache maintenance.
func newCacheCmd(opts *options, s streams) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the result cache",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.cacheDir
			if dir == "" {
				var err error
				if dir, err = cache.DefaultDir(); err != nil {
					return withCode(ExitError, err)
				}
			}
			c, err := cache.Open(cache.Config{Dir: dir})
			if err != nil {
				return withCode(ExitError, err)
			}
			defer c.Close()
			n, err := c.Len()
			if err != nil {
				return withCode(ExitError, err)
			}
			if err := c.Clear(); err != nil {
				return withCode(ExitError, err)
			}
			fmt.Fprintf(s.out, "removed %d cached results from %s\n", n, dir)
			return nil
		},
	})
	return cacheCmd
}
