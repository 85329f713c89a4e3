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
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/yardcop/services/yardcop/lint"
	"github.com/AleutianAI/yardcop/services/yardcop/telemetry"
)

// options holds every flag of the root command.
type options struct {
	configPath      string
	autocorrect     bool
	interactive     bool
	format          string
	only            string
	except          string
	diffPath        string
	failLevel       string
	color           string
	jobs            int
	useCache        bool
	cacheDir        string
	watch           bool
	metricsTextfile string
	otel            string
	debug           bool
	logFile         string
	logFormat       string
}

// streams are the process's standard streams, swapped out in tests.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, in io.Reader, out, errOut io.Writer) int {
	root := newRootCmd(streams{in: in, out: out, err: errOut})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	if err != nil {
		if code := exitCode(err); code != ExitOffenses {
			fmt.Fprintf(errOut, "yardcop: %v\n", err)
			return code
		}
		return ExitOffenses
	}
	return ExitOK
}

func newRootCmd(s streams) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "yardcop [paths...]",
		Short: "Lint YARD documentation in Ruby sources",
		Long: `yardcop checks YARD doc comments on Ruby classes, modules, methods,
constants and attributes, and can fix the offenses it knows how to fix.

Configuration is read from --config, $YARDCOP_CONFIG or ./.yardcop.yml and
merged over the built-in defaults.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd.Context(), opts, s, args)
		},
	}
	root.SetIn(s.in)
	root.SetOut(s.out)
	root.SetErr(s.err)

	persistent := root.PersistentFlags()
	persistent.StringVarP(&opts.configPath, "config", "c", "", "Path to a .yardcop.yml file")
	persistent.StringVar(&opts.cacheDir, "cache-dir", "", "Result cache directory (default $XDG_CACHE_HOME/yardcop)")
	persistent.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	persistent.StringVar(&opts.logFile, "log-file", "", "Also append JSON logs to this file")
	persistent.StringVar(&opts.logFormat, "log-format", "text", "Log format on stderr: text or json")

	flags := root.Flags()
	flags.BoolVarP(&opts.autocorrect, "autocorrect", "a", false, "Fix correctable offenses in place")
	flags.BoolVarP(&opts.interactive, "interactive", "i", false, "Review autocorrections file by file before writing (with --autocorrect)")
	flags.StringVarP(&opts.format, "format", "f", "text", "Output format: "+strings.Join(lint.Formats, ", "))
	flags.StringVar(&opts.only, "only", "", "Comma-separated cops or departments to run")
	flags.StringVar(&opts.except, "except", "", "Comma-separated cops or departments to skip")
	flags.StringVar(&opts.diffPath, "diff", "", "Only report offenses on lines added by this unified diff (\"-\" reads stdin)")
	flags.StringVar(&opts.failLevel, "fail-level", "info", "Lowest severity that makes the run fail")
	flags.StringVar(&opts.color, "color", "auto", "Colorize text output: auto, always, never")
	flags.IntVarP(&opts.jobs, "jobs", "j", 0, "Files linted in parallel (0 = one per CPU)")
	flags.BoolVar(&opts.useCache, "cache", false, "Reuse results for unchanged files")
	flags.BoolVarP(&opts.watch, "watch", "w", false, "Lint again whenever a watched file changes")
	flags.StringVar(&opts.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit")
	flags.StringVar(&opts.otel, "otel", "", "Export traces and metrics: stdout or otlp")

	root.AddCommand(
		newCopsCmd(opts, s),
		newConfigCmd(opts, s),
		newCacheCmd(opts, s),
		newInitCmd(opts, s),
		newServeCmd(opts, s),
		newVersionCmd(s),
	)
	return root
}

// setupLogging installs the default logger and returns its closer.
func setupLogging(opts *options, s streams) func() {
	logger, closer, err := telemetry.OpenLogger(s.err, telemetry.LogConfig{
		Debug: opts.debug,
		JSON:  opts.logFormat == "json",
		File:  opts.logFile,
	})
	slog.SetDefault(logger)
	if err != nil {
		slog.Warn("file logging disabled", slog.String("error", err.Error()))
	}
	return func() {
		if err := closer.Close(); err != nil {
			slog.Warn("closing log file", slog.String("error", err.Error()))
		}
	}
}

func newVersionCmd(s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the yardcop version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(s.out, "yardcop %s\n", version)
		},
	}
}
