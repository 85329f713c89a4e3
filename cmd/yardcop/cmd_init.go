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
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/yardcop/services/yardcop/config"
)

// declarationKinds are the YARD/Documentation switches, in prompt order.
var declarationKinds = []string{"Class", "Module", "Method", "Constant", "Attribute"}

// methodTags are the tags offered for YARD/RequiredTags on methods.
var methodTags = []string{"api", "author", "example", "return", "since"}

// initAnswers collects the choices written by `yardcop init`.
type initAnswers struct {
	Documented     []string
	MethodTags     []string
	RequireParams  bool
	RequireExample bool
}

func defaultInitAnswers() initAnswers {
	return initAnswers{
		Documented:     slices.Clone(declarationKinds),
		MethodTags:     []string{"api", "author", "return", "since"},
		RequireParams:  true,
		RequireExample: true,
	}
}

// newInitCmd writes a starter .yardcop.yml.
func newInitCmd(opts *options, s streams) *cobra.Command {
	var force, defaults bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a .yardcop.yml in the current directory",
		Long: `init writes a starter configuration. When stdin is a terminal it asks
which declarations must be documented and which tags are required;
otherwise, or with --defaults, it writes the built-in defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if path == "" {
				path = config.DefaultFileName
			}
			if _, err := os.Stat(path); err == nil && !force {
				return withCode(ExitError, fmt.Errorf("%s already exists (use --force to overwrite)", path))
			}

			answers := defaultInitAnswers()
			if !defaults && isTerminal(s.in) {
				if err := askInit(&answers, s.in, s.err); err != nil {
					return withCode(ExitError, err)
				}
			}

			data, err := renderInitConfig(answers)
			if err != nil {
				return withCode(ExitError, err)
			}
			if _, err := config.Parse(cmd.Context(), data, path); err != nil {
				return withCode(ExitError, err)
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return withCode(ExitError, err)
			}
			fmt.Fprintf(s.out, "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "Do not prompt; write the defaults")
	return cmd
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func askInit(a *initAnswers, in io.Reader, out io.Writer) error {
	kindOptions := make([]huh.Option[string], len(declarationKinds))
	for i, kind := range declarationKinds {
		kindOptions[i] = huh.NewOption(kind, kind).Selected(slices.Contains(a.Documented, kind))
	}
	tagOptions := make([]huh.Option[string], len(methodTags))
	for i, tag := range methodTags {
		tagOptions[i] = huh.NewOption("@"+tag, tag).Selected(slices.Contains(a.MethodTags, tag))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Which declarations must be documented?").
				Options(kindOptions...).
				Value(&a.Documented),
			huh.NewMultiSelect[string]().
				Title("Which tags must every documented method carry?").
				Options(tagOptions...).
				Value(&a.MethodTags),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Require a @param tag for every parameter?").
				Value(&a.RequireParams),
			huh.NewConfirm().
				Title("Require @example on public methods?").
				Value(&a.RequireExample),
		),
	).WithInput(in).WithOutput(out)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errors.New("init aborted")
		}
		return err
	}
	return nil
}

// renderInitConfig turns the answers into YAML that config.Parse accepts.
func renderInitConfig(a initAnswers) ([]byte, error) {
	documentation := map[string]any{}
	for _, kind := range declarationKinds {
		documentation[kind] = slices.Contains(a.Documented, kind)
	}

	tags := a.MethodTags
	if tags == nil {
		tags = []string{}
	}
	doc := map[string]any{
		"YARD/Documentation": documentation,
		"YARD/RequiredTags": map[string]any{
			"RequireParams":                 a.RequireParams,
			"RequireExampleOnPublicMethods": a.RequireExample,
			"RequiredTags": map[string]any{
				"Method": tags,
			},
		},
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("rendering config: %w", err)
	}
	header := "# yardcop configuration. Settings not listed here keep their defaults;\n# run `yardcop config` to see the merged result.\n"
	return append([]byte(header), out...), nil
}
