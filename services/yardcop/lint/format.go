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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
)

// ErrUnknownFormat is returned by NewFormatter for unknown names.
var ErrUnknownFormat = errors.New("unknown format")

// Formatter renders a finished run.
type Formatter interface {
	Format(w io.Writer, results []*FileResult) error
}

// FormatterOptions tune formatter output.
type FormatterOptions struct {
	// Version is reported in JSON metadata.
	Version string

	// Color forces colors on or off. Nil decides from the output file.
	Color *bool

	// ReadSource loads file content for the text formatter's source
	// excerpts. Defaults to os.ReadFile.
	ReadSource func(path string) ([]byte, error)
}

// Formats lists the accepted formatter names.
var Formats = []string{"text", "json", "github"}

// NewFormatter returns the formatter named name.
func NewFormatter(name string, opts FormatterOptions) (Formatter, error) {
	if opts.ReadSource == nil {
		opts.ReadSource = os.ReadFile
	}
	switch name {
	case "", "text":
		return &TextFormatter{opts: opts}, nil
	case "json":
		return &JSONFormatter{opts: opts}, nil
	case "github":
		return &GitHubFormatter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, name, strings.Join(Formats, ", "))
	}
}

// sortedOffenses flattens results into path then position order.
func sortedOffenses(results []*FileResult) []Offense {
	var all []Offense
	for _, r := range results {
		if r != nil {
			all = append(all, r.Offenses...)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].File != all[j].File {
			return all[i].File < all[j].File
		}
		return all[i].Range.Start < all[j].Range.Start
	})
	return all
}

// =============================================================================
// TEXT
// =============================================================================

var (
	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	copStyle = lipgloss.NewStyle().
			Bold(true)

	caretStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212"))

	correctedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	severityStyles = map[Severity]lipgloss.Style{
		SeverityInfo:       lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		SeverityConvention: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		SeverityWarning:    lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		SeverityError:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		SeverityFatal:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

// TextFormatter prints one block per offense:
//
//	lib/foo.rb:3:1: C: [Correctable] YARD/NoPeriod: message
//	# Returns the value.
//	^^^^^^^^^^^^^^^^^^^^
type TextFormatter struct {
	opts FormatterOptions
}

// Format implements Formatter.
func (f *TextFormatter) Format(w io.Writer, results []*FileResult) error {
	color := f.useColor(w)
	paint := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}

	sources := make(map[string][]string)
	for _, o := range sortedOffenses(results) {
		status := ""
		switch {
		case o.Corrected:
			status = paint(correctedStyle, "[Corrected] ")
		case o.Correctable:
			status = "[Correctable] "
		}

		if _, err := fmt.Fprintf(w, "%s:%d:%d: %s: %s%s: %s\n",
			paint(pathStyle, o.File), o.Line(), o.Column(),
			paint(severityStyles[o.Severity], o.Severity.Code()),
			status, paint(copStyle, o.Cop), o.Message,
		); err != nil {
			return err
		}

		if o.Corrected {
			continue
		}
		lines, ok := sources[o.File]
		if !ok {
			if content, err := f.opts.ReadSource(o.File); err == nil {
				lines = strings.Split(string(content), "\n")
			}
			sources[o.File] = lines
		}
		if excerpt, carets, ok := caretLines(lines, o.Range.StartLine, o.Range.StartColumn, o.Range.EndLine, o.Range.EndColumn); ok {
			if _, err := fmt.Fprintf(w, "%s\n%s\n", excerpt, paint(caretStyle, carets)); err != nil {
				return err
			}
		}
	}

	s := Summarize(results)
	line := fmt.Sprintf("\n%s inspected, %s detected", plural(s.Files, "file"), plural(s.Offenses-s.Corrected, "offense"))
	if s.Corrected > 0 {
		line += fmt.Sprintf(", %s corrected", plural(s.Corrected, "offense"))
	}
	_, err := fmt.Fprintln(w, paint(summaryStyle, line))
	return err
}

func (f *TextFormatter) useColor(w io.Writer) bool {
	if f.opts.Color != nil {
		return *f.opts.Color
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// caretLines returns the first source line of a range and a caret marker
// under it. Columns are byte-based; the marker is aligned by display
// width so wide characters line up.
func caretLines(lines []string, startLine, startCol, endLine, endCol int) (string, string, bool) {
	if startLine < 1 || startLine > len(lines) {
		return "", "", false
	}
	text := strings.TrimRight(lines[startLine-1], "\r")
	from := clamp(startCol-1, 0, len(text))
	to := len(text)
	if endLine == startLine {
		to = clamp(endCol-1, from, len(text))
	}
	pad := runewidth.StringWidth(text[:from])
	width := runewidth.StringWidth(text[from:to])
	if width == 0 {
		width = 1
	}
	return text, strings.Repeat(" ", pad) + strings.Repeat("^", width), true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	if n == 0 {
		return fmt.Sprintf("no %ss", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// =============================================================================
// JSON
// =============================================================================

// JSONReport is the document written by JSONFormatter.
type JSONReport struct {
	Metadata JSONMetadata  `json:"metadata"`
	Files    []*FileResult `json:"files"`
	Summary  Summary       `json:"summary"`
}

// JSONMetadata identifies the run.
type JSONMetadata struct {
	RunID   string `json:"run_id"`
	Version string `json:"yardcop_version"`
}

// JSONFormatter writes a JSONReport.
type JSONFormatter struct {
	opts FormatterOptions
}

// Format implements Formatter.
func (f *JSONFormatter) Format(w io.Writer, results []*FileResult) error {
	files := make([]*FileResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			files = append(files, r)
		}
	}
	report := JSONReport{
		Metadata: JSONMetadata{RunID: uuid.NewString(), Version: f.opts.Version},
		Files:    files,
		Summary:  Summarize(files),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// =============================================================================
// GITHUB
// =============================================================================

// GitHubFormatter writes GitHub Actions workflow commands.
type GitHubFormatter struct{}

// Format implements Formatter.
func (f *GitHubFormatter) Format(w io.Writer, results []*FileResult) error {
	for _, o := range sortedOffenses(results) {
		if o.Corrected {
			continue
		}
		if _, err := fmt.Fprintf(w, "::%s file=%s,line=%d,col=%d,endLine=%d,endColumn=%d,title=%s::%s\n",
			githubLevel(o.Severity),
			escapeProperty(o.File), o.Range.StartLine, o.Range.StartColumn,
			o.Range.EndLine, o.Range.EndColumn,
			escapeProperty(o.Cop), escapeData(o.Message),
		); err != nil {
			return err
		}
	}
	return nil
}

func githubLevel(s Severity) string {
	switch {
	case s >= SeverityError:
		return "error"
	case s == SeverityInfo:
		return "notice"
	default:
		return "warning"
	}
}

var (
	dataEscaper     = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	propertyEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")
)

func escapeData(s string) string {
	return dataEscaper.Replace(s)
}

func escapeProperty(s string) string {
	return propertyEscaper.Replace(s)
}
