// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	filePathStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	statsStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	addedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	removedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	contextStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	lineNumStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(4)
	hunkHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	offenseStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	helpKeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	helpDescStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))

	acceptedBadge = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Background(lipgloss.Color("22")).Padding(0, 1)
	rejectedBadge = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Background(lipgloss.Color("52")).Padding(0, 1)
	pendingBadge  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Background(lipgloss.Color("58")).Padding(0, 1)
)

func (m Model) renderHeader() string {
	title := titleStyle.Render(fmt.Sprintf("Autocorrections (%d files)", len(m.changes)))
	if m.screen == screenSummary {
		return title
	}
	return title + statsStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.changes)))
}

func (m Model) renderFooter() string {
	if m.screen == screenSummary {
		return m.help.ShortHelpView(m.keys.summaryHelp())
	}
	return m.help.View(m.keys)
}

func (m Model) renderFileDiff() string {
	if m.cursor >= len(m.changes) {
		return "No file selected"
	}
	change := m.changes[m.cursor]

	var b strings.Builder
	b.WriteString(filePathStyle.Render(change.Path))
	b.WriteString("  ")
	b.WriteString(renderStats(change))
	b.WriteString("  ")
	b.WriteString(renderBadge(m.verdict[m.cursor]))
	b.WriteString("\n\n")

	for _, o := range change.Corrected {
		b.WriteString(offenseStyle.Render(fmt.Sprintf("%d:%d %s: %s", o.Line(), o.Column(), o.Cop, o.Message)))
		b.WriteString("\n")
	}
	if len(change.Corrected) > 0 {
		b.WriteString("\n")
	}

	for i, hunk := range change.Hunks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(hunkHeaderStyle.Render(hunk.Header()))
		b.WriteString("\n")
		for _, line := range hunk.Lines {
			b.WriteString(m.renderLine(line))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderLine(line Line) string {
	var b strings.Builder
	if m.cfg.ShowLineNumbers {
		oldNum, newNum := "", ""
		if line.OldNum > 0 {
			oldNum = fmt.Sprintf("%3d", line.OldNum)
		}
		if line.NewNum > 0 {
			newNum = fmt.Sprintf("%3d", line.NewNum)
		}
		b.WriteString(lineNumStyle.Render(oldNum))
		b.WriteString(lineNumStyle.Render(newNum))
	}

	style := contextStyle
	switch line.Kind {
	case LineAdded:
		style = addedStyle
	case LineRemoved:
		style = removedStyle
	}
	b.WriteString(style.Render(string(line.Kind) + line.Text))
	return b.String()
}

func renderStats(change *Change) string {
	added, removed := change.LineStats()
	return addedStyle.Render(fmt.Sprintf("+%d", added)) + " " + removedStyle.Render(fmt.Sprintf("-%d", removed))
}

func renderBadge(d Decision) string {
	switch d {
	case DecisionAccepted:
		return acceptedBadge.Render("ACCEPTED")
	case DecisionRejected:
		return rejectedBadge.Render("REJECTED")
	case DecisionSkipped:
		return pendingBadge.Render("SKIPPED")
	default:
		return pendingBadge.Render("PENDING")
	}
}

func (m Model) renderSummary() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Review Summary"))
	b.WriteString("\n\n")

	groups := []struct {
		label    string
		decision Decision
		style    lipgloss.Style
	}{
		{"Accepted", DecisionAccepted, addedStyle},
		{"Rejected", DecisionRejected, removedStyle},
		{"Skipped", DecisionSkipped, statsStyle},
		{"Pending", DecisionPending, pendingBadge},
	}
	for _, g := range groups {
		var paths []*Change
		for i, change := range m.changes {
			if m.verdict[i] == g.decision {
				paths = append(paths, change)
			}
		}
		if len(paths) == 0 {
			continue
		}
		b.WriteString(g.style.Render(fmt.Sprintf("%s (%d files):", g.label, len(paths))))
		b.WriteString("\n")
		for _, change := range paths {
			fmt.Fprintf(&b, "  • %s  %s\n", change.Path, renderStats(change))
		}
		b.WriteString("\n")
	}

	corrections := 0
	for i, change := range m.changes {
		if m.verdict[i] == DecisionAccepted {
			corrections += len(change.Corrected)
		}
	}
	fmt.Fprintf(&b, "Offenses to correct: %d\n", corrections)
	return b.String()
}

func (m Model) renderHelp() string {
	full := m.help
	full.ShowAll = true

	var b strings.Builder
	b.WriteString(titleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")
	b.WriteString(full.View(m.keys))
	b.WriteString("\n\n")
	b.WriteString(helpDescStyle.Render("Scroll the diff with ↑/↓ and PgUp/PgDn. Press ? or Esc to close."))
	return b.String()
}

func (m Model) renderConfirm() string {
	pending := 0
	for _, d := range m.verdict {
		if !d.IsTerminal() {
			pending++
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Confirm Accept All"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "This will accept %d remaining file(s).\n\n", pending)
	b.WriteString(m.confirm.View())
	b.WriteString("\n\n")
	b.WriteString(helpDescStyle.Render("Press Enter to confirm, Esc to cancel"))
	return b.String()
}
