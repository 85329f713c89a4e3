// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package review lets a user accept or reject autocorrections per file
// before they are written.
//
// Propose runs the correcting linter in memory and turns every file it
// would modify into a Change with a line diff. Model is a bubbletea
// program that walks the changes and records a Decision per file; Apply
// writes the accepted ones.
//
// Model belongs to the bubbletea event loop and must not be shared
// between goroutines.
package review

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Config configures the review program.
type Config struct {
	// ConfirmAcceptAll asks for a typed "yes" before accepting every
	// remaining file at once.
	ConfirmAcceptAll bool

	// ShowLineNumbers prefixes diff lines with old and new line numbers.
	ShowLineNumbers bool

	// ContextLines is the number of unchanged lines around each hunk.
	ContextLines int
}

// DefaultConfig returns the settings used by the CLI.
func DefaultConfig() Config {
	return Config{
		ConfirmAcceptAll: true,
		ShowLineNumbers:  true,
		ContextLines:     3,
	}
}

// screen is what the area between header and footer shows.
type screen int

const (
	screenDiff screen = iota
	screenSummary
	screenHelp
	screenConfirm
)

// chromeHeight is the number of lines taken by the header and footer.
const chromeHeight = 4

// keyMap holds every binding of the program. It implements help.KeyMap,
// so the footer and the help screen are both rendered from it.
type keyMap struct {
	Accept    key.Binding
	Reject    key.Binding
	Skip      key.Binding
	AcceptAll key.Binding
	Prev      key.Binding
	Next      key.Binding
	Summary   key.Binding
	Apply     key.Binding
	Help      key.Binding
	Close     key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Accept:    key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "accept")),
		Reject:    key.NewBinding(key.WithKeys("n", "N"), key.WithHelp("n", "reject")),
		Skip:      key.NewBinding(key.WithKeys("s", "S"), key.WithHelp("s", "skip")),
		AcceptAll: key.NewBinding(key.WithKeys("a", "A"), key.WithHelp("a", "accept rest")),
		Prev:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous file")),
		Next:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next file")),
		Summary:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "summary")),
		Apply:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "write accepted")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Close:     key.NewBinding(key.WithKeys("esc", "q", "?"), key.WithHelp("esc", "close")),
		Quit:      key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("q", "cancel")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Accept, k.Reject, k.Skip, k.AcceptAll, k.Summary, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Accept, k.Reject, k.Skip, k.AcceptAll},
		{k.Prev, k.Next, k.Summary, k.Apply},
		{k.Help, k.Quit},
	}
}

// summaryHelp is the footer of the summary screen.
func (k keyMap) summaryHelp() []key.Binding {
	return []key.Binding{k.Apply, k.Prev, k.Next, k.AcceptAll, k.Quit}
}

// Model is the bubbletea model for reviewing autocorrections.
//
// Decisions are kept per change index; Result turns them into a map keyed
// by path.
type Model struct {
	cfg     Config
	keys    keyMap
	help    help.Model
	changes []*Change
	verdict []Decision
	cursor  int

	screen screen
	back   screen

	body    viewport.Model
	confirm textinput.Model
	sized   bool

	done      bool
	cancelled bool
}

// NewModel creates a model with every change pending.
func NewModel(changes []*Change, cfg Config) Model {
	verdict := make([]Decision, len(changes))
	for i := range verdict {
		verdict[i] = DecisionPending
	}

	confirm := textinput.New()
	confirm.Prompt = "Type 'yes' to confirm: "
	confirm.CharLimit = 3

	h := help.New()
	h.Styles.ShortKey = helpKeyStyle
	h.Styles.FullKey = helpKeyStyle
	h.Styles.ShortDesc = helpDescStyle
	h.Styles.FullDesc = helpDescStyle

	return Model{
		cfg:     cfg,
		keys:    defaultKeyMap(),
		help:    h,
		changes: changes,
		verdict: verdict,
		confirm: confirm,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch m.screen {
		case screenHelp:
			if key.Matches(msg, m.keys.Close) {
				m.screen = m.back
			}
			return m, nil
		case screenConfirm:
			return m.confirmKey(msg)
		}
		if next, cmd, handled := m.reviewKey(msg); handled {
			return next, cmd
		}
	}

	var cmd tea.Cmd
	m.body, cmd = m.body.Update(msg)
	return m, cmd
}

func (m *Model) resize(width, height int) {
	bodyHeight := max(height-chromeHeight, 1)
	if !m.sized {
		m.body = viewport.New(width, bodyHeight)
		m.body.YPosition = chromeHeight / 2
		m.sized = true
	} else {
		m.body.Width = width
		m.body.Height = bodyHeight
	}
	m.help.Width = width
	m.refresh()
}

// reviewKey handles keys on the diff and summary screens. Keys it does not
// handle scroll the viewport.
func (m Model) reviewKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		m.cancelled = true
		m.done = true
		return m, tea.Quit, true

	case key.Matches(msg, k.Help):
		m.back, m.screen = m.screen, screenHelp
		return m, nil, true

	case key.Matches(msg, k.Prev):
		m.show(m.cursor - 1)
		return m, nil, true

	case key.Matches(msg, k.Next):
		m.show(m.cursor + 1)
		return m, nil, true

	case key.Matches(msg, k.Summary):
		if m.screen == screenSummary {
			m.screen = screenDiff
		} else {
			m.screen = screenSummary
		}
		m.refresh()
		return m, nil, true

	case key.Matches(msg, k.AcceptAll):
		if !m.cfg.ConfirmAcceptAll {
			m.acceptRest()
			m.done = true
			return m, tea.Quit, true
		}
		m.confirm.Reset()
		focus := m.confirm.Focus()
		m.back, m.screen = m.screen, screenConfirm
		return m, focus, true

	case key.Matches(msg, k.Apply):
		if m.screen != screenSummary {
			return m, nil, true
		}
		m.done = true
		return m, tea.Quit, true
	}

	if m.screen != screenDiff {
		return m, nil, false
	}
	switch {
	case key.Matches(msg, k.Accept):
		return m.record(DecisionAccepted), nil, true
	case key.Matches(msg, k.Reject):
		return m.record(DecisionRejected), nil, true
	case key.Matches(msg, k.Skip):
		return m.record(DecisionSkipped), nil, true
	}
	return m, nil, false
}

// confirmKey feeds the accept-all prompt. Enter with "yes" accepts every
// undecided file and ends the review; any other answer, or Esc, returns
// to the previous screen.
func (m Model) confirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		answer := strings.TrimSpace(m.confirm.Value())
		m.confirm.Blur()
		m.screen = m.back
		if strings.EqualFold(answer, "yes") {
			m.acceptRest()
			m.done = true
			return m, tea.Quit
		}
		return m, nil
	case tea.KeyEsc:
		m.confirm.Blur()
		m.screen = m.back
		return m, nil
	}

	var cmd tea.Cmd
	m.confirm, cmd = m.confirm.Update(msg)
	return m, cmd
}

// record stores d for the file under the cursor and moves to the next
// undecided file. After the last one the summary is shown.
func (m Model) record(d Decision) Model {
	if m.cursor >= len(m.changes) {
		return m
	}
	m.verdict[m.cursor] = d

	for i := m.cursor + 1; i < len(m.changes); i++ {
		if !m.verdict[i].IsTerminal() {
			m.cursor = i
			m.refresh()
			return m
		}
	}
	m.screen = screenSummary
	m.refresh()
	return m
}

// show moves the cursor to file i, clamped to the change list, and
// switches to its diff.
func (m *Model) show(i int) {
	m.cursor = max(0, min(i, len(m.changes)-1))
	m.screen = screenDiff
	m.refresh()
}

func (m *Model) acceptRest() {
	for i, d := range m.verdict {
		if !d.IsTerminal() {
			m.verdict[i] = DecisionAccepted
		}
	}
}

func (m *Model) refresh() {
	if !m.sized {
		return
	}
	if m.screen == screenSummary {
		m.body.SetContent(m.renderSummary())
	} else {
		m.body.SetContent(m.renderFileDiff())
	}
	m.body.GotoTop()
}

// View implements tea.Model.
func (m Model) View() string {
	if m.done {
		return ""
	}
	if !m.sized || len(m.changes) == 0 {
		return "Loading...\n"
	}

	body := m.body.View()
	switch m.screen {
	case screenHelp:
		body = m.renderHelp()
	case screenConfirm:
		body = m.renderConfirm()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), "", body, "", m.renderFooter())
}

// Result returns the decisions made so far, keyed by path.
func (m Model) Result() *Result {
	r := NewResult()
	r.Cancelled = m.cancelled
	for i, change := range m.changes {
		r.Decisions[change.Path] = m.verdict[i]
	}
	return r
}

// Run shows the review program on the given terminal streams and returns
// the decisions. With no changes it returns an empty result at once.
func Run(changes []*Change, cfg Config, in io.Reader, out io.Writer) (*Result, error) {
	if len(changes) == 0 {
		return NewResult(), nil
	}
	p := tea.NewProgram(NewModel(changes, cfg),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("review: %w", err)
	}
	return final.(Model).Result(), nil
}
