// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

// Package picker is the interactive device selection of the bind and
// create modals.
package picker

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/eclipse-hono/regctl/console"
	"github.com/eclipse-hono/regctl/context"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	checkedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	footerStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	selectedLabel = checkedStyle.Render("[x]")
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Next    key.Binding
	Prev    key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Confirm, k.Cancel}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Next, k.Prev}, {k.Toggle, k.Confirm, k.Cancel}}
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "select")),
	Next:    key.NewBinding(key.WithKeys("right", "n"), key.WithHelp("→/n", "next page")),
	Prev:    key.NewBinding(key.WithKeys("left", "p"), key.WithHelp("←/p", "previous page")),
	Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
	Cancel:  key.NewBinding(key.WithKeys("esc", "q", "ctrl+c"), key.WithHelp("esc/q", "cancel")),
}

type pageLoadedMsg struct {
	err error
}

// Model drives a console.BindModal from the keyboard. The modal keeps the
// selection across pages.
type Model struct {
	ctx   context.Context
	modal *console.BindModal
	help  help.Model

	cursor    int
	err       error
	confirmed bool
	cancelled bool
}

func New(ctx context.Context, modal *console.BindModal) Model {
	return Model{ctx: ctx, modal: modal, help: help.New()}
}

func (m Model) Confirmed() bool {
	return m.confirmed
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) changePage(page int) tea.Cmd {
	return func() tea.Msg {
		return pageLoadedMsg{err: m.modal.ChangePage(m.ctx, page)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pageLoadedMsg:
		m.err = msg.err
		m.cursor = 0
		return m, nil
	case tea.KeyMsg:
		candidates := m.modal.Candidates
		switch {
		case key.Matches(msg, keys.Cancel):
			m.cancelled = true
			return m, tea.Quit
		case key.Matches(msg, keys.Confirm):
			if m.modal.IsInvalid() {
				m.err = fmt.Errorf("%s", m.modal.SelectLabel())
				return m, nil
			}
			m.confirmed = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(candidates)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Toggle):
			if m.cursor < len(candidates) {
				d := candidates[m.cursor]
				if m.modal.IsSelected(d.ID) {
					m.modal.Unselect(d)
				} else {
					m.modal.Select(d)
				}
			}
		case key.Matches(msg, keys.Next):
			if page := m.modal.Pager.Page(); page < m.modal.Pager.Pages(m.modal.Count) {
				return m, m.changePage(page + 1)
			}
		case key.Matches(msg, keys.Prev):
			if page := m.modal.Pager.Page(); page > 1 {
				return m, m.changePage(page - 1)
			}
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.modal.Title()+" - "+m.modal.SelectLabel()) + "\n")
	if len(m.modal.Candidates) == 0 {
		b.WriteString("No devices to select.\n")
	}
	for i, d := range m.modal.Candidates {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		box := "[ ]"
		if m.modal.IsSelected(d.ID) {
			box = selectedLabel
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n", cursor, box, d.ID))
	}
	b.WriteString(footerStyle.Render(fmt.Sprintf("\nPage %d of %d, %d selected",
		m.modal.Pager.Page(), m.modal.Pager.Pages(m.modal.Count), len(m.modal.Selected()))) + "\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString(m.help.View(keys))
	return b.String()
}

// Run shows the picker until the user confirms or cancels. It reports
// whether the selection was confirmed.
func Run(ctx context.Context, modal *console.BindModal, in io.Reader, out io.Writer) (bool, error) {
	p := tea.NewProgram(New(ctx, modal), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("device picker failed: %w", err)
	}
	return final.(Model).Confirmed(), nil
}
