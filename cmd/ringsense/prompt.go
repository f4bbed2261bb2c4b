// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package main

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	rserr "github.com/ringsense/ringsense/pkg/errors"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// secretPrompt is a single masked text field.
type secretPrompt struct {
	title     string
	label     string
	input     textinput.Model
	submitted bool
	cancelled bool
}

func newSecretPrompt(title, label, initial string) secretPrompt {
	in := textinput.New()
	in.Placeholder = "paste token here"
	in.EchoMode = textinput.EchoPassword
	in.EchoCharacter = '•'
	in.SetValue(initial)
	in.Focus()

	return secretPrompt{title: title, label: label, input: in}
}

func (m secretPrompt) Init() tea.Cmd {
	return textinput.Blink
}

func (m secretPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.submitted = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m secretPrompt) View() string {
	if m.submitted || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("  "+m.title+"  ") + "\n\n")
	b.WriteString(promptStyle.Render(m.label) + "\n\n")
	b.WriteString(m.input.View() + "\n\n")
	b.WriteString(dimStyle.Render("enter to submit  esc to cancel"))
	return b.String() + "\n"
}

// Value returns the entered text unchanged.
func (m secretPrompt) Value() string {
	return m.input.Value()
}

// promptSecret runs a secretPrompt on in/out and returns what was entered.
// It is a variable so tests can answer without a terminal.
var promptSecret = func(in io.Reader, out io.Writer, title, label, initial string) (string, error) {
	if f, ok := in.(*os.File); !ok || !isTerminal(f) {
		return "", rserr.New(rserr.CodeCLIInputInvalid,
			"no terminal to prompt on, pass the value with --token")
	}

	final, err := tea.NewProgram(newSecretPrompt(title, label, initial),
		tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return "", rserr.Wrap(err, rserr.CodeCLISetupFailure, "running prompt")
	}

	m, ok := final.(secretPrompt)
	if !ok {
		return "", rserr.New(rserr.CodeCLISetupFailure, "unexpected model type after prompt")
	}
	if m.cancelled {
		return "", rserr.New(rserr.CodeCLIInputInvalid, "cancelled")
	}
	return m.Value(), nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
