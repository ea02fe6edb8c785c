// Package confirm provides an inline yes/no prompt shown before mutating
// statements run.
package confirm

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C53030"))
	bodyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4B5563"))
	promptStyle = lipgloss.NewStyle().Bold(true)
)

// Model is a minimal yes/no prompt. "y" confirms; anything else declines.
type Model struct {
	title    string
	body     string
	answer   bool
	answered bool
}

// New creates a prompt with the given title and body text.
func New(title, body string) Model {
	return Model{title: title, body: body}
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key input.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "y", "Y":
		m.answer = true
		m.answered = true
		return m, tea.Quit
	case "n", "N", "enter", "esc", "q", "ctrl+c":
		m.answer = false
		m.answered = true
		return m, tea.Quit
	}
	return m, nil
}

// View renders the prompt.
func (m Model) View() string {
	if m.answered {
		return ""
	}
	return fmt.Sprintf("%s\n%s\n%s ",
		titleStyle.Render(m.title),
		bodyStyle.Render(m.body),
		promptStyle.Render("Proceed? [y/N]"))
}

// Answer reports the user's choice.
func (m Model) Answer() bool {
	return m.answer
}

// Ask runs the prompt inline (no alternate screen) and returns the answer.
func Ask(title, body string) (bool, error) {
	p := tea.NewProgram(New(title, body))
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return false, fmt.Errorf("confirm: unexpected model type %T", final)
	}
	return m.Answer(), nil
}
