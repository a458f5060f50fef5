package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"installer-shell/internal/adapter/tui/theme"
)

// PathFieldModel wraps a textinput for editing a directory path.
type PathFieldModel struct {
	Input       textinput.Model
	Label       string
	Description string
	ErrMsg      string
}

// NewPathField creates a focused path input.
func NewPathField(label, placeholder string) PathFieldModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	ti.Width = 60
	ti.PromptStyle = theme.InputPrompt
	ti.PlaceholderStyle = theme.InputPlaceholder

	return PathFieldModel{
		Input: ti,
		Label: label,
	}
}

// SetValue replaces the text when it differs, keeping the cursor at the end.
func (m *PathFieldModel) SetValue(v string) {
	if m.Input.Value() == v {
		return
	}
	m.Input.SetValue(v)
	m.Input.CursorEnd()
}

// Value returns the trimmed input.
func (m PathFieldModel) Value() string {
	return strings.TrimSpace(m.Input.Value())
}

// Update forwards editing keys to the input. Enter is left to the caller.
func (m PathFieldModel) Update(msg tea.Msg) (PathFieldModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter {
		return m, nil
	}
	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

// View renders the field.
func (m PathFieldModel) View() string {
	parts := []string{theme.Bold.Render(m.Label)}
	if m.Description != "" {
		parts = append(parts, theme.TextMuted.Render(m.Description))
	}
	parts = append(parts, "", m.Input.View())
	if m.ErrMsg != "" {
		parts = append(parts, theme.TextError.Render(theme.SymbolError+" "+m.ErrMsg))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
