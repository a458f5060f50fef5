package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"installer-shell/internal/adapter/tui/theme"
)

// DialogModel is a yes/no question box. The answer callback runs inside
// Update, on the program goroutine.
type DialogModel struct {
	Title    string
	Question string
	Visible  bool
	answer   func(bool)
}

// Ask shows the dialog. A pending question is answered no first.
func (m *DialogModel) Ask(title, question string, answer func(bool)) {
	if m.Visible {
		m.resolve(false)
	}
	m.Title = title
	m.Question = question
	m.answer = answer
	m.Visible = true
}

func (m *DialogModel) resolve(yes bool) {
	answer := m.answer
	m.answer = nil
	m.Visible = false
	if answer != nil {
		answer(yes)
	}
}

// Update answers on y/enter or n/esc. Other keys are swallowed while the
// dialog is open.
func (m *DialogModel) Update(msg tea.Msg) bool {
	if !m.Visible {
		return false
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return false
	}
	switch key.String() {
	case "y", "Y", "enter":
		m.resolve(true)
	case "n", "N", "esc":
		m.resolve(false)
	}
	return true
}

// View renders the dialog box.
func (m DialogModel) View(width int) string {
	if !m.Visible {
		return ""
	}
	w := theme.Clamp(width-8, 30, 70)
	body := lipgloss.JoinVertical(lipgloss.Left,
		theme.Bold.Render(m.Title),
		"",
		lipgloss.NewStyle().Width(w-4).Render(m.Question),
		"",
		theme.StatusKey.Render("y")+": Yes  "+theme.StatusKey.Render("n")+": No",
	)
	return theme.DialogBox.Width(w).Padding(0, 1).Render(body)
}
