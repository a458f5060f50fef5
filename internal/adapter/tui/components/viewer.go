package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"installer-shell/internal/adapter/tui/theme"
)

// ViewerModel is a full-screen overlay for reading license texts. The
// markdown source is re-rendered whenever the terminal is resized.
type ViewerModel struct {
	Viewport viewport.Model
	Title    string
	Visible  bool

	source string
	md     MarkdownRenderer
	width  int
	height int
}

// NewViewer creates a hidden viewer.
func NewViewer() ViewerModel {
	return ViewerModel{width: 80, height: 24}
}

// Open shows markdown under title.
func (m *ViewerModel) Open(title, markdown string) {
	m.Title = title
	m.source = markdown
	m.Visible = true
	m.Viewport = viewport.New(m.innerSize())
	m.Viewport.MouseWheelEnabled = true
	m.Viewport.SetContent(m.md.Render(markdown, m.Viewport.Width))
}

// Close hides the viewer.
func (m *ViewerModel) Close() {
	m.Visible = false
}

// SetSize updates the viewer dimensions.
func (m *ViewerModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	if !m.Visible {
		return
	}
	m.Viewport.Width, m.Viewport.Height = m.innerSize()
	m.Viewport.SetContent(m.md.Render(m.source, m.Viewport.Width))
}

func (m *ViewerModel) innerSize() (int, int) {
	return max(m.width-4, 20), max(m.height-4, 5)
}

// Update handles viewer keys: Esc and q close, j/k scroll.
func (m ViewerModel) Update(msg tea.Msg) (ViewerModel, tea.Cmd) {
	if !m.Visible {
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc", "q":
			m.Close()
			return m, nil
		case "j", "down":
			m.Viewport.LineDown(3)
			return m, nil
		case "k", "up":
			m.Viewport.LineUp(3)
			return m, nil
		case "g":
			m.Viewport.GotoTop()
			return m, nil
		case "G":
			m.Viewport.GotoBottom()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

// View renders the overlay.
func (m ViewerModel) View() string {
	if !m.Visible {
		return ""
	}

	titleBar := theme.Bold.Render("  " + m.Title)
	scrollInfo := theme.TextMuted.Render(fmt.Sprintf(" %.0f%%", m.Viewport.ScrollPercent()*100))
	footer := theme.Dim.Render("  Esc/q: close  j/k: scroll") + "  " + scrollInfo

	inner := lipgloss.JoinVertical(lipgloss.Left, titleBar, m.Viewport.View(), footer)

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Brand).
		Padding(0, 1).
		Width(m.width - 2).
		Height(m.height - 2).
		Render(inner)
}
