package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer renders markdown for the terminal, caching the glamour
// renderer for the current wrap width.
type MarkdownRenderer struct {
	width int
	r     *glamour.TermRenderer
}

// Render returns md styled for a terminal of the given width. Plain text is
// returned indented when glamour fails.
func (m *MarkdownRenderer) Render(md string, width int) string {
	if width < 20 {
		width = 20
	}
	if m.r == nil || m.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return indent(md)
		}
		m.r = r
		m.width = width
	}
	out, err := m.r.Render(md)
	if err != nil {
		return indent(md)
	}
	return strings.TrimRight(out, "\n")
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
