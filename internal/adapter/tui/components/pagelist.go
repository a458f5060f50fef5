package components

import (
	"fmt"
	"strings"

	"installer-shell/internal/adapter/tui/theme"
)

// PageListItem is a row of the page list.
type PageListItem struct {
	Title   string
	Current bool
	// Done marks pages the wizard has already passed.
	Done bool
}

// PageListModel displays the wizard pages with the current one marked, and
// a "Step 3/7" footer.
type PageListModel struct {
	Items []PageListItem
	width int
}

// SetWidth sets the rendering width.
func (m *PageListModel) SetWidth(w int) {
	m.width = w
}

// SetItems replaces the rows.
func (m *PageListModel) SetItems(items []PageListItem) {
	m.Items = items
}

// View renders the page list.
func (m PageListModel) View() string {
	if len(m.Items) == 0 || m.width < 10 {
		return ""
	}

	current := 0
	var lines []string
	for i, it := range m.Items {
		title := truncate(it.Title, m.width-3)
		switch {
		case it.Current:
			current = i + 1
			lines = append(lines, theme.PageCurrent.Render(theme.SymbolCurrent+" "+title))
		case it.Done:
			lines = append(lines, theme.PageDone.Render(theme.SymbolSuccess+" "+title))
		default:
			lines = append(lines, theme.PagePending.Render(theme.SymbolPending+" "+title))
		}
	}
	if current > 0 {
		lines = append(lines, "", theme.TextMuted.Render(fmt.Sprintf("Step %d/%d", current, len(m.Items))))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, w int) string {
	r := []rune(s)
	if w < 2 || len(r) <= w {
		return s
	}
	return string(r[:w-1]) + "…"
}
