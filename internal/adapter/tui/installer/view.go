package installer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"installer-shell/internal/adapter/tui/components"
	"installer-shell/internal/adapter/tui/theme"
	"installer-shell/internal/adapter/tui/uxerror"
	"installer-shell/internal/domain"
	"installer-shell/internal/usecase/wizard"
)

// View renders the wizard.
func (m Model) View() string {
	s := m.s
	if s.closed {
		return ""
	}
	if s.viewer.Visible {
		return s.viewer.View()
	}

	header := theme.Header.Render(s.productTitle())
	var body string
	if s.startErr != nil {
		body = s.errorView()
	} else {
		body = s.pageView()
	}
	body = theme.Content.Width(s.contentWidth()).Render(body)

	if s.width >= theme.MinSidebarWidth {
		s.pages.SetItems(pageItems(s.c.PageIndex()))
		sidebar := theme.Sidebar.Width(theme.PageListWidth).Render(s.pages.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, body)
	}

	if s.prompter.dialog.Visible {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "",
			lipgloss.PlaceHorizontal(s.width, lipgloss.Center, s.prompter.dialog.View(s.width)))
	}

	s.updateStatusBar()
	used := lipgloss.Height(header) + lipgloss.Height(body) + 1
	gap := ""
	if pad := s.height - used; pad > 0 {
		gap = strings.Repeat("\n", pad)
	}
	return header + "\n" + body + gap + "\n" + s.status.View()
}

func (s *state) productTitle() string {
	e := s.c.Engine()
	title := e.Value(domain.KeyTitle)
	if title == "" {
		title = e.Value(domain.KeyProductName)
	}
	if v := e.Value(domain.KeyProductVersion); v != "" {
		title += " " + v
	}
	return title
}

func pageItems(entries []wizard.PageIndexEntry) []components.PageListItem {
	items := make([]components.PageListItem, len(entries))
	for i, e := range entries {
		items[i] = components.PageListItem{Title: e.Title, Current: e.Current, Done: e.Enabled && !e.Current}
	}
	return items
}

func (s *state) errorView() string {
	fe := uxerror.Humanize(s.startErr)
	return lipgloss.JoinVertical(lipgloss.Left,
		theme.TextError.Render(theme.SymbolError+" "+fe.Title),
		"",
		fe.Render(),
		"",
		theme.TextMuted.Render("r: check again  q: quit"),
	)
}

func (s *state) pageView() string {
	page, ok := s.c.CurrentPage()
	if !ok {
		return s.spinner.View() + " Starting..."
	}

	parts := []string{theme.PageTitle.Render(stripMarkup(page.Title()))}
	if sub := page.SubTitle(); sub != "" {
		parts = append(parts, theme.TextMuted.Render(sub))
	}
	parts = append(parts, "")

	if content := s.pageContent(page); content != "" {
		parts = append(parts, content)
	}
	for _, w := range page.Widgets() {
		if w.Body() != "" {
			parts = append(parts, "", w.Body())
		}
	}
	if s.message != "" {
		parts = append(parts, "", theme.TextError.Render(theme.SymbolError+" "+s.message))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (s *state) pageContent(page *wizard.Page) string {
	e := s.c.Engine()
	switch page.ID() {
	case domain.PageIntroduction:
		if !s.maintenance {
			return fmt.Sprintf("Welcome to the %s Setup Wizard.", s.productTitle())
		}
		var lines []string
		for i, m := range maintenanceModes {
			lines = append(lines, radio(i == s.cursor, m.label, e.Mode() == m.mode))
		}
		return strings.Join(lines, "\n")

	case domain.PageTargetDirectory:
		return s.path.View()

	case domain.PageComponentSelection:
		return s.componentList(e.Components(), e.Mode().IsUninstaller())

	case domain.PageLicenseCheck:
		var lines []string
		for _, comp := range s.c.LicensedComponents() {
			for _, l := range comp.Licenses {
				lines = append(lines, theme.SymbolBullet+" "+displayName(comp)+": "+l.Name)
			}
		}
		box := theme.SymbolUnchecked
		if s.accepted {
			box = theme.SymbolChecked
		}
		lines = append(lines, "", box+" I accept the licenses.", "",
			theme.TextMuted.Render("v: read the license texts  a: accept"))
		return strings.Join(lines, "\n")

	case domain.PageReadyForInstallation:
		if e.Mode().IsUninstaller() {
			return ""
		}
		var lines []string
		for _, comp := range e.Components() {
			if comp.Selected {
				lines = append(lines, theme.SymbolBullet+" "+displayName(comp))
			}
		}
		return strings.Join(lines, "\n")

	case domain.PagePerformInstallation:
		if e.Status() == domain.StatusRunning {
			return s.spinner.View() + " Working..."
		}
		return statusLine(e.Status())
	}

	if page.IsDynamic() {
		return page.Content().Body()
	}
	return ""
}

func (s *state) componentList(comps []domain.Component, readOnly bool) string {
	var lines []string
	for i, c := range comps {
		box := theme.SymbolUnchecked
		if c.Selected {
			box = theme.SymbolChecked
		}
		line := box + " " + displayName(c)
		if c.Version != "" {
			line += theme.TextMuted.Render(" " + c.Version)
		}
		if c.Installed {
			line += theme.TextMuted.Render(" (installed)")
		}
		if i == s.cursor && !readOnly {
			line = theme.Selected.Render(theme.SymbolArrowR+" ") + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
		if c.Description != "" && i == s.cursor {
			lines = append(lines, "    "+theme.TextMuted.Render(c.Description))
		}
	}
	if len(lines) == 0 {
		return theme.TextMuted.Render("No components available.")
	}
	return strings.Join(lines, "\n")
}

func radio(focused bool, label string, selected bool) string {
	mark := "( )"
	if selected {
		mark = "(" + theme.SymbolCurrent + ")"
	}
	if focused {
		return theme.Selected.Render(theme.SymbolArrowR + " " + mark + " " + label)
	}
	return "  " + mark + " " + label
}

func statusLine(st domain.EngineStatus) string {
	switch st {
	case domain.StatusSuccess:
		return theme.TextSuccess.Render(theme.SymbolSuccess + " Done")
	case domain.StatusFailure:
		return theme.TextError.Render(theme.SymbolError + " Failed")
	case domain.StatusCanceled:
		return theme.TextWarning.Render(theme.SymbolWarning + " Canceled")
	}
	return ""
}

func (s *state) updateStatusBar() {
	e := s.c.Engine()
	s.status.Product = e.Value(domain.KeyProductName)
	s.status.Mode = e.Mode().String()
	s.status.Extra = ""
	if e.Status() == domain.StatusRunning {
		s.status.Extra = s.spinner.View() + " " + e.Status().String()
	}

	if s.startErr != nil {
		s.status.Hints = []components.KeyHint{{Key: "r", Desc: "Retry"}, {Key: "q", Desc: "Quit"}}
		return
	}
	next := "Next"
	if page, ok := s.c.CurrentPage(); ok {
		switch {
		case page.IsFinal():
			next = "Finish"
		case page.IsCommit() && page.ID() == domain.PageReadyForInstallation:
			next = "Start"
		}
	}
	hints := []components.KeyHint{{Key: "Enter", Desc: next}}
	if s.c.CanGoBack() {
		hints = append(hints, components.KeyHint{Key: "Esc", Desc: "Back"})
	}
	hints = append(hints, components.KeyHint{Key: "Ctrl+C", Desc: "Cancel"})
	s.status.Hints = hints
}

func stripMarkup(s string) string {
	for {
		i := strings.IndexByte(s, '<')
		if i < 0 {
			return s
		}
		j := strings.IndexByte(s[i:], '>')
		if j < 0 {
			return s
		}
		s = s[:i] + s[i+j+1:]
	}
}
