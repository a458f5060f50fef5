// Package theme holds the installer's colors, styles and glyphs. Colors
// adapt to light and dark terminals; lipgloss drops them under NO_COLOR.
package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette, by role.
var (
	Brand   = lipgloss.AdaptiveColor{Light: "#00558c", Dark: "#5cb8e6"}
	Good    = lipgloss.AdaptiveColor{Light: "#1b7a3d", Dark: "#6fd08c"}
	Bad     = lipgloss.AdaptiveColor{Light: "#b3261e", Dark: "#f2726a"}
	Caution = lipgloss.AdaptiveColor{Light: "#a35200", Dark: "#f5b04c"}
	Quiet   = lipgloss.AdaptiveColor{Light: "#6b6b6b", Dark: "#a0a0a0"}
	Faint   = lipgloss.AdaptiveColor{Light: "#a8a8a8", Dark: "#6e6e6e"}
	Edge    = lipgloss.AdaptiveColor{Light: "#c4c4c4", Dark: "#5a5a5a"}
	Panel   = lipgloss.AdaptiveColor{Light: "#eef2f5", Dark: "#242a30"}
)

// Glyphs. InitSymbols swaps them for ASCII on limited terminals.
var (
	SymbolSuccess   = "✓"
	SymbolError     = "✗"
	SymbolWarning   = "⚠"
	SymbolCurrent   = "▸"
	SymbolPending   = "·"
	SymbolArrowR    = "→"
	SymbolBullet    = "•"
	SymbolChecked   = "[✓]"
	SymbolUnchecked = "[ ]"
)

// Text.
var (
	Bold = lipgloss.NewStyle().Bold(true)
	Dim  = lipgloss.NewStyle().Faint(true)

	TextSuccess = lipgloss.NewStyle().Foreground(Good).Bold(true)
	TextError   = lipgloss.NewStyle().Foreground(Bad).Bold(true)
	TextWarning = lipgloss.NewStyle().Foreground(Caution).Bold(true)
	TextInfo    = lipgloss.NewStyle().Foreground(Brand)
	TextMuted   = lipgloss.NewStyle().Foreground(Quiet)

	Selected = lipgloss.NewStyle().Foreground(Brand).Bold(true)
)

// Frame: header, page list, page body, dialogs and the status line.
var (
	Header = lipgloss.NewStyle().
		Foreground(Brand).
		Bold(true).
		PaddingBottom(1)

	PageTitle = lipgloss.NewStyle().Foreground(Brand).Bold(true)

	Sidebar = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(Edge).
		Padding(0, 1)

	Content = lipgloss.NewStyle().Padding(0, 2)

	DialogBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Brand)

	StatusBar = lipgloss.NewStyle().
			Foreground(Faint).
			Background(Panel).
			Padding(0, 1)

	StatusKey = lipgloss.NewStyle().Foreground(Brand).Bold(true)
)

// Page list rows.
var (
	PageCurrent = lipgloss.NewStyle().Foreground(Brand).Bold(true)
	PageDone    = lipgloss.NewStyle().Foreground(Good)
	PagePending = lipgloss.NewStyle().Foreground(Quiet)
)

// Path input.
var (
	InputPrompt      = lipgloss.NewStyle().Foreground(Brand).Bold(true)
	InputPlaceholder = lipgloss.NewStyle().Foreground(Faint)
)

const (
	// MaxContentWidth caps the page body so long lines stay readable.
	MaxContentWidth = 100
	PageListWidth   = 26
	// MinSidebarWidth is the narrowest terminal that still shows the page list.
	MinSidebarWidth = 70
)

// Clamp returns v limited to [lo, hi].
func Clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
