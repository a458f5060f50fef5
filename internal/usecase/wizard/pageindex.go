package wizard

import (
	"regexp"
	"strings"

	"installer-shell/internal/domain"
)

// PageIndexEntry is one row of the page list shown beside the wizard.
type PageIndexEntry struct {
	ID      domain.PageID
	Title   string
	Current bool
	// Enabled is false for pages not reached yet.
	Enabled bool
}

var (
	wordBoundary  = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	markupTag     = regexp.MustCompile(`<[^>]*>`)
)

// BuildPageIndex lists the pages that show on the page list, in sequence order.
func BuildPageIndex(r *Registry, current domain.PageID) []PageIndexEntry {
	var out []PageIndexEntry
	for _, id := range r.OrderedIDs() {
		page, _ := r.Get(id)
		if !page.ShowOnPageList() {
			continue
		}
		out = append(out, PageIndexEntry{
			ID:      id,
			Title:   ListTitle(page),
			Current: id == current,
			Enabled: id <= current,
		})
	}
	return out
}

// ListTitle derives the label of p in the page list: the explicit list
// title, else the title as plain text, else the object name split into words.
func ListTitle(p *Page) string {
	if p.ListTitle() != "" {
		return p.ListTitle()
	}
	if t := strings.TrimSpace(markupTag.ReplaceAllString(p.Title(), "")); t != "" {
		return t
	}
	name := removeFold(p.Name(), "page")
	name = wordBoundary.ReplaceAllString(name, "${1} ${2}")
	return camelBoundary.ReplaceAllString(name, "${1} ${2}")
}

// removeFold deletes every case-insensitive occurrence of sub from s.
func removeFold(s, sub string) string {
	lower := strings.ToLower(s)
	var b strings.Builder
	for {
		i := strings.Index(lower, sub)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		s = s[i+len(sub):]
		lower = lower[i+len(sub):]
	}
}
