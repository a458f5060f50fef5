package wizard

import "installer-shell/internal/domain"

// Observer is notified of wizard state changes. Front-ends embed
// NopObserver and override what they render.
type Observer interface {
	PageIndexChanged(entries []PageIndexEntry)
	PageEntered(p *Page)
	PageLeft(p *Page)
	PageChanged(p *Page)
	ValidationFailed(p *Page, message string)
	Closed(code domain.ExitCode)
}

// NopObserver implements Observer with no-ops.
type NopObserver struct{}

func (NopObserver) PageIndexChanged([]PageIndexEntry) {}
func (NopObserver) PageEntered(*Page) {}
func (NopObserver) PageLeft(*Page) {}
func (NopObserver) PageChanged(*Page) {}
func (NopObserver) ValidationFailed(*Page, string) {}
func (NopObserver) Closed(domain.ExitCode) {}

// Confirmer asks the user a yes/no question. answer is called once, on the
// wizard thread.
type Confirmer interface {
	Confirm(title, question string, answer func(yes bool))
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(title, question string, answer func(bool))

func (f ConfirmFunc) Confirm(title, question string, answer func(bool)) { f(title, question, answer) }

// AlwaysConfirm answers yes to every question. Silent runs use it.
var AlwaysConfirm = ConfirmFunc(func(_, _ string, answer func(bool)) { answer(true) })
