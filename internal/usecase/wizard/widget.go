package wizard

import "installer-shell/internal/domain"

// Widget is content created by a component or script. It is hosted either
// by a dynamic page or inserted into an existing page.
type Widget struct {
	name  string
	title string
	body  string
	props map[string]bool
	page  *Page // wrapping page, nil when not hosted
}

// NewWidget creates content addressed by name.
func NewWidget(name, title string) *Widget {
	return &Widget{name: name, title: title, props: make(map[string]bool)}
}

// Name returns the object name used to derive script globals.
func (w *Widget) Name() string { return w.name }

// Title returns the window title of the content.
func (w *Widget) Title() string { return w.title }

// SetBody sets the text rendered for the widget.
func (w *Widget) SetBody(body string) { w.body = body }

// Body returns the rendered text.
func (w *Widget) Body() string { return w.body }

// Property reads a boolean property. The mirrored properties read through
// to the wrapping page while hosted.
func (w *Widget) Property(name string) bool {
	if w.page != nil && domain.IsMirrored(name) {
		return w.page.Property(name)
	}
	return w.props[name]
}

// SetProperty writes a boolean property, forwarding mirrored ones to the
// wrapping page.
func (w *Widget) SetProperty(name string, v bool) {
	w.props[name] = v
	if w.page != nil && domain.IsMirrored(name) {
		w.page.SetProperty(name, v)
	}
}

// Page returns the page hosting this widget, if any.
func (w *Widget) Page() *Page { return w.page }

// ObjectName implements script binding.
func (w *Widget) ObjectName() string { return w.name }

func (w *Widget) attach(p *Page) {
	w.page = p
	// Content may have set mirrored flags before being wrapped.
	for _, name := range domain.MirroredProperties {
		if v, ok := w.props[name]; ok {
			p.SetProperty(name, v)
		}
	}
}

func (w *Widget) detach() {
	if w.page == nil {
		return
	}
	for _, name := range domain.MirroredProperties {
		w.props[name] = w.page.Property(name)
	}
	w.page = nil
}
