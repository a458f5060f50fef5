package wizard

import (
	"sort"

	"installer-shell/internal/domain"
)

// Hooks are the lifecycle callbacks of a page. Any of them may be nil.
type Hooks struct {
	Entering func(p *Page)
	Leaving  func(p *Page)
	// Validate runs when the user advances. A non-nil error blocks the
	// transition and its message is shown on the page.
	Validate func(p *Page) error
}

type pageItem struct {
	pos    int
	widget *Widget
}

// Page is one step of the wizard.
type Page struct {
	id        domain.PageID
	name      string
	title     string
	subTitle  string
	listTitle string

	complete      bool
	final         bool
	commit        bool
	showOnList    bool
	silent        bool
	interruptible bool

	content *Widget
	items   []pageItem
	hooks   Hooks
	message string

	onChange func(p *Page)
}

// NewPage creates a built-in page. Pages start complete, listed and
// interruptible.
func NewPage(name, title string, hooks Hooks) *Page {
	return &Page{
		id:            domain.PageNone,
		name:          name,
		title:         title,
		complete:      true,
		showOnList:    true,
		interruptible: true,
		hooks:         hooks,
	}
}

// newDynamicPage wraps content created at runtime.
func newDynamicPage(content *Widget) *Page {
	p := NewPage(DynamicPrefix+content.Name(), content.Title(), Hooks{})
	p.content = content
	content.attach(p)
	return p
}

// DynamicPrefix is prepended to content names to label the wrapping page.
const DynamicPrefix = "Dynamic"

func (p *Page) ID() domain.PageID { return p.id }

// Name returns the object name, used for the <Name>Callback script hook.
func (p *Page) Name() string { return p.name }
func (p *Page) ObjectName() string { return p.name }
func (p *Page) Title() string { return p.title }
func (p *Page) SetTitle(t string) {
	p.title = t
	p.changed()
}

func (p *Page) SubTitle() string { return p.subTitle }
func (p *Page) SetSubTitle(s string) {
	p.subTitle = s
	p.changed()
}

func (p *Page) ListTitle() string { return p.listTitle }
func (p *Page) SetListTitle(s string) {
	p.listTitle = s
	p.changed()
}

func (p *Page) Content() *Widget { return p.content }
func (p *Page) IsDynamic() bool { return p.content != nil }

func (p *Page) IsComplete() bool { return p.complete }
func (p *Page) SetComplete(v bool) { p.setFlag(&p.complete, v) }
func (p *Page) IsFinal() bool { return p.final }
func (p *Page) SetFinal(v bool) { p.setFlag(&p.final, v) }
func (p *Page) IsCommit() bool { return p.commit }
func (p *Page) SetCommit(v bool) { p.setFlag(&p.commit, v) }
func (p *Page) ShowOnPageList() bool { return p.showOnList }
func (p *Page) SetShowOnPageList(v bool) { p.setFlag(&p.showOnList, v) }
func (p *Page) IsSilent() bool { return p.silent }
func (p *Page) SetSilent(v bool) { p.silent = v }
func (p *Page) IsInterruptible() bool { return p.interruptible }
func (p *Page) SetInterruptible(v bool) { p.interruptible = v }

// Message returns the page-local error from the last failed validation.
func (p *Page) Message() string { return p.message }

// Property reads one of the mirrored flags by name.
func (p *Page) Property(name string) bool {
	switch name {
	case domain.PropFinal:
		return p.final
	case domain.PropCommit:
		return p.commit
	case domain.PropComplete:
		return p.complete
	}
	return false
}

// SetProperty writes one of the mirrored flags by name. Other names are ignored.
func (p *Page) SetProperty(name string, v bool) {
	switch name {
	case domain.PropFinal:
		p.SetFinal(v)
	case domain.PropCommit:
		p.SetCommit(v)
	case domain.PropComplete:
		p.SetComplete(v)
	}
}

func (p *Page) setFlag(f *bool, v bool) {
	if *f == v {
		return
	}
	*f = v
	p.changed()
}

func (p *Page) changed() {
	if p.onChange != nil {
		p.onChange(p)
	}
}

// InsertWidget adds w at position. Widgets are ordered by position, then
// by insertion order.
func (p *Page) InsertWidget(pos int, w *Widget) {
	i := sort.Search(len(p.items), func(i int) bool { return p.items[i].pos > pos })
	p.items = append(p.items, pageItem{})
	copy(p.items[i+1:], p.items[i:])
	p.items[i] = pageItem{pos: pos, widget: w}
}

// RemoveWidget removes w and reports whether it was present.
func (p *Page) RemoveWidget(w *Widget) bool {
	for i, it := range p.items {
		if it.widget == w {
			p.items = append(p.items[:i], p.items[i+1:]...)
			return true
		}
	}
	return false
}

// Widgets returns the inserted widgets in position order.
func (p *Page) Widgets() []*Widget {
	out := make([]*Widget, len(p.items))
	for i, it := range p.items {
		out[i] = it.widget
	}
	return out
}

func (p *Page) entering() {
	p.message = ""
	if p.hooks.Entering != nil {
		p.hooks.Entering(p)
	}
}

func (p *Page) leaving() {
	if p.hooks.Leaving != nil {
		p.hooks.Leaving(p)
	}
}

func (p *Page) validate() error {
	p.message = ""
	if p.hooks.Validate == nil {
		return nil
	}
	if err := p.hooks.Validate(p); err != nil {
		p.message = err.Error()
		return err
	}
	return nil
}
