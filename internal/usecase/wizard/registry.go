package wizard

import (
	"fmt"
	"sort"

	"installer-shell/internal/domain"
)

// Registry maps page ids to pages. Ascending id order is the page sequence,
// independent of the order in which pages were inserted.
type Registry struct {
	pages map[domain.PageID]*Page
	ids   []domain.PageID // kept sorted
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{pages: make(map[domain.PageID]*Page)}
}

// InsertAt places page at id. It fails with ErrDuplicateSlot when id is
// taken and with ErrInvalidInput for PageNone, which never holds a page.
func (r *Registry) InsertAt(id domain.PageID, page *Page) error {
	if id == domain.PageNone {
		return domain.NewDomainError("Registry.InsertAt", domain.ErrInvalidInput, "id None is reserved")
	}
	if _, ok := r.pages[id]; ok {
		return domain.NewDomainError("Registry.InsertAt", domain.ErrDuplicateSlot, fmt.Sprintf("id %s", id))
	}
	page.id = id
	r.pages[id] = page
	i := sort.Search(len(r.ids), func(i int) bool { return r.ids[i] > id })
	r.ids = append(r.ids, 0)
	copy(r.ids[i+1:], r.ids[i:])
	r.ids[i] = id
	return nil
}

// RemoveByID detaches and returns the page at id. An absent id yields false.
func (r *Registry) RemoveByID(id domain.PageID) (*Page, bool) {
	page, ok := r.pages[id]
	if !ok {
		return nil, false
	}
	delete(r.pages, id)
	i := sort.Search(len(r.ids), func(i int) bool { return r.ids[i] >= id })
	r.ids = append(r.ids[:i], r.ids[i+1:]...)
	return page, true
}

// Get returns the page at id.
func (r *Registry) Get(id domain.PageID) (*Page, bool) {
	page, ok := r.pages[id]
	return page, ok
}

// Contains reports whether id is occupied.
func (r *Registry) Contains(id domain.PageID) bool {
	_, ok := r.pages[id]
	return ok
}

// Len returns the number of registered pages.
func (r *Registry) Len() int { return len(r.ids) }

// FindByContent returns the id of the page hosting w.
func (r *Registry) FindByContent(w *Widget) (domain.PageID, bool) {
	if w == nil {
		return domain.PageNone, false
	}
	for _, id := range r.ids {
		if r.pages[id].content == w {
			return id, true
		}
	}
	return domain.PageNone, false
}

// FindByName returns the page with the given object name.
func (r *Registry) FindByName(name string) (*Page, bool) {
	for _, id := range r.ids {
		if p := r.pages[id]; p.name == name {
			return p, true
		}
	}
	return nil, false
}

// FindWidget returns the page into which w was inserted as a sub-widget.
func (r *Registry) FindWidget(w *Widget) (*Page, bool) {
	for _, id := range r.ids {
		p := r.pages[id]
		for _, it := range p.items {
			if it.widget == w {
				return p, true
			}
		}
	}
	return nil, false
}

// OrderedIDs returns the registered ids in ascending order.
func (r *Registry) OrderedIDs() []domain.PageID {
	out := make([]domain.PageID, len(r.ids))
	copy(out, r.ids)
	return out
}

// First returns the lowest registered id, or PageNone.
func (r *Registry) First() domain.PageID {
	if len(r.ids) == 0 {
		return domain.PageNone
	}
	return r.ids[0]
}

// FindFirstFreeSlotAtOrBefore decrements from id until it finds an
// unoccupied slot other than PageNone.
func (r *Registry) FindFirstFreeSlotAtOrBefore(id domain.PageID) domain.PageID {
	for id == domain.PageNone || r.Contains(id) {
		id--
	}
	return id
}

// Successor returns the next registered id after id, or PageNone. id need
// not be registered itself.
func (r *Registry) Successor(id domain.PageID) domain.PageID {
	i := sort.Search(len(r.ids), func(i int) bool { return r.ids[i] > id })
	if i >= len(r.ids) {
		return domain.PageNone
	}
	return r.ids[i]
}

// Predecessor returns the registered id before id, or PageNone.
func (r *Registry) Predecessor(id domain.PageID) domain.PageID {
	i := sort.Search(len(r.ids), func(i int) bool { return r.ids[i] >= id })
	if i == 0 {
		return domain.PageNone
	}
	return r.ids[i-1]
}
