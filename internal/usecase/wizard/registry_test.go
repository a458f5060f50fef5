package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"installer-shell/internal/domain"
)

func TestRegistry_SequenceIsIDOrder(t *testing.T) {
	r := NewRegistry()
	for _, id := range []domain.PageID{0x3000, 0x1000, 0x8000, 0x2000} {
		require.NoError(t, r.InsertAt(id, NewPage(id.String(), "", Hooks{})))
	}

	assert.Equal(t, []domain.PageID{0x1000, 0x2000, 0x3000, 0x8000}, r.OrderedIDs())
	assert.Equal(t, domain.PageID(0x1000), r.First())
	assert.Equal(t, 4, r.Len())
}

func TestRegistry_InsertAtOccupied(t *testing.T) {
	r := NewRegistry()
	first := NewPage("First", "", Hooks{})
	require.NoError(t, r.InsertAt(40, first))

	err := r.InsertAt(40, NewPage("Second", "", Hooks{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateSlot)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Equal(t, domain.CodeDuplicateSlot, domain.ErrorCodeOf(err))

	got, _ := r.Get(40)
	assert.Same(t, first, got)
}

func TestRegistry_FindFirstFreeSlotAtOrBefore(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, domain.PageID(40), r.FindFirstFreeSlotAtOrBefore(40))

	require.NoError(t, r.InsertAt(40, NewPage("A", "", Hooks{})))
	require.NoError(t, r.InsertAt(39, NewPage("B", "", Hooks{})))
	free := r.FindFirstFreeSlotAtOrBefore(40)
	assert.Equal(t, domain.PageID(38), free)
	assert.False(t, r.Contains(free))
}

func TestRegistry_NoneSlotReserved(t *testing.T) {
	r := NewRegistry()
	err := r.InsertAt(domain.PageNone, NewPage("X", "", Hooks{}))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, r.Len())

	require.NoError(t, r.InsertAt(0, NewPage("Zero", "", Hooks{})))
	assert.Equal(t, domain.PageID(-2), r.FindFirstFreeSlotAtOrBefore(0))
	assert.Equal(t, domain.PageID(-2), r.FindFirstFreeSlotAtOrBefore(domain.PageNone))
}

func TestRegistry_RemoveByID(t *testing.T) {
	r := NewRegistry()
	p := NewPage("A", "", Hooks{})
	require.NoError(t, r.InsertAt(10, p))

	got, ok := r.RemoveByID(10)
	require.True(t, ok)
	assert.Same(t, p, got)
	assert.Zero(t, r.Len())

	_, ok = r.RemoveByID(10)
	assert.False(t, ok)
	assert.Equal(t, domain.PageNone, r.First())
}

func TestRegistry_SuccessorPredecessor(t *testing.T) {
	r := NewRegistry()
	for _, id := range []domain.PageID{10, 20, 30} {
		require.NoError(t, r.InsertAt(id, NewPage("", "", Hooks{})))
	}

	tests := []struct {
		id         domain.PageID
		succ, pred domain.PageID
	}{
		{10, 20, domain.PageNone},
		{20, 30, 10},
		{30, domain.PageNone, 20},
		{25, 30, 20},
		{domain.PageNone, 10, domain.PageNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.succ, r.Successor(tt.id), "successor of %v", tt.id)
		assert.Equal(t, tt.pred, r.Predecessor(tt.id), "predecessor of %v", tt.id)
	}
}

func TestRegistry_FindByContentAndName(t *testing.T) {
	r := NewRegistry()
	w := NewWidget("Foo", "Foo title")
	p := newDynamicPage(w)
	require.NoError(t, r.InsertAt(5, p))
	require.NoError(t, r.InsertAt(6, NewPage("Other", "", Hooks{})))

	id, ok := r.FindByContent(w)
	assert.True(t, ok)
	assert.Equal(t, domain.PageID(5), id)

	_, ok = r.FindByContent(NewWidget("Foo", ""))
	assert.False(t, ok)
	_, ok = r.FindByContent(nil)
	assert.False(t, ok)

	got, ok := r.FindByName("DynamicFoo")
	assert.True(t, ok)
	assert.Same(t, p, got)
}

func TestRegistry_FindWidget(t *testing.T) {
	r := NewRegistry()
	p := NewPage("Host", "", Hooks{})
	require.NoError(t, r.InsertAt(1, p))
	w := NewWidget("Item", "")
	p.InsertWidget(0, w)

	got, ok := r.FindWidget(w)
	assert.True(t, ok)
	assert.Same(t, p, got)

	p.RemoveWidget(w)
	_, ok = r.FindWidget(w)
	assert.False(t, ok)
}
