package installer

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"installer-shell/internal/domain"
)

func TestDispatcher_QueuesUntilAttached(t *testing.T) {
	d := NewDispatcher()
	var order []int
	d.Post(func() { order = append(order, 1) })
	d.Post(func() { order = append(order, 2) })
	require.Equal(t, 2, d.Pending())

	msgs := make(chan tea.Msg, 4)
	d.Attach(func(m tea.Msg) { msgs <- m })

	select {
	case m := <-msgs:
		assert.IsType(t, drainMsg{}, m)
	case <-time.After(time.Second):
		t.Fatal("no drain message after attach")
	}
	assert.Equal(t, 2, d.Drain())
	assert.Equal(t, []int{1, 2}, order)
	assert.Zero(t, d.Pending())
}

func TestDispatcher_PostDuringDrainWaits(t *testing.T) {
	d := NewDispatcher()
	ran := 0
	d.Post(func() {
		ran++
		d.Post(func() { ran++ })
	})

	assert.Equal(t, 1, d.Drain())
	assert.Equal(t, 1, ran)
	assert.Equal(t, 1, d.Pending())
	d.Drain()
	assert.Equal(t, 2, ran)
}

func TestDispatcher_AfterFunc(t *testing.T) {
	d := NewDispatcher()
	msgs := make(chan tea.Msg, 1)
	d.Attach(func(m tea.Msg) { msgs <- m })

	fired := false
	d.AfterFunc(10*time.Millisecond, func() { fired = true })
	assert.Zero(t, d.Pending())

	select {
	case <-msgs:
	case <-time.After(time.Second):
		t.Fatal("timer never posted")
	}
	d.Drain()
	assert.True(t, fired)
}

func TestModel_DrainMsgRunsQueuedWork(t *testing.T) {
	f := newFixture(t, domain.ModeInstall)
	ran := false
	f.m.s.d.Post(func() { ran = true })
	f.m.Update(drainMsg{})
	assert.True(t, ran)
}
