package eventloop

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunsInPostOrder(t *testing.T) {
	l := New(slog.Default())
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	l.Post(l.Quit)

	require.NoError(t, l.Run(context.Background()))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoop_PostFromTaskRunsAfterCurrent(t *testing.T) {
	l := New(slog.Default())
	var got []string
	l.Post(func() {
		l.Post(func() {
			got = append(got, "nested")
			l.Quit()
		})
		got = append(got, "outer")
	})

	require.NoError(t, l.Run(context.Background()))
	assert.Equal(t, []string{"outer", "nested"}, got)
}

func TestLoop_AfterFunc(t *testing.T) {
	l := New(slog.Default())
	start := time.Now()
	l.AfterFunc(20*time.Millisecond, l.Quit)

	require.NoError(t, l.Run(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestLoop_PostFromOtherGoroutines(t *testing.T) {
	l := New(slog.Default())
	var count atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Post(func() { count.Add(1) })
		}()
	}
	go func() {
		wg.Wait()
		l.Post(l.Quit)
	}()

	require.NoError(t, l.Run(context.Background()))
	assert.Equal(t, int32(50), count.Load())
}

func TestLoop_ContextCancel(t *testing.T) {
	l := New(slog.Default())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoop_QuitCancelsTimers(t *testing.T) {
	l := New(slog.Default())
	var fired atomic.Bool
	l.AfterFunc(30*time.Millisecond, func() { fired.Store(true) })
	l.Post(l.Quit)

	require.NoError(t, l.Run(context.Background()))
	time.Sleep(50 * time.Millisecond)
	assert.False(t, fired.Load())
	l.Quit() // idempotent
}

func TestLoop_PanicRecovered(t *testing.T) {
	l := New(slog.Default())
	var after bool
	l.Post(func() { panic("boom") })
	l.Post(func() {
		after = true
		l.Quit()
	})

	require.NoError(t, l.Run(context.Background()))
	assert.True(t, after)
}
