// Package eventloop runs queued work on a single goroutine.
package eventloop

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Loop is a single-threaded cooperative event loop. Post and AfterFunc are
// goroutine-safe; queued functions run one at a time on the goroutine that
// called Run.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	timers map[*time.Timer]struct{}
	wake   chan struct{}
	done   chan struct{}
	quit   atomic.Bool
	logger *slog.Logger
}

// New creates an idle loop.
func New(logger *slog.Logger) *Loop {
	return &Loop{
		timers: make(map[*time.Timer]struct{}),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Post queues fn to run after everything queued before it.
func (l *Loop) Post(fn func()) {
	if l.quit.Load() {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// AfterFunc posts fn once d has elapsed.
func (l *Loop) AfterFunc(d time.Duration, fn func()) {
	if l.quit.Load() {
		return
	}
	var t *time.Timer
	l.mu.Lock()
	t = time.AfterFunc(d, func() {
		l.mu.Lock()
		delete(l.timers, t)
		l.mu.Unlock()
		l.Post(fn)
	})
	l.timers[t] = struct{}{}
	l.mu.Unlock()
}

// Run processes queued functions until Quit is called or ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			l.exec(fn)
			if l.quit.Load() {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			l.Quit()
			return ctx.Err()
		case <-l.done:
			return nil
		case <-l.wake:
		}
	}
}

// Quit stops the loop and cancels pending timers. Work still queued is
// dropped. Quit is idempotent.
func (l *Loop) Quit() {
	if l.quit.Swap(true) {
		return
	}
	l.mu.Lock()
	for t := range l.timers {
		t.Stop()
	}
	l.timers = make(map[*time.Timer]struct{})
	l.queue = nil
	l.mu.Unlock()
	close(l.done)
}

// Pending reports the number of queued functions.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event loop task panicked", "panic", r)
		}
	}()
	fn()
}
