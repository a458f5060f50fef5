package installer

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Dispatcher runs wizard work on the Bubble Tea program goroutine. Posted
// functions queue up and run in order when Update receives a drainMsg.
type Dispatcher struct {
	mu    sync.Mutex
	queue []func()
	send  func(tea.Msg)
}

// NewDispatcher creates a detached dispatcher. Work posted before Attach
// is kept until the program starts.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Attach connects the dispatcher to a running program, usually p.Send.
func (d *Dispatcher) Attach(send func(tea.Msg)) {
	d.mu.Lock()
	d.send = send
	pending := len(d.queue) > 0
	d.mu.Unlock()
	if pending {
		go send(drainMsg{})
	}
}

// Post queues fn. Send blocks while Update runs, so the wake-up is sent
// from its own goroutine.
func (d *Dispatcher) Post(fn func()) {
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	send := d.send
	d.mu.Unlock()
	if send != nil {
		go send(drainMsg{})
	}
}

// AfterFunc posts fn once dur elapses.
func (d *Dispatcher) AfterFunc(dur time.Duration, fn func()) {
	time.AfterFunc(dur, func() { d.Post(fn) })
}

// Drain runs the queued functions and reports how many ran. Work posted
// while draining waits for the next drainMsg.
func (d *Dispatcher) Drain() int {
	d.mu.Lock()
	queue := d.queue
	d.queue = nil
	d.mu.Unlock()
	for _, fn := range queue {
		fn()
	}
	return len(queue)
}

// Pending returns the number of queued functions.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}
