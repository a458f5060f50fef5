package domain

import "time"

// Dispatcher schedules work onto the single wizard thread.
type Dispatcher interface {
	// Post queues fn to run once the loop is idle.
	Post(fn func())
	// AfterFunc runs fn on the loop after d elapses.
	AfterFunc(d time.Duration, fn func())
}
