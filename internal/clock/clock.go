// Package clock abstracts cancellable delays so debounce logic can run on a
// real timer, inside an event loop, or on a manually advanced test clock.
package clock

import "time"

// Timer is a handle to a pending callback.
type Timer interface {
	// Stop cancels the callback. It reports false if the callback already
	// ran or was stopped before.
	Stop() bool
}

// Clock schedules f to run once after d.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// Real returns a Clock backed by time.AfterFunc. Callbacks run on their own
// goroutine.
func Real() Clock {
	return realClock{}
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type dispatchClock struct {
	base Clock
	post func(func())
}

// Dispatch wraps base so fired callbacks are handed to post instead of being
// run directly. post typically enqueues the callback on an event loop, which
// keeps all state changes on the loop's goroutine.
func Dispatch(base Clock, post func(func())) Clock {
	return dispatchClock{base: base, post: post}
}

func (c dispatchClock) AfterFunc(d time.Duration, f func()) Timer {
	return c.base.AfterFunc(d, func() {
		c.post(f)
	})
}
