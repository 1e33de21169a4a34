// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package debounce coalesces bursts of calls into one trailing-edge
// invocation that receives the arguments of the last call in the burst.
package debounce

import (
	"sync"
	"time"
)

// Timer is the stop handle returned by a Scheduler.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler schedules on wall-clock timers.
var RealScheduler Scheduler = realScheduler{}

// DefaultWindow is the quiet period used when New receives a non-positive window.
const DefaultWindow = 100 * time.Millisecond

// Debouncer delays fn until window has passed without a new Call. Each Call
// restarts the window and replaces the pending argument. It is safe for
// concurrent use. fn runs on the scheduler's goroutine, never while the
// Debouncer's lock is held.
type Debouncer[T any] struct {
	window time.Duration
	sched  Scheduler
	fn     func(T)

	mu      sync.Mutex
	timer   Timer
	pending T
	armed   bool
	gen     uint64
	stopped bool
}

// New returns a Debouncer invoking fn. A nil sched selects RealScheduler.
func New[T any](window time.Duration, sched Scheduler, fn func(T)) *Debouncer[T] {
	if window <= 0 {
		window = DefaultWindow
	}
	if sched == nil {
		sched = RealScheduler
	}
	return &Debouncer[T]{window: window, sched: sched, fn: fn}
}

// Call records arg and restarts the window. It reports false once Stop
// has been called.
func (d *Debouncer[T]) Call(arg T) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return false
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = arg
	d.armed = true
	d.gen++
	gen := d.gen
	d.timer = d.sched.AfterFunc(d.window, func() { d.fire(gen) })
	return true
}

// fire runs fn for generation gen. A timer that lost the race with a newer
// Call or with Stop finds a different generation and does nothing.
func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || !d.armed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	arg := d.take()
	d.mu.Unlock()

	d.fn(arg)
}

// Flush runs the pending call immediately, if any, and reports whether
// one ran.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if d.stopped || !d.armed {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	arg := d.take()
	d.mu.Unlock()

	d.fn(arg)
	return true
}

// Pending reports whether a call is waiting for its window to elapse.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

// Stop discards any pending call and disables the Debouncer. It reports
// whether a pending call was discarded.
func (d *Debouncer[T]) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return false
	}
	d.stopped = true
	discarded := d.armed
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.armed = false
	var zero T
	d.pending = zero
	return discarded
}

// take clears the pending slot. Caller holds d.mu.
func (d *Debouncer[T]) take() T {
	arg := d.pending
	var zero T
	d.pending = zero
	d.armed = false
	d.timer = nil
	return arg
}
