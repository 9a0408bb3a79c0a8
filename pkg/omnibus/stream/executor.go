package stream

import "sync"

// Scheduler runs work items.
type Scheduler interface {
	Schedule(fn func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

// Schedule calls f(fn).
func (f SchedulerFunc) Schedule(fn func()) { f(fn) }

// Immediate runs every item inline on the calling goroutine.
var Immediate Scheduler = SchedulerFunc(func(fn func()) { fn() })

// Executor is a trampoline that runs work items one at a time, in submission
// order, on whichever goroutine submitted into it while it was idle.
//
// Items submitted while another item is running (from inside that item, or
// from another goroutine) are queued behind it. Nothing ever runs two items
// concurrently, which gives everything scheduled here a single logical
// thread without a dedicated goroutine.
//
// The zero value is ready to use.
type Executor struct {
	mu      sync.Mutex
	queue   []func()
	running bool
}

var _ Scheduler = (*Executor)(nil)

// Schedule submits fn. It is Do without the result.
func (e *Executor) Schedule(fn func()) {
	e.Do(fn)
}

// Do submits fn. If the executor was idle, the calling goroutine drains the
// queue, fn included, before Do returns and Do reports true. Otherwise fn is
// queued and Do returns false right away.
//
// A panicking item propagates to the draining caller. The executor stays
// usable; items still queued run on the next submission.
func (e *Executor) Do(fn func()) bool {
	e.mu.Lock()
	e.queue = append(e.queue, fn)
	if e.running {
		e.mu.Unlock()
		return false
	}
	e.running = true
	e.mu.Unlock()

	e.drain()
	return true
}

// Call submits fn and returns its error when it ran on the calling
// goroutine. When fn had to be queued, Call returns nil and orphan receives
// fn's non-nil error once it eventually runs.
func (e *Executor) Call(fn func() error, orphan func(error)) error {
	var err error

	e.mu.Lock()
	if e.running {
		e.queue = append(e.queue, func() {
			if err := fn(); err != nil && orphan != nil {
				orphan(err)
			}
		})
		e.mu.Unlock()
		return nil
	}
	e.queue = append(e.queue, func() { err = fn() })
	e.running = true
	e.mu.Unlock()

	e.drain()
	return err
}

// Busy reports whether an item is currently running.
func (e *Executor) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Executor) drain() {
	finished := false
	defer func() {
		if !finished {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
		}
	}()

	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.running = false
			e.mu.Unlock()
			finished = true
			return
		}
		fn := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.mu.Unlock()

		fn()
	}
}
