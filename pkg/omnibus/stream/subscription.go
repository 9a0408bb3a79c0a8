package stream

import (
	"sync"
	"sync/atomic"
)

// Subscription is a disposal handle. The zero value is an open subscription
// with no teardowns.
//
// Closed flips synchronously on the first Unsubscribe; teardowns run once, in
// the order they were added.
type Subscription struct {
	closed    atomic.Bool
	mu        sync.Mutex
	teardowns []func()
}

// Closed reports whether the subscription has been disposed.
func (s *Subscription) Closed() bool {
	return s.closed.Load()
}

// Add registers fn to run on disposal. If the subscription is already
// closed, fn runs immediately.
func (s *Subscription) Add(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		fn()
		return
	}
	s.teardowns = append(s.teardowns, fn)
	s.mu.Unlock()
}

// Unsubscribe disposes the subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if !s.close() {
		return
	}
	s.release()
}

// UnsubscribeVia marks the subscription closed now and runs its teardowns on
// sched.
func (s *Subscription) UnsubscribeVia(sched Scheduler) {
	if !s.close() {
		return
	}
	sched.Schedule(s.release)
}

func (s *Subscription) close() bool {
	return s.closed.CompareAndSwap(false, true)
}

func (s *Subscription) release() {
	s.mu.Lock()
	fns := s.teardowns
	s.teardowns = nil
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Closed returns a subscription that is already disposed.
func Closed() *Subscription {
	s := &Subscription{}
	s.closed.Store(true)
	return s
}
