package stream

import (
	"reflect"
	"sync"

	"github.com/randalmurphal/omnibus/pkg/omnibus/internal/arena"
)

// Value holds a current value and emits it to subscribers whenever it
// changes. Setting a value equal to the current one emits nothing.
//
// Once stopped, a Value keeps its last value for Get but never emits again.
type Value[T any] struct {
	mu      sync.Mutex
	current T
	stopped bool
	equal   func(a, b T) bool
	subs    *arena.Registry[*Sink[T]]
}

// NewValue creates a Value seeded with initial. A nil equal compares with
// reflect.DeepEqual.
func NewValue[T any](initial T, equal func(a, b T) bool) *Value[T] {
	if equal == nil {
		equal = func(a, b T) bool { return reflect.DeepEqual(a, b) }
	}
	return &Value[T]{
		current: initial,
		equal:   equal,
		subs:    arena.New[*Sink[T]](),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Stopped reports whether the value has been finished.
func (v *Value[T]) Stopped() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stopped
}

// Set replaces the current value and reports whether subscribers were
// notified.
func (v *Value[T]) Set(x T) bool {
	return v.Update(func(T) T { return x })
}

// Update replaces the current value with fn applied to it, atomically with
// respect to other Sets and Updates, and reports whether subscribers were
// notified. fn runs under the Value's lock and must not call back into it.
func (v *Value[T]) Update(fn func(T) T) bool {
	v.mu.Lock()
	if v.stopped {
		v.mu.Unlock()
		return false
	}
	x := fn(v.current)
	if v.equal(v.current, x) {
		v.mu.Unlock()
		return false
	}
	v.current = x
	v.mu.Unlock()

	for _, sink := range v.subs.Snapshot() {
		sink.Next(x)
	}
	return true
}

// Finish emits final if it differs from the current value, then completes
// every subscriber.
func (v *Value[T]) Finish(final T) {
	v.mu.Lock()
	if v.stopped {
		v.mu.Unlock()
		return
	}
	v.stopped = true
	changed := !v.equal(v.current, final)
	v.current = final
	v.mu.Unlock()

	for _, sink := range v.subs.Drain() {
		if changed {
			sink.Next(final)
		}
		sink.Complete()
	}
}

// Stop completes every subscriber without changing the value.
func (v *Value[T]) Stop() {
	v.Finish(v.Get())
}

// Stream emits the current value on subscribe, then every change, and
// completes when the value is finished.
func (v *Value[T]) Stream() Stream[T] {
	return func(o Observer[T]) *Subscription {
		sink := newSink(o)

		v.mu.Lock()
		cur, stopped := v.current, v.stopped
		if !stopped {
			h := v.subs.Add(sink)
			sink.sub.Add(func() { v.subs.Remove(h) })
		}
		v.mu.Unlock()

		sink.Next(cur)
		if stopped {
			sink.Complete()
		}
		return sink.sub
	}
}

// Subscribe is shorthand for Stream().Subscribe with only a Next callback.
func (v *Value[T]) Subscribe(fn func(T)) *Subscription {
	return v.Stream().Subscribe(Observer[T]{Next: fn})
}
