// Package arena provides an ordered registry whose entries are addressed by
// stable handles.
//
// Removal is O(1) and never disturbs a snapshot taken earlier, so callers can
// iterate while entries are being added or removed underneath them.
package arena

import "sync"

// Handle identifies one entry. The zero Handle is never issued.
type Handle uint64

// Registry holds entries in insertion order.
// It is safe for concurrent use.
type Registry[T any] struct {
	mu      sync.Mutex
	next    Handle
	order   []Handle
	entries map[Handle]T
}

// New creates an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[Handle]T)}
}

// Add appends v and returns its handle.
func (r *Registry[T]) Add(v T) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	h := r.next
	r.entries[h] = v
	r.order = append(r.order, h)
	return h
}

// Remove deletes the entry for h. Returns false if it was already gone.
func (r *Registry[T]) Remove(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[h]; !ok {
		return false
	}
	delete(r.entries, h)

	// Compact once dead handles outnumber live ones.
	if len(r.order) > 8 && len(r.entries) < len(r.order)/2 {
		r.compactLocked()
	}
	return true
}

// Get returns the entry for h.
func (r *Registry[T]) Get(h Handle) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.entries[h]
	return v, ok
}

// Len returns the number of live entries.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Snapshot returns the live entries in insertion order.
func (r *Registry[T]) Snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]T, 0, len(r.entries))
	for _, h := range r.order {
		if v, ok := r.entries[h]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Drain removes every entry and returns them in insertion order.
func (r *Registry[T]) Drain() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]T, 0, len(r.entries))
	for _, h := range r.order {
		if v, ok := r.entries[h]; ok {
			out = append(out, v)
		}
	}
	r.order = nil
	r.entries = make(map[Handle]T)
	return out
}

func (r *Registry[T]) compactLocked() {
	live := r.order[:0]
	for _, h := range r.order {
		if _, ok := r.entries[h]; ok {
			live = append(live, h)
		}
	}
	// Zero the tail so the backing array does not pin stale handles.
	for i := len(live); i < len(r.order); i++ {
		r.order[i] = 0
	}
	r.order = live
}
