package stream

import (
	"sync"

	"github.com/randalmurphal/omnibus/pkg/omnibus/internal/arena"
)

// Subject is a hot multicast source. Values pushed with Next reach every
// subscriber live at that moment, in subscription order.
type Subject[T any] struct {
	mu        sync.Mutex
	done      bool
	observers *arena.Registry[member[T]]
}

type member[T any] struct {
	sink  *Sink[T]
	match func(T) bool
}

// NewSubject creates an open subject.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{observers: arena.New[member[T]]()}
}

// Stream returns the subscribable side of the subject.
func (s *Subject[T]) Stream() Stream[T] {
	return s.Where(nil)
}

// Where is Stream restricted to values for which match returns true. Unlike
// Filter over Stream, the subscription handed out is the subject's own, so
// Detach closes it directly.
func (s *Subject[T]) Where(match func(T) bool) Stream[T] {
	return func(o Observer[T]) *Subscription {
		sink := newSink(o)

		s.mu.Lock()
		if s.done {
			s.mu.Unlock()
			sink.Complete()
			return sink.sub
		}
		h := s.observers.Add(member[T]{sink: sink, match: match})
		s.mu.Unlock()

		sink.sub.Add(func() { s.observers.Remove(h) })
		return sink.sub
	}
}

// Next delivers v to a snapshot of the current subscribers.
func (s *Subject[T]) Next(v T) {
	for _, m := range s.observers.Snapshot() {
		if m.sink.Closed() {
			continue
		}
		if m.match == nil || m.match(v) {
			m.sink.Next(v)
		}
	}
}

// Complete ends every subscription and refuses new ones.
func (s *Subject[T]) Complete() {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	s.mu.Unlock()

	for _, m := range s.observers.Drain() {
		m.sink.Complete()
	}
}

// Detach removes every current subscriber and returns their sinks without
// notifying them. The subject stays open for new subscribers.
func (s *Subject[T]) Detach() []*Sink[T] {
	members := s.observers.Drain()
	sinks := make([]*Sink[T], len(members))
	for i, m := range members {
		sinks[i] = m.sink
	}
	return sinks
}

// Len returns the number of live subscribers.
func (s *Subject[T]) Len() int {
	return s.observers.Len()
}
