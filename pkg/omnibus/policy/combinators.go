package policy

import (
	"github.com/randalmurphal/omnibus/pkg/omnibus/internal/arena"
	"github.com/randalmurphal/omnibus/pkg/omnibus/stream"
)

// Merge subscribes to every spawned stream as soon as its event arrives and
// interleaves their outputs. The result completes once src and every inner
// stream have completed.
func Merge[T, R any](src stream.Stream[T], spawn func(T) stream.Stream[R]) stream.Stream[R] {
	return stream.New(func(out *stream.Sink[R]) func() {
		inners := arena.New[*stream.Subscription]()
		srcDone := false
		finish := func() {
			if srcDone && inners.Len() == 0 {
				out.Complete()
			}
		}

		srcSub := src.Subscribe(stream.Observer[T]{
			Next: func(v T) {
				holder := &stream.Subscription{}
				h := inners.Add(holder)
				sub := spawn(v).Subscribe(stream.Observer[R]{
					Next:  out.Next,
					Error: out.Error,
					Complete: func() {
						inners.Remove(h)
						finish()
					},
				})
				holder.Add(sub.Unsubscribe)
			},
			Error: out.Error,
			Complete: func() {
				srcDone = true
				finish()
			},
		})

		return func() {
			srcSub.Unsubscribe()
			for _, holder := range inners.Drain() {
				holder.Unsubscribe()
			}
		}
	})
}

// Concat runs spawned streams one at a time in arrival order. Events that
// arrive while one is running wait in an unbounded buffer.
func Concat[T, R any](src stream.Stream[T], spawn func(T) stream.Stream[R]) stream.Stream[R] {
	return serial(src, spawn, false, func(T) {})
}

// QueueLatest is Concat with a single waiting slot: a new event arriving
// while one is running replaces whatever was waiting. The running stream is
// never interrupted.
func QueueLatest[T, R any](src stream.Stream[T], spawn func(T) stream.Stream[R]) stream.Stream[R] {
	return serial(src, spawn, true, func(T) {})
}

// Switch cancels the running stream, if any, before subscribing to the one
// spawned for the newest event.
func Switch[T, R any](src stream.Stream[T], spawn func(T) stream.Stream[R]) stream.Stream[R] {
	return stream.New(func(out *stream.Sink[R]) func() {
		srcDone := false
		s := &slot[R]{out: out}
		s.onIdle = func() {
			if srcDone {
				out.Complete()
			}
		}

		srcSub := src.Subscribe(stream.Observer[T]{
			Next: func(v T) {
				s.cancel()
				s.start(spawn(v))
			},
			Error: out.Error,
			Complete: func() {
				srcDone = true
				if !s.busy() {
					out.Complete()
				}
			},
		})

		return func() {
			srcSub.Unsubscribe()
			s.cancel()
		}
	})
}

// Exhaust ignores events while a spawned stream is running.
func Exhaust[T, R any](src stream.Stream[T], spawn func(T) stream.Stream[R]) stream.Stream[R] {
	return exhaust(src, spawn, func(T) {})
}

// Toggle starts a stream when idle; an event arriving while one is running
// cancels it instead, and nothing replaces it.
func Toggle[T, R any](src stream.Stream[T], spawn func(T) stream.Stream[R]) stream.Stream[R] {
	return stream.New(func(out *stream.Sink[R]) func() {
		srcDone := false
		s := &slot[R]{out: out}
		s.onIdle = func() {
			if srcDone {
				out.Complete()
			}
		}

		srcSub := src.Subscribe(stream.Observer[T]{
			Next: func(v T) {
				if s.busy() {
					s.cancel()
					return
				}
				s.start(spawn(v))
			},
			Error: out.Error,
			Complete: func() {
				srcDone = true
				if !s.busy() {
					out.Complete()
				}
			},
		})

		return func() {
			srcSub.Unsubscribe()
			s.cancel()
		}
	})
}

func exhaust[T, R any](src stream.Stream[T], spawn func(T) stream.Stream[R], drop func(T)) stream.Stream[R] {
	return stream.New(func(out *stream.Sink[R]) func() {
		srcDone := false
		s := &slot[R]{out: out}
		s.onIdle = func() {
			if srcDone {
				out.Complete()
			}
		}

		srcSub := src.Subscribe(stream.Observer[T]{
			Next: func(v T) {
				if s.busy() {
					drop(v)
					return
				}
				s.start(spawn(v))
			},
			Error: out.Error,
			Complete: func() {
				srcDone = true
				if !s.busy() {
					out.Complete()
				}
			},
		})

		return func() {
			srcSub.Unsubscribe()
			s.cancel()
		}
	})
}

func serial[T, R any](src stream.Stream[T], spawn func(T) stream.Stream[R], keepLatest bool, drop func(T)) stream.Stream[R] {
	return stream.New(func(out *stream.Sink[R]) func() {
		var (
			queue   []T
			srcDone bool
			pumping bool
		)
		s := &slot[R]{out: out}

		finish := func() {
			if srcDone && !s.busy() && len(queue) == 0 {
				out.Complete()
			}
		}

		// pump starts waiting streams until one stays running. Inner streams
		// that complete synchronously re-enter through onIdle; the loop
		// picks up where they left off.
		var pump func()
		pump = func() {
			if pumping {
				return
			}
			pumping = true
			defer func() { pumping = false }()

			for !s.busy() && len(queue) > 0 && !out.Closed() {
				v := queue[0]
				var zero T
				queue[0] = zero
				queue = queue[1:]
				s.start(spawn(v))
			}
		}
		s.onIdle = func() {
			pump()
			finish()
		}

		srcSub := src.Subscribe(stream.Observer[T]{
			Next: func(v T) {
				if keepLatest && s.busy() {
					for _, waiting := range queue {
						drop(waiting)
					}
					queue = append(queue[:0], v)
					return
				}
				queue = append(queue, v)
				pump()
			},
			Error: out.Error,
			Complete: func() {
				srcDone = true
				finish()
			},
		})

		return func() {
			srcSub.Unsubscribe()
			queue = nil
			s.cancel()
		}
	})
}

// slot tracks at most one running inner stream.
type slot[R any] struct {
	out     *stream.Sink[R]
	current *stream.Subscription
	onIdle  func()
}

func (s *slot[R]) busy() bool { return s.current != nil }

func (s *slot[R]) start(inner stream.Stream[R]) {
	holder := &stream.Subscription{}
	s.current = holder
	sub := inner.Subscribe(stream.Observer[R]{
		Next:  s.out.Next,
		Error: s.out.Error,
		Complete: func() {
			if s.current != holder {
				return
			}
			s.current = nil
			s.onIdle()
		},
	})
	holder.Add(sub.Unsubscribe)
}

func (s *slot[R]) cancel() {
	if s.current == nil {
		return
	}
	prev := s.current
	s.current = nil
	prev.Unsubscribe()
}
