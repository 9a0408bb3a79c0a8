package stream

// Observer receives a stream's notifications. Nil callbacks are ignored.
type Observer[T any] struct {
	Next     func(T)
	Error    func(error)
	Complete func()
}

// Stream is a lazy push sequence. Calling it subscribes.
type Stream[T any] func(Observer[T]) *Subscription

// Subscribe starts the stream for o.
func (s Stream[T]) Subscribe(o Observer[T]) *Subscription {
	if s == nil {
		if o.Complete != nil {
			o.Complete()
		}
		return Closed()
	}
	return s(o)
}

// Sink is the producer side of one subscription.
type Sink[T any] struct {
	obs Observer[T]
	sub *Subscription
}

func newSink[T any](o Observer[T]) *Sink[T] {
	return &Sink[T]{obs: o, sub: &Subscription{}}
}

// Next delivers v unless the subscription is closed.
func (s *Sink[T]) Next(v T) {
	if s.sub.Closed() || s.obs.Next == nil {
		return
	}
	s.obs.Next(v)
}

// Error terminates the subscription with err.
func (s *Sink[T]) Error(err error) {
	if !s.sub.close() {
		return
	}
	defer s.sub.release()
	if s.obs.Error != nil {
		s.obs.Error(err)
	}
}

// Complete terminates the subscription normally.
func (s *Sink[T]) Complete() {
	if !s.sub.close() {
		return
	}
	defer s.sub.release()
	if s.obs.Complete != nil {
		s.obs.Complete()
	}
}

// CompleteVia closes the subscription now and delivers the completion, then
// the teardowns, on sched.
func (s *Sink[T]) CompleteVia(sched Scheduler) {
	if !s.sub.close() {
		return
	}
	sched.Schedule(func() {
		defer s.sub.release()
		if s.obs.Complete != nil {
			s.obs.Complete()
		}
	})
}

// Closed reports whether the subscription has ended.
func (s *Sink[T]) Closed() bool {
	return s.sub.Closed()
}

// Add registers a teardown on the underlying subscription.
func (s *Sink[T]) Add(fn func()) {
	s.sub.Add(fn)
}

// New builds a stream from a producer. produce runs once per subscriber and
// may return a teardown, which runs when the subscription ends for any
// reason.
func New[T any](produce func(*Sink[T]) func()) Stream[T] {
	return func(o Observer[T]) *Subscription {
		sink := newSink(o)
		if teardown := produce(sink); teardown != nil {
			sink.sub.Add(teardown)
		}
		return sink.sub
	}
}
