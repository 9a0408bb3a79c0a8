package stream

// Of emits each value synchronously, then completes.
func Of[T any](values ...T) Stream[T] {
	return New(func(s *Sink[T]) func() {
		for _, v := range values {
			if s.Closed() {
				return nil
			}
			s.Next(v)
		}
		s.Complete()
		return nil
	})
}

// Empty completes immediately.
func Empty[T any]() Stream[T] {
	return New(func(s *Sink[T]) func() {
		s.Complete()
		return nil
	})
}

// Throw fails immediately with err.
func Throw[T any](err error) Stream[T] {
	return New(func(s *Sink[T]) func() {
		s.Error(err)
		return nil
	})
}

// Defer builds a fresh stream with factory on every subscribe.
func Defer[T any](factory func() Stream[T]) Stream[T] {
	return func(o Observer[T]) *Subscription {
		return factory().Subscribe(o)
	}
}

// Filter forwards only values for which keep returns true.
func Filter[T any](src Stream[T], keep func(T) bool) Stream[T] {
	return New(func(out *Sink[T]) func() {
		sub := src.Subscribe(Observer[T]{
			Next: func(v T) {
				if keep(v) {
					out.Next(v)
				}
			},
			Error:    out.Error,
			Complete: out.Complete,
		})
		return sub.Unsubscribe
	})
}

// Map transforms every value with fn.
func Map[T, R any](src Stream[T], fn func(T) R) Stream[R] {
	return New(func(out *Sink[R]) func() {
		sub := src.Subscribe(Observer[T]{
			Next:     func(v T) { out.Next(fn(v)) },
			Error:    out.Error,
			Complete: out.Complete,
		})
		return sub.Unsubscribe
	})
}

// Interrupt mirrors src until notifier emits its first value. At that point
// src is torn down and the result fails with err, or completes when err is
// nil.
func Interrupt[T, N any](src Stream[T], notifier Stream[N], err error) Stream[T] {
	return New(func(out *Sink[T]) func() {
		stop := notifier.Subscribe(Observer[N]{
			Next: func(N) {
				if err != nil {
					out.Error(err)
					return
				}
				out.Complete()
			},
		})
		if out.Closed() {
			return stop.Unsubscribe
		}

		sub := src.Subscribe(Observer[T]{
			Next:     out.Next,
			Error:    out.Error,
			Complete: out.Complete,
		})
		return func() {
			stop.Unsubscribe()
			sub.Unsubscribe()
		}
	})
}

// Collect subscribes synchronously and gathers everything a stream emits
// before it terminates. Intended for streams that finish during Subscribe.
func Collect[T any](src Stream[T]) ([]T, error) {
	var (
		out []T
		err error
	)
	src.Subscribe(Observer[T]{
		Next:  func(v T) { out = append(out, v) },
		Error: func(e error) { err = e },
	})
	return out, err
}
