package task

import (
	"context"
	"iter"
	"reflect"

	"github.com/randalmurphal/omnibus/pkg/omnibus/stream"
)

// Func is goroutine-backed work. It may call emit any number of times and
// returns nil to complete or an error to fail. ctx is cancelled when the
// task is torn down.
type Func func(ctx context.Context, emit func(any)) error

// From adapts v into a task stream. ctx parents the contexts handed to
// goroutine-backed work; sched receives their notifications.
func From(ctx context.Context, v any, sched stream.Scheduler) stream.Stream[any] {
	switch x := v.(type) {
	case nil:
		return stream.Empty[any]()
	case stream.Stream[any]:
		return x
	case error:
		return stream.Throw[any](x)
	case *Delay:
		if x.d <= 0 {
			return stream.Defer(func() stream.Stream[any] {
				return valueOrEmpty(x.value())
			})
		}
		return fromStarter(x, sched)
	case Starter:
		return fromStarter(x, sched)
	case Process:
		return fromProcess(x, sched)
	case Func:
		return fromFunc(ctx, x, sched)
	case func(context.Context, func(any)) error:
		return fromFunc(ctx, x, sched)
	case func(context.Context) (any, error):
		return fromFunc(ctx, callFunc(x), sched)
	case func() any:
		return deferred(ctx, sched, func() (any, error) { return x(), nil })
	case func() (any, error):
		return deferred(ctx, sched, x)
	case func(yield func(any) bool):
		return fromSeq(x)
	case iter.Seq[any]:
		return fromSeq(x)
	case string:
		return fromRunes(x)
	case []any:
		return stream.Of(x...)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return fromIndexable(rv)
	case reflect.Chan:
		if rv.Type().ChanDir()&reflect.RecvDir != 0 {
			return fromChan(ctx, rv, sched)
		}
	case reflect.Func:
		if rv.Type().CanSeq() {
			return fromReflectSeq(rv)
		}
	}
	return stream.Of(v)
}

func valueOrEmpty(v any) stream.Stream[any] {
	if v == nil {
		return stream.Empty[any]()
	}
	return stream.Of(v)
}

func deferred(ctx context.Context, sched stream.Scheduler, fn func() (any, error)) stream.Stream[any] {
	return stream.Defer(func() stream.Stream[any] {
		v, err := Invoke(fn)
		if err != nil {
			return stream.Throw[any](err)
		}
		return From(ctx, v, sched)
	})
}

func callFunc(fn func(context.Context) (any, error)) Func {
	return func(ctx context.Context, emit func(any)) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		if v != nil {
			emit(v)
		}
		return nil
	}
}

func fromFunc(parent context.Context, fn Func, sched stream.Scheduler) stream.Stream[any] {
	return stream.New(func(s *stream.Sink[any]) func() {
		ctx, cancel := context.WithCancel(parent)
		emit := func(v any) {
			sched.Schedule(func() { s.Next(v) })
		}

		go func() {
			_, err := Invoke(func() (any, error) {
				return nil, fn(ctx, emit)
			})
			sched.Schedule(func() {
				if err != nil {
					s.Error(err)
					return
				}
				s.Complete()
			})
		}()

		return cancel
	})
}

func fromRunes(str string) stream.Stream[any] {
	return stream.New(func(s *stream.Sink[any]) func() {
		for _, r := range str {
			if s.Closed() {
				return nil
			}
			s.Next(string(r))
		}
		s.Complete()
		return nil
	})
}

func fromSeq(seq iter.Seq[any]) stream.Stream[any] {
	return stream.New(func(s *stream.Sink[any]) func() {
		for v := range seq {
			if s.Closed() {
				return nil
			}
			s.Next(v)
		}
		s.Complete()
		return nil
	})
}

func fromReflectSeq(rv reflect.Value) stream.Stream[any] {
	return stream.New(func(s *stream.Sink[any]) func() {
		for v := range rv.Seq() {
			if s.Closed() {
				return nil
			}
			s.Next(v.Interface())
		}
		s.Complete()
		return nil
	})
}

func fromIndexable(rv reflect.Value) stream.Stream[any] {
	return stream.New(func(s *stream.Sink[any]) func() {
		for i := 0; i < rv.Len(); i++ {
			if s.Closed() {
				return nil
			}
			s.Next(rv.Index(i).Interface())
		}
		s.Complete()
		return nil
	})
}

func fromChan(parent context.Context, ch reflect.Value, sched stream.Scheduler) stream.Stream[any] {
	return stream.New(func(s *stream.Sink[any]) func() {
		ctx, cancel := context.WithCancel(parent)
		cases := []reflect.SelectCase{
			{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())},
			{Dir: reflect.SelectRecv, Chan: ch},
		}

		go func() {
			for {
				chosen, v, ok := reflect.Select(cases)
				if chosen == 0 {
					return
				}
				if !ok {
					sched.Schedule(s.Complete)
					return
				}
				val := v.Interface()
				sched.Schedule(func() { s.Next(val) })
			}
		}()

		return cancel
	})
}
