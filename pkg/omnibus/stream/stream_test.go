package stream

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf_EmitsThenCompletes(t *testing.T) {
	var got []int
	completed := false
	sub := Of(1, 2, 3).Subscribe(Observer[int]{
		Next:     func(v int) { got = append(got, v) },
		Complete: func() { completed = true },
	})

	assert.Equal(t, []int{1, 2, 3}, got)
	assert.True(t, completed)
	assert.True(t, sub.Closed())
}

func TestSink_DropsAfterTerminal(t *testing.T) {
	var events []string
	s := New(func(s *Sink[string]) func() {
		s.Next("a")
		s.Complete()
		s.Next("b")
		s.Error(errors.New("late"))
		s.Complete()
		return nil
	})

	s.Subscribe(Observer[string]{
		Next:     func(v string) { events = append(events, "next:"+v) },
		Error:    func(err error) { events = append(events, "error") },
		Complete: func() { events = append(events, "complete") },
	})

	assert.Equal(t, []string{"next:a", "complete"}, events)
}

func TestNew_TeardownRunsOnceOnUnsubscribe(t *testing.T) {
	var calls int
	s := New(func(s *Sink[int]) func() {
		return func() { calls++ }
	})

	sub := s.Subscribe(Observer[int]{})
	assert.False(t, sub.Closed())

	sub.Unsubscribe()
	sub.Unsubscribe()

	assert.True(t, sub.Closed())
	assert.Equal(t, 1, calls)
}

func TestNew_TeardownRunsAfterSynchronousCompletion(t *testing.T) {
	var tornDown bool
	s := New(func(s *Sink[int]) func() {
		s.Complete()
		return func() { tornDown = true }
	})

	sub := s.Subscribe(Observer[int]{})
	assert.True(t, sub.Closed())
	assert.True(t, tornDown)
}

func TestSubscription_TeardownOrder(t *testing.T) {
	var order []int
	sub := &Subscription{}
	sub.Add(func() { order = append(order, 1) })
	sub.Add(func() { order = append(order, 2) })
	sub.Unsubscribe()

	sub.Add(func() { order = append(order, 3) })

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestSubscription_UnsubscribeVia(t *testing.T) {
	var queued []func()
	sched := SchedulerFunc(func(fn func()) { queued = append(queued, fn) })

	ran := false
	sub := &Subscription{}
	sub.Add(func() { ran = true })

	sub.UnsubscribeVia(sched)
	assert.True(t, sub.Closed())
	assert.False(t, ran)

	require.Len(t, queued, 1)
	queued[0]()
	assert.True(t, ran)

	sub.UnsubscribeVia(sched)
	assert.Len(t, queued, 1)
}

func TestNilStream_CompletesImmediately(t *testing.T) {
	var s Stream[int]
	completed := false
	sub := s.Subscribe(Observer[int]{Complete: func() { completed = true }})

	assert.True(t, completed)
	assert.True(t, sub.Closed())
}

func TestFilterAndMap(t *testing.T) {
	src := Of(1, 2, 3, 4, 5)
	even := Filter(src, func(v int) bool { return v%2 == 0 })
	doubled := Map(even, func(v int) int { return v * 10 })

	got, err := Collect(doubled)
	require.NoError(t, err)
	assert.Equal(t, []int{20, 40}, got)
}

func TestThrowAndEmpty(t *testing.T) {
	boom := errors.New("boom")

	got, err := Collect(Throw[int](boom))
	assert.Empty(t, got)
	assert.ErrorIs(t, err, boom)

	got, err = Collect(Empty[int]())
	assert.Empty(t, got)
	assert.NoError(t, err)
}

func TestDefer_InvokesFactoryPerSubscriber(t *testing.T) {
	var n int
	s := Defer(func() Stream[int] {
		n++
		return Of(n)
	})

	first, _ := Collect(s)
	second, _ := Collect(s)
	assert.Equal(t, []int{1}, first)
	assert.Equal(t, []int{2}, second)
}

func TestInterrupt(t *testing.T) {
	src := NewSubject[int]()
	stop := NewSubject[struct{}]()
	canceled := errors.New("canceled")

	var got []int
	var gotErr error
	sub := Interrupt(src.Stream(), stop.Stream(), canceled).Subscribe(Observer[int]{
		Next:  func(v int) { got = append(got, v) },
		Error: func(err error) { gotErr = err },
	})

	src.Next(1)
	stop.Next(struct{}{})
	src.Next(2)

	assert.Equal(t, []int{1}, got)
	assert.ErrorIs(t, gotErr, canceled)
	assert.True(t, sub.Closed())
	assert.Equal(t, 0, src.Len())
	assert.Equal(t, 0, stop.Len())
}

func TestInterrupt_NilErrorCompletes(t *testing.T) {
	src := NewSubject[int]()
	stop := NewSubject[int]()

	completed := false
	Interrupt(src.Stream(), stop.Stream(), nil).Subscribe(Observer[int]{
		Complete: func() { completed = true },
	})
	stop.Next(0)

	assert.True(t, completed)
}

func TestSubject_Multicast(t *testing.T) {
	s := NewSubject[string]()

	var a, b []string
	subA := s.Stream().Subscribe(Observer[string]{Next: func(v string) { a = append(a, v) }})
	s.Stream().Subscribe(Observer[string]{Next: func(v string) { b = append(b, v) }})

	s.Next("x")
	subA.Unsubscribe()
	s.Next("y")

	assert.Equal(t, []string{"x"}, a)
	assert.Equal(t, []string{"x", "y"}, b)
	assert.Equal(t, 1, s.Len())
}

func TestSubject_SubscriberAddedDuringNextMissesCurrentValue(t *testing.T) {
	s := NewSubject[int]()

	var late []int
	s.Stream().Subscribe(Observer[int]{Next: func(v int) {
		if v == 1 {
			s.Stream().Subscribe(Observer[int]{Next: func(v int) { late = append(late, v) }})
		}
	}})

	s.Next(1)
	s.Next(2)

	assert.Equal(t, []int{2}, late)
}

func TestSubject_CompleteAndDetach(t *testing.T) {
	s := NewSubject[int]()

	var completed int
	s.Stream().Subscribe(Observer[int]{Complete: func() { completed++ }})
	detachedSub := s.Stream().Subscribe(Observer[int]{Complete: func() { completed++ }})

	sinks := s.Detach()
	require.Len(t, sinks, 2)
	assert.Equal(t, 0, s.Len())
	assert.False(t, detachedSub.Closed())

	for _, sink := range sinks {
		sink.Complete()
	}
	assert.Equal(t, 2, completed)
	assert.True(t, detachedSub.Closed())

	s.Complete()
	late := false
	sub := s.Stream().Subscribe(Observer[int]{Complete: func() { late = true }})
	assert.True(t, late)
	assert.True(t, sub.Closed())
}

func TestSink_CompleteVia(t *testing.T) {
	s := NewSubject[int]()
	completed := false
	sub := s.Stream().Subscribe(Observer[int]{Complete: func() { completed = true }})

	var exec Executor
	var pending []func()
	sinks := s.Detach()
	sinks[0].CompleteVia(SchedulerFunc(func(fn func()) { pending = append(pending, fn) }))

	assert.True(t, sub.Closed())
	assert.False(t, completed)

	exec.Do(pending[0])
	assert.True(t, completed)
}

func TestValue_DedupAndOrder(t *testing.T) {
	v := NewValue(false, nil)

	var got []bool
	v.Subscribe(func(b bool) { got = append(got, b) })

	assert.True(t, v.Set(true))
	assert.False(t, v.Set(true))
	assert.True(t, v.Set(false))
	assert.False(t, v.Set(false))

	assert.Equal(t, []bool{false, true, false}, got)
}

func TestValue_DeepEqualByDefault(t *testing.T) {
	type state struct{ Items []string }
	v := NewValue(state{Items: []string{"a"}}, nil)

	var emits int
	v.Subscribe(func(state) { emits++ })

	assert.False(t, v.Set(state{Items: []string{"a"}}))
	assert.True(t, v.Set(state{Items: []string{"a", "b"}}))
	assert.Equal(t, 2, emits)
}

func TestValue_Finish(t *testing.T) {
	v := NewValue(1, func(a, b int) bool { return a == b })

	var got []int
	completed := false
	v.Stream().Subscribe(Observer[int]{
		Next:     func(x int) { got = append(got, x) },
		Complete: func() { completed = true },
	})

	v.Set(2)
	v.Finish(0)
	assert.False(t, v.Set(5))

	assert.Equal(t, []int{1, 2, 0}, got)
	assert.True(t, completed)
	assert.True(t, v.Stopped())
	assert.Equal(t, 0, v.Get())

	var late []int
	lateDone := false
	v.Stream().Subscribe(Observer[int]{
		Next:     func(x int) { late = append(late, x) },
		Complete: func() { lateDone = true },
	})
	assert.Equal(t, []int{0}, late)
	assert.True(t, lateDone)
}

func TestValue_Update(t *testing.T) {
	v := NewValue(10, nil)
	v.Update(func(x int) int { return x + 5 })
	assert.Equal(t, 15, v.Get())
}

func TestExecutor_TrampolinesNestedWork(t *testing.T) {
	var exec Executor
	var order []string

	drained := exec.Do(func() {
		order = append(order, "outer:start")
		assert.False(t, exec.Do(func() { order = append(order, "inner") }))
		order = append(order, "outer:end")
	})

	assert.True(t, drained)
	assert.Equal(t, []string{"outer:start", "outer:end", "inner"}, order)
	assert.False(t, exec.Busy())
}

func TestExecutor_Call(t *testing.T) {
	var exec Executor
	boom := errors.New("boom")

	err := exec.Call(func() error { return boom }, nil)
	assert.ErrorIs(t, err, boom)

	var orphaned error
	exec.Do(func() {
		err := exec.Call(func() error { return boom }, func(err error) { orphaned = err })
		assert.NoError(t, err)
		assert.Nil(t, orphaned)
	})
	assert.ErrorIs(t, orphaned, boom)
}

func TestExecutor_RecoversFromPanic(t *testing.T) {
	var exec Executor
	var ran []int

	assert.Panics(t, func() {
		exec.Do(func() {
			exec.Do(func() { ran = append(ran, 2) })
			panic("boom")
		})
	})
	assert.False(t, exec.Busy())

	exec.Do(func() { ran = append(ran, 3) })
	assert.Equal(t, []int{2, 3}, ran)
}

func TestExecutor_SerializesGoroutines(t *testing.T) {
	var (
		exec    Executor
		wg      sync.WaitGroup
		inside  atomic.Int32
		overlap atomic.Bool
		count   int
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				exec.Do(func() {
					if inside.Add(1) > 1 {
						overlap.Store(true)
					}
					count++
					inside.Add(-1)
				})
			}
		}()
	}
	wg.Wait()

	assert.False(t, overlap.Load())
	assert.Equal(t, 5000, count)
	assert.False(t, exec.Busy())
}

func TestSubject_WhereSelectsAndDetachCloses(t *testing.T) {
	s := NewSubject[int]()
	var evens []int
	sub := s.Where(func(v int) bool { return v%2 == 0 }).Subscribe(Observer[int]{
		Next: func(v int) { evens = append(evens, v) },
	})

	for i := 1; i <= 5; i++ {
		s.Next(i)
	}
	assert.Equal(t, []int{2, 4}, evens)

	sinks := s.Detach()
	require.Len(t, sinks, 1)
	sinks[0].CompleteVia(Immediate)
	assert.True(t, sub.Closed())

	s.Next(6)
	assert.Equal(t, []int{2, 4}, evens)
}

func TestValue_ConcurrentUpdatesKeepEveryWrite(t *testing.T) {
	v := NewValue(0, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 250 {
				v.Update(func(x int) int { return x + 1 })
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2000, v.Get())
}
