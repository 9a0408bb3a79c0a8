package omnibus

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/omnibus/pkg/omnibus/stream"
)

type event struct {
	Kind  string
	Value int
}

func kind(k string) Match[event] {
	return func(e event) bool { return e.Kind == k }
}

// record subscribes to a query and collects what it sees.
func record[E any](t *testing.T, s stream.Stream[E]) (*[]E, *stream.Subscription) {
	t.Helper()
	var got []E
	sub := s.Subscribe(stream.Observer[E]{
		Next: func(v E) { got = append(got, v) },
	})
	return &got, sub
}

func collectErrors[E any](c *Channel[E]) *[]error {
	var errs []error
	c.Errors().Subscribe(stream.Observer[error]{
		Next: func(err error) { errs = append(errs, err) },
	})
	return &errs
}

func TestChannel_PipelineOrder(t *testing.T) {
	ch := New[event]()
	var order []string

	ch.Guard(nil, func(e event) error {
		order = append(order, "guard")
		return nil
	})
	ch.Filter(nil, func(e event) (event, bool) {
		order = append(order, "filter")
		return e, true
	})
	ch.Spy(nil, func(e event) {
		order = append(order, "spy")
	})
	ch.Query(nil).Subscribe(stream.Observer[event]{
		Next: func(event) { order = append(order, "query") },
	})

	require.NoError(t, ch.Trigger(event{Kind: "a"}))
	assert.Equal(t, []string{"guard", "filter", "spy", "query"}, order)
}

func TestChannel_QueryMatches(t *testing.T) {
	ch := New[event]()
	as, _ := record(t, ch.Query(kind("a")))
	all, _ := record(t, ch.Query(nil))

	require.NoError(t, ch.Trigger(event{Kind: "a", Value: 1}))
	require.NoError(t, ch.Trigger(event{Kind: "b", Value: 2}))
	require.NoError(t, ch.Trigger(event{Kind: "a", Value: 3}))

	assert.Equal(t, []event{{"a", 1}, {"a", 3}}, *as)
	assert.Len(t, *all, 3)
}

func TestChannel_GuardRejects(t *testing.T) {
	ch := New[event]()
	errBad := errors.New("negative")
	ch.Guard(kind("n"), func(e event) error {
		if e.Value < 0 {
			return errBad
		}
		return nil
	})
	got, _ := record(t, ch.Query(nil))

	err := ch.Trigger(event{Kind: "n", Value: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBad)

	var guardErr *GuardError
	require.ErrorAs(t, err, &guardErr)
	assert.Equal(t, event{Kind: "n", Value: -1}, guardErr.Event)

	// The guard stays registered and non-matching events pass.
	require.NoError(t, ch.Trigger(event{Kind: "n", Value: 1}))
	assert.Error(t, ch.Trigger(event{Kind: "n", Value: -2}))
	require.NoError(t, ch.Trigger(event{Kind: "other", Value: -3}))

	assert.Equal(t, []event{{"n", 1}, {"other", -3}}, *got)
}

func TestChannel_GuardPanicBecomesGuardError(t *testing.T) {
	ch := New[event]()
	ch.Guard(nil, func(event) error { panic("boom") })

	err := ch.Trigger(event{Kind: "a"})

	var guardErr *GuardError
	require.ErrorAs(t, err, &guardErr)
	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "boom", panicErr.Value)
}

func TestChannel_GuardDeterminism(t *testing.T) {
	ch := New[event]()
	ch.Guard(nil, func(e event) error {
		if e.Value%2 != 0 {
			return errors.New("odd")
		}
		return nil
	})

	for i := 0; i < 10; i++ {
		err := ch.Trigger(event{Kind: "x", Value: i})
		if i%2 == 0 {
			assert.NoError(t, err)
		} else {
			assert.Error(t, err)
		}
	}
}

func TestChannel_GuardUnsubscribe(t *testing.T) {
	ch := New[event]()
	sub := ch.Guard(nil, func(event) error { return errors.New("no") })
	require.Error(t, ch.Trigger(event{}))

	sub.Unsubscribe()
	assert.NoError(t, ch.Trigger(event{}))
}

func TestChannel_GuardMutationIsVisibleDownstream(t *testing.T) {
	type box struct{ N int }
	ch := New[*box]()
	ch.Guard(nil, func(b *box) error {
		b.N++
		return nil
	})
	got, _ := record(t, ch.Query(nil))

	require.NoError(t, ch.Trigger(&box{N: 1}))
	require.Len(t, *got, 1)
	assert.Equal(t, 2, (*got)[0].N)
}

func TestChannel_FilterReplacesAndVetoes(t *testing.T) {
	ch := New[event]()
	ch.Filter(kind("double"), func(e event) (event, bool) {
		e.Value *= 2
		return e, true
	})
	ch.Filter(kind("drop"), func(e event) (event, bool) {
		return e, false
	})
	got, _ := record(t, ch.Query(nil))

	require.NoError(t, ch.Trigger(event{Kind: "double", Value: 21}))
	require.NoError(t, ch.Trigger(event{Kind: "drop", Value: 1}))
	require.NoError(t, ch.Trigger(event{Kind: "plain", Value: 3}))

	assert.Equal(t, []event{{"double", 42}, {"plain", 3}}, *got)
}

func TestChannel_FiltersChainInRegistrationOrder(t *testing.T) {
	ch := New[int]()
	ch.Filter(nil, func(v int) (int, bool) { return v + 1, true })
	ch.Filter(nil, func(v int) (int, bool) { return v * 10, true })
	got, _ := record(t, ch.Query(nil))

	require.NoError(t, ch.Trigger(1))
	assert.Equal(t, []int{20}, *got)
}

func TestChannel_FilterPanic(t *testing.T) {
	ch := New[int]()
	ch.Filter(nil, func(int) (int, bool) { panic("bad filter") })
	got, _ := record(t, ch.Query(nil))

	err := ch.Trigger(1)
	var filterErr *FilterError
	require.ErrorAs(t, err, &filterErr)
	assert.Empty(t, *got)
}

func TestChannel_SpyPanicRemovesSpy(t *testing.T) {
	ch := New[int]()
	errs := collectErrors(ch)
	calls := 0
	sub := ch.Spy(nil, func(v int) {
		calls++
		panic("spy down")
	})
	got, _ := record(t, ch.Query(nil))

	require.NoError(t, ch.Trigger(1))
	require.NoError(t, ch.Trigger(2))

	assert.Equal(t, 1, calls)
	assert.True(t, sub.Closed())
	assert.Equal(t, []int{1, 2}, *got)
	require.Len(t, *errs, 1)
	var spyErr *SpyError
	assert.ErrorAs(t, (*errs)[0], &spyErr)
}

func TestChannel_TriggerMapEquivalence(t *testing.T) {
	direct := New[event]()
	mapped := New[event]()
	d, _ := record(t, direct.Query(nil))
	m, _ := record(t, mapped.Query(nil))
	toEvent := func(n int) event { return event{Kind: "num", Value: n} }

	for i := 0; i < 3; i++ {
		require.NoError(t, direct.Trigger(toEvent(i)))
		require.NoError(t, TriggerMap(mapped, i, toEvent))
	}

	assert.Equal(t, *d, *m)
}

func TestChannel_NestedTriggerRunsAfterCurrentBroadcast(t *testing.T) {
	ch := New[string]()
	var order []string

	ch.Query(nil).Subscribe(stream.Observer[string]{
		Next: func(v string) {
			order = append(order, "first:"+v)
			if v == "a" {
				require.NoError(t, ch.Trigger("b"))
			}
		},
	})
	ch.Query(nil).Subscribe(stream.Observer[string]{
		Next: func(v string) { order = append(order, "second:"+v) },
	})

	require.NoError(t, ch.Trigger("a"))
	assert.Equal(t, []string{"first:a", "second:a", "first:b", "second:b"}, order)
}

func TestChannel_NestedGuardErrorGoesToErrors(t *testing.T) {
	ch := New[string]()
	errs := collectErrors(ch)
	ch.Guard(func(s string) bool { return s == "b" }, func(string) error {
		return errors.New("b is not allowed")
	})
	ch.Query(func(s string) bool { return s == "a" }).Subscribe(stream.Observer[string]{
		Next: func(string) { _ = ch.Trigger("b") },
	})

	require.NoError(t, ch.Trigger("a"))
	require.Len(t, *errs, 1)
	var guardErr *GuardError
	assert.ErrorAs(t, (*errs)[0], &guardErr)
}

func TestChannel_ResetClosesQueries(t *testing.T) {
	ch := New[int]()
	errs := collectErrors(ch)
	completed := false
	got, sub := record(t, ch.Query(nil))
	ch.Query(nil).Subscribe(stream.Observer[int]{
		Complete: func() { completed = true },
	})

	require.NoError(t, ch.Trigger(1))
	ch.Reset()

	assert.True(t, sub.Closed())
	assert.True(t, completed)

	require.NoError(t, ch.Trigger(2))
	assert.Equal(t, []int{1}, *got)

	// New subscriptions work right away and Errors survives.
	after, _ := record(t, ch.Query(nil))
	ch.Spy(nil, func(int) { panic("x") })
	require.NoError(t, ch.Trigger(3))
	assert.Equal(t, []int{3}, *after)
	assert.Len(t, *errs, 1)
}

func TestChannel_ResetKeepsPipeline(t *testing.T) {
	ch := New[int]()
	ch.Guard(nil, func(v int) error {
		if v < 0 {
			return errors.New("negative")
		}
		return nil
	})
	ch.Reset()

	assert.Error(t, ch.Trigger(-1))
}

func TestChannel_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ch := New[int](WithName("numbers"), WithLogger(logger))
	ch.Guard(nil, func(int) error { return errors.New("closed") })

	_ = ch.Trigger(1)
	ch.Reset()

	out := buf.String()
	assert.Contains(t, out, `"channel":"numbers"`)
	assert.Contains(t, out, "guard rejected event")
	assert.Contains(t, out, "channel reset")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestChannel_NilLoggerIsSafe(t *testing.T) {
	ch := New[int](WithLogger(nil))
	ch.Guard(nil, func(int) error { return errors.New("closed") })

	assert.NotPanics(t, func() {
		_ = ch.Trigger(1)
		ch.Reset()
	})
	assert.Equal(t, "omnibus", ch.Name())
}
