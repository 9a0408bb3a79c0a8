package omnibus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAll_RetriggersEmittedEvents(t *testing.T) {
	ch := New[string]()
	got, _ := record(t, ch.Query(func(s string) bool { return s != "start" }))

	Listen(ch, func(s string) bool { return s == "start" }, func(context.Context, string) (any, error) {
		return []any{"x", 42, "y"}, nil
	}, WithObserver(ObserveAll(ch)))

	require.NoError(t, ch.Trigger("start"))
	assert.Equal(t, []string{"x", "y"}, *got)
}

func TestObserveWith_MapsErrorsAndCancellation(t *testing.T) {
	ch := New[event]()
	got, _ := record(t, ch.Query(func(e event) bool { return e.Kind != "go" }))
	m := newManual()

	ListenSwitching(ch, kind("go"), func(ctx context.Context, e event) (any, error) {
		if e.Value < 0 {
			return nil, errors.New("negative")
		}
		return m.handler(ctx, e)
	}, WithObserver(ObserveWith(ch, Mapper[event]{
		Error:       func(e event, _ error) event { return event{Kind: "error", Value: e.Value} },
		Unsubscribe: func(e event) event { return event{Kind: "canceled", Value: e.Value} },
	})))

	require.NoError(t, ch.Trigger(event{Kind: "go", Value: 1}))
	require.NoError(t, ch.Trigger(event{Kind: "go", Value: -1}))

	assert.Equal(t, []event{{"canceled", 1}, {"error", -1}}, *got)
}

func TestObserveWith_EmptyMapperTriggersNothing(t *testing.T) {
	ch := New[event]()
	got, _ := record(t, ch.Query(nil))

	Listen(ch, kind("go"), func(context.Context, event) (any, error) {
		return 1, nil
	}, WithObserver(ObserveWith(ch, Mapper[event]{})))

	require.NoError(t, ch.Trigger(event{Kind: "go"}))
	assert.Equal(t, []event{{Kind: "go"}}, *got)
}
