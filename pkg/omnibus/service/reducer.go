package service

import "github.com/randalmurphal/omnibus/pkg/omnibus/action"

// Reducer folds protocol actions into state. It must be pure; a panicking
// reducer propagates to whoever triggered the action.
type Reducer[S any] interface {
	Reduce(state S, a action.Action) S
}

// ReducerFunc adapts a function to Reducer.
type ReducerFunc[S any] func(state S, a action.Action) S

// Reduce calls f.
func (f ReducerFunc[S]) Reduce(state S, a action.Action) S { return f(state, a) }

// InitialState is implemented by reducers that declare their own starting
// state. It takes precedence over Config.Initial.
type InitialState[S any] interface {
	InitialState() S
}

// WithInitial pairs a reducer function with its starting state.
func WithInitial[S any](initial S, fn func(S, action.Action) S) Reducer[S] {
	return initialReducer[S]{initial: initial, fn: fn}
}

type initialReducer[S any] struct {
	initial S
	fn      func(S, action.Action) S
}

func (r initialReducer[S]) Reduce(state S, a action.Action) S { return r.fn(state, a) }

func (r initialReducer[S]) InitialState() S { return r.initial }

// identity keeps the state as it is.
type identity[S any] struct{}

func (identity[S]) Reduce(state S, _ action.Action) S { return state }
