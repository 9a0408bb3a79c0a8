// Package task adapts whatever a handler returns into one uniform,
// cancellable stream.
//
// Handlers can return:
//   - nil: a task that completes with no values
//   - an error: a task that fails with it
//   - a stream.Stream[any]: used as is
//   - func() any or func() (any, error): invoked lazily at subscribe time,
//     its result adapted again
//   - a Func: run on its own goroutine with a context that is cancelled on
//     teardown
//   - func(context.Context) (any, error): like Func, emitting the single
//     result
//   - a Starter, such as After or NewProcess: started once per task, each
//     run with its own stop function
//   - a Process: an external subscribe/unsubscribe pair
//   - a receive channel: one value per receive until it is closed
//   - a string: one value per rune
//   - a slice, array or iter.Seq: one value per element
//   - anything else: a single value
//
// Work that runs on other goroutines hands its notifications to the
// scheduler given to From, so consumers observe them on the scheduler's
// thread.
package task
