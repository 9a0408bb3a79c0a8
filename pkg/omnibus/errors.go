package omnibus

import (
	"context"
	"errors"
	"fmt"

	"github.com/randalmurphal/omnibus/pkg/omnibus/task"
)

// Sentinel errors.
var (
	// ErrTaskCanceled ends a task that was cancelled by a protocol event
	// rather than by teardown. Listeners treat it as a cancellation and not
	// as a failure.
	ErrTaskCanceled = fmt.Errorf("omnibus: task canceled: %w", context.Canceled)

	// ErrObserverType is the panic value when a listener is given a
	// TaskObserver for a different event type than its channel carries.
	ErrObserverType = errors.New("omnibus: task observer does not match channel event type")
)

// PanicError is a panic recovered from a handler, guard, filter, or spy.
type PanicError = task.PanicError

// GuardError is returned by Trigger when a guard rejects an event. The guard
// stays registered.
type GuardError struct {
	Event any   // The rejected event
	Err   error // What the guard returned or panicked with
}

// Error implements error.
func (e *GuardError) Error() string {
	return fmt.Sprintf("guard rejected event: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *GuardError) Unwrap() error {
	return e.Err
}

// FilterError is returned by Trigger when a filter panics. The event is not
// delivered.
type FilterError struct {
	Event any
	Err   error
}

// Error implements error.
func (e *FilterError) Error() string {
	return fmt.Sprintf("filter failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *FilterError) Unwrap() error {
	return e.Err
}

// SpyError is published on Errors when a spy panics. The spy is removed.
type SpyError struct {
	Event any
	Err   error
}

// Error implements error.
func (e *SpyError) Error() string {
	return fmt.Sprintf("spy failed and was removed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *SpyError) Unwrap() error {
	return e.Err
}

// TaskError describes a task that failed. It is published on Errors and
// recorded in the fault log; the listener keeps running.
type TaskError struct {
	Listener string // Listener name
	TaskID   string // Unique task identifier
	Event    any    // The event that spawned the task
	Err      error  // Underlying error
}

// Error implements error.
func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s in listener %s failed: %v", e.TaskID, e.Listener, e.Err)
}

// Unwrap returns the underlying error.
func (e *TaskError) Unwrap() error {
	return e.Err
}

// isCancellation reports whether err ends a task as cancelled. A
// context.Canceled only counts when the task's own ctx was cancelled; one
// leaking out of some unrelated context is a failure like any other.
func isCancellation(ctx context.Context, err error) bool {
	if errors.Is(err, ErrTaskCanceled) {
		return true
	}
	return errors.Is(err, context.Canceled) && ctx.Err() != nil
}
