// Package policy implements the concurrency disciplines that decide what a
// listener does when a new matching event arrives while an earlier task may
// still be running.
//
// Each policy is a combinator from a stream of events and a spawn function to
// the merged stream of task outputs:
//
//	out := policy.Apply(policy.Queued, events, func(e Event) stream.Stream[any] {
//	    return runTask(e)
//	})
//
// Combinators hold no locks. Their callers serialize every notification,
// which a channel does through its executor.
package policy

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/omnibus/pkg/omnibus/stream"
)

// Policy selects a concurrency discipline.
type Policy uint8

const (
	// Parallel starts every task immediately; none cancels another.
	Parallel Policy = iota
	// Queued runs tasks one at a time in arrival order, buffering without bound.
	Queued
	// Restarting cancels the running task before starting the new one.
	Restarting
	// Blocking drops new events while a task is running.
	Blocking
	// Toggling starts a task when idle and cancels the running one otherwise.
	Toggling
	// LatestOnlyQueued is Queued with a buffer of one: the newest waiting
	// event replaces any older waiting event.
	LatestOnlyQueued
)

var names = [...]string{
	Parallel:         "parallel",
	Queued:           "queued",
	Restarting:       "restarting",
	Blocking:         "blocking",
	Toggling:         "toggling",
	LatestOnlyQueued: "latest-only-queued",
}

// String returns the policy's name.
func (p Policy) String() string {
	if int(p) < len(names) {
		return names[p]
	}
	return fmt.Sprintf("policy(%d)", uint8(p))
}

// All returns every policy in declaration order.
func All() []Policy {
	all := make([]Policy, len(names))
	for i := range names {
		all[i] = Policy(i)
	}
	return all
}

// Valid reports whether p is one of the defined policies.
func (p Policy) Valid() bool {
	return int(p) < len(names)
}

// Parse resolves a policy name. Matching ignores case and accepts "_" in
// place of "-".
func Parse(s string) (Policy, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for i, n := range names {
		if n == key {
			return Policy(i), nil
		}
	}
	switch key {
	case "merge", "mergemap":
		return Parallel, nil
	case "concat", "queueing":
		return Queued, nil
	case "switch", "switching":
		return Restarting, nil
	case "exhaust":
		return Blocking, nil
	case "toggle":
		return Toggling, nil
	case "latest", "queue-latest":
		return LatestOnlyQueued, nil
	}
	return Parallel, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPolicy, uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Option configures Apply.
type Option[T any] func(*options[T])

type options[T any] struct {
	onDrop func(T)
}

// OnDrop is called with every event a policy discards without running:
// events arriving while Blocking is busy, and waiting events displaced under
// LatestOnlyQueued.
func OnDrop[T any](fn func(T)) Option[T] {
	return func(o *options[T]) { o.onDrop = fn }
}

// Apply routes src through the combinator for p.
func Apply[T, R any](p Policy, src stream.Stream[T], spawn func(T) stream.Stream[R], opts ...Option[T]) stream.Stream[R] {
	var o options[T]
	for _, opt := range opts {
		opt(&o)
	}
	drop := o.onDrop
	if drop == nil {
		drop = func(T) {}
	}

	switch p {
	case Queued:
		return serial(src, spawn, false, drop)
	case Restarting:
		return Switch(src, spawn)
	case Blocking:
		return exhaust(src, spawn, drop)
	case Toggling:
		return Toggle(src, spawn)
	case LatestOnlyQueued:
		return serial(src, spawn, true, drop)
	default:
		return Merge(src, spawn)
	}
}
