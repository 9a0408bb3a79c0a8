/*
Package omnibus provides an in-process event channel that runs cancellable
tasks in response to matching events, under a per-listener concurrency
policy.

# Overview

A Channel carries events of one type. Trigger pushes an event through a
synchronous pipeline (guards, filters, spies) and broadcasts it. Listeners
match events and start a task for each one; the listener's policy decides
what happens when matching events overlap.

The channel serializes all of its work on one executor, so handlers,
observers and spies never run concurrently with each other even when tasks
do their work on other goroutines.

# Basic Usage

	type Event struct {
	    Kind string
	    Text string
	}

	ch := omnibus.New[Event]()

	omnibus.ListenSwitching(ch,
	    func(e Event) bool { return e.Kind == "search" },
	    func(ctx context.Context, e Event) (any, error) {
	        return task.Func(func(ctx context.Context, emit func(any)) error {
	            results, err := lookup(ctx, e.Text)
	            if err != nil {
	                return err
	            }
	            emit(results)
	            return nil
	        }), nil
	    },
	    omnibus.WithObserver(omnibus.ObserveWith(ch, omnibus.Mapper[Event]{
	        Next: func(_ Event, v any) Event { return Event{Kind: "results", Text: fmt.Sprint(v)} },
	    })),
	)

	ch.Trigger(Event{Kind: "search", Text: "go"})

# Policies

	policy.Parallel          every task runs immediately
	policy.Queued            one at a time, waiting events buffered
	policy.Restarting        a new event cancels the running task
	policy.Blocking          events arriving while busy are dropped
	policy.Toggling          an event while busy cancels and starts nothing
	policy.LatestOnlyQueued  one at a time, only the newest waiting event kept

# Pipeline

Guards run first and may reject an event by returning an error, which
Trigger returns as a *GuardError. Filters may replace an event or drop it.
Spies observe what survives, before any Query subscriber or listener.

# Errors

A task failure never ends its listener. It is delivered to the task
observer's Error, recorded in the FaultLog when one is configured, and
published on Errors as a *TaskError. Panics in handlers, guards, filters and
spies are recovered as *PanicError.

# Reset

Reset ends every Query subscription and every listener, cancelling their
running tasks. Guards, filters, spies and the Errors stream survive.
*/
package omnibus
