package omnibus

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/omnibus/pkg/omnibus/internal/arena"
	"github.com/randalmurphal/omnibus/pkg/omnibus/observability"
	"github.com/randalmurphal/omnibus/pkg/omnibus/policy"
	"github.com/randalmurphal/omnibus/pkg/omnibus/stream"
	"github.com/randalmurphal/omnibus/pkg/omnibus/task"
)

// Handler produces the task for one matching event. The returned value may be
// anything task.From accepts. A returned error fails the task.
//
// ctx is cancelled when the task is torn down, whether by its policy, by
// unsubscribing the listener, or by Reset.
type Handler[E any] func(ctx context.Context, evt E) (any, error)

// TaskObserver receives the lifecycle of every task a listener runs. Each
// callback gets the event that spawned the task. Nil callbacks are skipped.
//
// Exactly one of Complete, Error or Unsubscribe follows each Subscribe.
type TaskObserver[E any] struct {
	Subscribe   func(evt E)
	Next        func(evt E, v any)
	Error       func(evt E, err error)
	Complete    func(evt E)
	Unsubscribe func(evt E)
}

type binding[E any] struct {
	c        *Channel[E]
	handler  Handler[E]
	observer TaskObserver[E]
	name     string
	policy   policy.Policy
	ctx      context.Context
	logger   *slog.Logger

	handle arena.Handle
	outer  *stream.Subscription
	inner  *stream.Subscription
}

// Listen runs handler for every event matching match, under the listener's
// policy (Parallel unless WithPolicy says otherwise).
//
// Unsubscribing the returned subscription stops the listener and cancels
// its running tasks. Reset does the same for every listener.
func Listen[E any](c *Channel[E], match Match[E], handler Handler[E], opts ...ListenOption) *stream.Subscription {
	cfg := listenConfig{
		name:   "listener",
		policy: policy.Parallel,
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &binding[E]{
		c:       c,
		handler: handler,
		name:    cfg.name,
		policy:  cfg.policy,
		ctx:     cfg.ctx,
		logger:  observability.EnrichLogger(c.logger, c.name, cfg.name),
		outer:   &stream.Subscription{},
	}
	if cfg.observer != nil {
		obs, ok := cfg.observer.(TaskObserver[E])
		if !ok {
			panic(ErrObserverType)
		}
		b.observer = obs
	}

	src := policy.Apply(cfg.policy, c.Query(match), b.spawn, policy.OnDrop(b.dropped))

	b.handle = c.bindings.Add(b)
	b.outer.Add(func() {
		c.bindings.Remove(b.handle)
		c.exec.Do(func() {
			if b.inner != nil {
				b.inner.Unsubscribe()
			}
		})
	})

	c.exec.Do(func() {
		if b.outer.Closed() {
			return
		}
		b.inner = src.Subscribe(stream.Observer[struct{}]{
			Error: func(err error) {
				c.report(err)
				b.outer.Unsubscribe()
			},
			Complete: b.outer.Unsubscribe,
		})
	})

	return b.outer
}

// ListenQueueing is Listen with the Queued policy.
func ListenQueueing[E any](c *Channel[E], match Match[E], handler Handler[E], opts ...ListenOption) *stream.Subscription {
	return Listen(c, match, handler, append(opts, WithPolicy(policy.Queued))...)
}

// ListenSwitching is Listen with the Restarting policy.
func ListenSwitching[E any](c *Channel[E], match Match[E], handler Handler[E], opts ...ListenOption) *stream.Subscription {
	return Listen(c, match, handler, append(opts, WithPolicy(policy.Restarting))...)
}

// ListenBlocking is Listen with the Blocking policy.
func ListenBlocking[E any](c *Channel[E], match Match[E], handler Handler[E], opts ...ListenOption) *stream.Subscription {
	return Listen(c, match, handler, append(opts, WithPolicy(policy.Blocking))...)
}

// ListenToggling is Listen with the Toggling policy.
func ListenToggling[E any](c *Channel[E], match Match[E], handler Handler[E], opts ...ListenOption) *stream.Subscription {
	return Listen(c, match, handler, append(opts, WithPolicy(policy.Toggling))...)
}

// ListenQueueingLatest is Listen with the LatestOnlyQueued policy.
func ListenQueueingLatest[E any](c *Channel[E], match Match[E], handler Handler[E], opts ...ListenOption) *stream.Subscription {
	return Listen(c, match, handler, append(opts, WithPolicy(policy.LatestOnlyQueued))...)
}

func (b *binding[E]) dropped(E) {
	observability.LogEventDropped(b.logger, b.policy.String())
	b.c.metrics.RecordDrop(b.ctx, b.name, b.policy.String())
}

// spawn wraps one task. Handler failures never reach the policy stream; the
// task just completes, so one failure cannot end the listener.
func (b *binding[E]) spawn(evt E) stream.Stream[struct{}] {
	return stream.New(func(sink *stream.Sink[struct{}]) func() {
		id := uuid.NewString()
		ctx, cancel := context.WithCancel(b.ctx)
		ctx, span := b.c.spans.StartTaskSpan(ctx, b.c.name, b.name, id)
		elapsed := observability.TimedOperation()
		start := time.Now()
		ended := false
		values := 0

		observability.LogTaskStart(b.logger, id)
		if b.observer.Subscribe != nil {
			b.observer.Subscribe(evt)
		}

		canceled := func() {
			ended = true
			observability.LogTaskCanceled(b.logger, id, elapsed())
			b.c.metrics.RecordTask(ctx, b.name, observability.OutcomeCanceled, time.Since(start))
			b.c.spans.AddSpanEvent(ctx, "task.canceled")
			b.c.spans.EndSpanWithError(span, nil)
			if b.observer.Unsubscribe != nil {
				b.observer.Unsubscribe(evt)
			}
		}

		result, err := task.Invoke(func() (any, error) {
			return b.handler(ctx, evt)
		})
		var src stream.Stream[any]
		if err != nil {
			src = stream.Throw[any](err)
		} else {
			src = task.From(ctx, result, &b.c.exec)
		}

		inner := src.Subscribe(stream.Observer[any]{
			Next: func(v any) {
				if ended {
					return
				}
				values++
				if b.observer.Next != nil {
					b.observer.Next(evt, v)
				}
			},
			Error: func(err error) {
				if ended {
					return
				}
				if isCancellation(ctx, err) {
					canceled()
					sink.Complete()
					return
				}
				ended = true
				te := &TaskError{Listener: b.name, TaskID: id, Event: evt, Err: err}
				observability.LogTaskError(b.logger, id, err, elapsed())
				b.c.metrics.RecordTask(ctx, b.name, observability.OutcomeError, time.Since(start))
				b.c.spans.EndSpanWithError(span, err)
				if b.c.faults != nil {
					b.c.faults.Record(te)
				}
				if b.observer.Error != nil {
					b.observer.Error(evt, err)
				}
				b.c.report(te)
				sink.Complete()
			},
			Complete: func() {
				if ended {
					return
				}
				ended = true
				observability.LogTaskComplete(b.logger, id, elapsed(), values)
				b.c.metrics.RecordTask(ctx, b.name, observability.OutcomeComplete, time.Since(start))
				b.c.spans.EndSpanWithError(span, nil)
				if b.observer.Complete != nil {
					b.observer.Complete(evt)
				}
				sink.Complete()
			},
		})

		return func() {
			if !ended {
				canceled()
			}
			inner.Unsubscribe()
			cancel()
		}
	})
}
