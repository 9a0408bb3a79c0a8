package omnibus

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/omnibus/pkg/omnibus/internal/arena"
	"github.com/randalmurphal/omnibus/pkg/omnibus/observability"
	"github.com/randalmurphal/omnibus/pkg/omnibus/stream"
	"github.com/randalmurphal/omnibus/pkg/omnibus/task"
)

// Match selects events. A nil Match selects every event.
type Match[E any] func(E) bool

func (m Match[E]) matches(evt E) bool {
	return m == nil || m(evt)
}

type guardEntry[E any] struct {
	match Match[E]
	fn    func(E) error
}

type filterEntry[E any] struct {
	match Match[E]
	fn    func(E) (E, bool)
}

type spyEntry[E any] struct {
	match Match[E]
	fn    func(E)
	sub   *stream.Subscription
}

// Channel is an in-process event channel.
//
// Trigger runs an event through the pipeline (guards, then filters, then
// spies, each in registration order) and then broadcasts it to every live
// Query subscriber. All of that, plus every task notification of every
// listener, runs on the channel's executor one item at a time.
type Channel[E any] struct {
	name    string
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	faults  *FaultLog

	exec     stream.Executor
	guards   *arena.Registry[*guardEntry[E]]
	filters  *arena.Registry[*filterEntry[E]]
	spies    *arena.Registry[*spyEntry[E]]
	bindings *arena.Registry[*binding[E]]
	events   *stream.Subject[E]
	errs     *stream.Subject[error]
}

// New creates a channel.
func New[E any](opts ...Option) *Channel[E] {
	cfg := defaultChannelConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var logger *slog.Logger
	if cfg.logger != nil {
		logger = cfg.logger.With(slog.String("channel", cfg.name))
	}

	return &Channel[E]{
		name:     cfg.name,
		logger:   logger,
		metrics:  cfg.metrics,
		spans:    cfg.spans,
		faults:   cfg.faults,
		guards:   arena.New[*guardEntry[E]](),
		filters:  arena.New[*filterEntry[E]](),
		spies:    arena.New[*spyEntry[E]](),
		bindings: arena.New[*binding[E]](),
		events:   stream.NewSubject[E](),
		errs:     stream.NewSubject[error](),
	}
}

// Name returns the channel's name.
func (c *Channel[E]) Name() string { return c.name }

// Scheduler returns the executor that serializes the channel's work. Hand it
// to anything that produces task notifications on other goroutines.
func (c *Channel[E]) Scheduler() stream.Scheduler { return &c.exec }

// Faults returns the fault log, or nil when none was configured.
func (c *Channel[E]) Faults() *FaultLog { return c.faults }

// Trigger runs evt through the pipeline and broadcasts it.
//
// From an idle channel, Trigger is synchronous: by the time it returns, the
// event has been delivered and every synchronous consequence has run. A
// guard rejection is returned as a *GuardError and nothing downstream sees
// the event.
//
// A Trigger issued while the channel is busy (from a listener, an observer,
// a spy, or another goroutine) is queued behind the current work. A guard
// rejection of such an event is published on Errors instead of returned.
func (c *Channel[E]) Trigger(evt E) error {
	return c.exec.Call(func() error {
		return c.dispatch(evt)
	}, c.report)
}

// TriggerMap triggers mapper(x).
func TriggerMap[X, E any](c *Channel[E], x X, mapper func(X) E) error {
	return c.Trigger(mapper(x))
}

func (c *Channel[E]) dispatch(evt E) error {
	ctx := context.Background()

	for _, g := range c.guards.Snapshot() {
		if !g.match.matches(evt) {
			continue
		}
		_, err := task.Invoke(func() (any, error) { return nil, g.fn(evt) })
		if err != nil {
			observability.LogGuardRejected(c.logger, err)
			c.metrics.RecordTrigger(ctx, c.name, false)
			return &GuardError{Event: evt, Err: err}
		}
	}

	for _, f := range c.filters.Snapshot() {
		if !f.match.matches(evt) {
			continue
		}
		var (
			next E
			keep bool
		)
		_, err := task.Invoke(func() (any, error) {
			next, keep = f.fn(evt)
			return nil, nil
		})
		if err != nil {
			c.metrics.RecordTrigger(ctx, c.name, false)
			return &FilterError{Event: evt, Err: err}
		}
		if !keep {
			observability.LogFilterVeto(c.logger)
			c.metrics.RecordTrigger(ctx, c.name, false)
			return nil
		}
		evt = next
	}

	for _, s := range c.spies.Snapshot() {
		if s.sub.Closed() || !s.match.matches(evt) {
			continue
		}
		_, err := task.Invoke(func() (any, error) {
			s.fn(evt)
			return nil, nil
		})
		if err != nil {
			s.sub.Unsubscribe()
			observability.LogSpyRemoved(c.logger, err)
			c.report(&SpyError{Event: evt, Err: err})
		}
	}

	c.metrics.RecordTrigger(ctx, c.name, true)
	c.events.Next(evt)
	return nil
}

// Query returns a live stream of broadcast events selected by match. Every
// subscription is ended by Reset.
func (c *Channel[E]) Query(match Match[E]) stream.Stream[E] {
	if match == nil {
		return c.events.Stream()
	}
	return c.events.Where(match)
}

// Guard registers fn to run first on every matching event. A non-nil error
// aborts that Trigger. Unsubscribing removes the guard.
func (c *Channel[E]) Guard(match Match[E], fn func(E) error) *stream.Subscription {
	h := c.guards.Add(&guardEntry[E]{match: match, fn: fn})
	sub := &stream.Subscription{}
	sub.Add(func() { c.guards.Remove(h) })
	return sub
}

// Filter registers fn to run after the guards. It returns the event to pass
// on, which may differ from its input, or false to drop the event silently.
func (c *Channel[E]) Filter(match Match[E], fn func(E) (E, bool)) *stream.Subscription {
	h := c.filters.Add(&filterEntry[E]{match: match, fn: fn})
	sub := &stream.Subscription{}
	sub.Add(func() { c.filters.Remove(h) })
	return sub
}

// Spy registers fn to observe every matching event after the filters and
// before any Query subscriber. A spy that panics is removed.
func (c *Channel[E]) Spy(match Match[E], fn func(E)) *stream.Subscription {
	sub := &stream.Subscription{}
	h := c.spies.Add(&spyEntry[E]{match: match, fn: fn, sub: sub})
	sub.Add(func() { c.spies.Remove(h) })
	return sub
}

// Errors streams every task failure, every guard rejection that could not be
// returned to its caller, and every spy panic. It survives Reset.
func (c *Channel[E]) Errors() stream.Stream[error] {
	return c.errs.Stream()
}

func (c *Channel[E]) report(err error) {
	c.errs.Next(err)
}

// Reset ends every Query subscription and every listener. Their
// subscriptions report Closed immediately; running tasks are cancelled on the
// executor. Guards, filters and spies stay registered, and the channel
// accepts new subscriptions right away.
func (c *Channel[E]) Reset() {
	sinks := c.events.Detach()
	bindings := c.bindings.Drain()

	for _, sink := range sinks {
		sink.CompleteVia(&c.exec)
	}
	for _, b := range bindings {
		b.outer.Unsubscribe()
	}

	observability.LogReset(c.logger, len(sinks), len(bindings))
}
