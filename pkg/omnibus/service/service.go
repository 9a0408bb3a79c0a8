package service

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/randalmurphal/omnibus/pkg/omnibus"
	"github.com/randalmurphal/omnibus/pkg/omnibus/action"
	"github.com/randalmurphal/omnibus/pkg/omnibus/policy"
	"github.com/randalmurphal/omnibus/pkg/omnibus/stream"
	"github.com/randalmurphal/omnibus/pkg/omnibus/task"
)

// Handler does the work for one request. The returned value may be anything
// task.From accepts; every value it produces must be a Res.
type Handler[Req any] func(ctx context.Context, req Req) (any, error)

// Config configures a Service.
type Config[Req, Res, S any] struct {
	// Namespace prefixes every protocol action type. Required.
	Namespace string

	// Handler runs once per request. Required.
	Handler Handler[Req]

	// Reducer builds the reducer that folds protocol actions into State.
	// It receives the service's ActionSet. Default: state never changes.
	Reducer func(ActionSet[Req, Res]) Reducer[S]

	// Initial seeds State unless the reducer implements InitialState.
	Initial S

	// Policy governs overlapping requests. Default: Parallel.
	Policy policy.Policy

	// Equal decides whether a reduced state is a change.
	// Default: reflect.DeepEqual
	Equal func(a, b S) bool

	// Logger receives service logs. Default: discarded.
	Logger *slog.Logger
}

// Service is a namespaced request protocol over one channel. It is safe for
// concurrent use.
type Service[Req, Res, S any] struct {
	ch      *omnibus.Channel[action.Action]
	ns      string
	acts    ActionSet[Req, Res]
	handler Handler[Req]
	logger  *slog.Logger

	generation atomic.Int64
	active     *stream.Value[bool]
	state      *stream.Value[S]

	listener  *stream.Subscription
	activeSub *stream.Subscription
	stateSub  *stream.Subscription

	mu        sync.Mutex
	stopped   bool
	done      chan struct{}
	teardowns []func()
}

// New starts a service on ch.
func New[Req, Res, S any](ch *omnibus.Channel[action.Action], cfg Config[Req, Res, S]) (*Service[Req, Res, S], error) {
	if ch == nil {
		return nil, &ConfigError{Field: "channel", Reason: "is nil"}
	}
	if cfg.Namespace == "" {
		return nil, &ConfigError{Field: "namespace", Reason: "is empty"}
	}
	if cfg.Handler == nil {
		return nil, &ConfigError{Field: "handler", Reason: "is nil"}
	}
	if !cfg.Policy.Valid() {
		return nil, &ConfigError{Field: "policy", Reason: cfg.Policy.String() + " is not a policy"}
	}

	acts := NewActionSet[Req, Res](cfg.Namespace)

	var reducer Reducer[S] = identity[S]{}
	if cfg.Reducer != nil {
		if r := cfg.Reducer(acts); r != nil {
			reducer = r
		}
	}
	initial := cfg.Initial
	if r, ok := reducer.(InitialState[S]); ok {
		initial = r.InitialState()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Service[Req, Res, S]{
		ch:      ch,
		ns:      cfg.Namespace,
		acts:    acts,
		handler: cfg.Handler,
		logger:  logger.With(slog.String("service", cfg.Namespace)),
		active:  stream.NewValue(false, nil),
		state:   stream.NewValue(initial, cfg.Equal),
		done:    make(chan struct{}),
	}

	inflight := 0
	s.activeSub = ch.Query(func(a action.Action) bool {
		return acts.Started.Match(a) || acts.Terminal(a)
	}).Subscribe(stream.Observer[action.Action]{
		Next: func(a action.Action) {
			if acts.Started.Match(a) {
				inflight++
			} else {
				inflight--
			}
			s.active.Set(inflight > 0)
		},
		// Only a channel reset completes a query; it leaves the service
		// without a listener, so it stops.
		Complete: s.Stop,
	})

	s.stateSub = ch.Query(acts.Match).Subscribe(stream.Observer[action.Action]{
		Next: func(a action.Action) {
			s.state.Set(reducer.Reduce(s.state.Get(), a))
		},
		Complete: s.state.Stop,
	})

	s.listener = omnibus.Listen(ch, acts.Request.Match, s.handle,
		omnibus.WithPolicy(cfg.Policy),
		omnibus.WithListenerName(cfg.Namespace),
		omnibus.WithObserver(omnibus.ObserveWith(ch, omnibus.Mapper[action.Action]{
			Subscribe: func(req action.Action) action.Action {
				p, _ := acts.Request.Payload(req)
				return reply(req, acts.Started.New(p))
			},
			Next: func(req action.Action, v any) action.Action {
				res, _ := v.(Res)
				return reply(req, acts.Next.New(res))
			},
			Error: func(req action.Action, err error) action.Action {
				return reply(req, acts.Error.New(err))
			},
			Complete: func(req action.Action) action.Action {
				return reply(req, acts.Complete.New())
			},
			Unsubscribe: func(req action.Action) action.Action {
				return reply(req, acts.Canceled.New())
			},
		})),
	)

	s.logger.Debug("service started", slog.String("policy", cfg.Policy.String()))
	return s, nil
}

// reply tags a protocol action with the request it answers.
func reply(req, a action.Action) action.Action {
	if id, ok := req.MetaString(MetaRequestID); ok {
		return a.WithMeta(MetaRequestID, id)
	}
	return a
}

func (s *Service[Req, Res, S]) handle(ctx context.Context, req action.Action) (any, error) {
	if gen, ok := req.Meta[MetaGeneration].(int64); ok && gen != s.generation.Load() {
		s.logger.Debug("skipping stale request",
			slog.Int64("generation", gen),
			slog.Int64("current", s.generation.Load()),
		)
		return nil, nil
	}

	payload, ok := s.acts.Request.Payload(req)
	if !ok {
		return nil, &PayloadTypeError{Action: req.Type, Want: typeName[Req](), Got: req.Payload}
	}

	result, err := s.handler(ctx, payload)
	if err != nil {
		return nil, err
	}

	src := s.typed(task.From(ctx, result, s.ch.Scheduler()))
	return stream.Interrupt(src, s.ch.Query(s.acts.Cancel.Match), omnibus.ErrTaskCanceled), nil
}

// typed fails the task on the first value that is not a Res.
func (s *Service[Req, Res, S]) typed(src stream.Stream[any]) stream.Stream[any] {
	return stream.New(func(out *stream.Sink[any]) func() {
		sub := src.Subscribe(stream.Observer[any]{
			Next: func(v any) {
				if _, ok := v.(Res); !ok {
					out.Error(&PayloadTypeError{Action: s.acts.Next.Type(), Want: typeName[Res](), Got: v})
					return
				}
				out.Next(v)
			},
			Error:    out.Error,
			Complete: out.Complete,
		})
		return sub.Unsubscribe
	})
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

func (s *Service[Req, Res, S]) newRequest(req Req) (action.Action, string) {
	id := uuid.NewString()
	a := s.acts.Request.New(req).
		WithMeta(MetaRequestID, id).
		WithMeta(MetaGeneration, s.generation.Load())
	return a, id
}

// Request triggers a request. The returned error is a guard rejection.
func (s *Service[Req, Res, S]) Request(req Req) error {
	a, _ := s.newRequest(req)
	return s.ch.Trigger(a)
}

// Cancel triggers the cancel action. The running task, if any, ends with
// canceled.
func (s *Service[Req, Res, S]) Cancel() error {
	return s.ch.Trigger(s.acts.Cancel.New())
}

// CancelCurrent is Cancel.
func (s *Service[Req, Res, S]) CancelCurrent() error {
	return s.Cancel()
}

// CancelCurrentAndQueued advances the cancel generation and then cancels.
// Requests issued before the call that have not started yet are skipped
// when their turn comes: they report started and complete, nothing else.
func (s *Service[Req, Res, S]) CancelCurrentAndQueued() error {
	gen := s.generation.Add(1)
	s.logger.Debug("cancel generation advanced", slog.Int64("generation", gen))
	return s.Cancel()
}

// Generation returns the current cancel generation.
func (s *Service[Req, Res, S]) Generation() int64 {
	return s.generation.Load()
}

// IsActive is true while any request is between started and its terminal
// action. It is finished with false by Stop or a channel reset, which stops
// the service.
func (s *Service[Req, Res, S]) IsActive() *stream.Value[bool] {
	return s.active
}

// State is the reducer's fold over every protocol action.
func (s *Service[Req, Res, S]) State() *stream.Value[S] {
	return s.state
}

type sendResult[Res any] struct {
	res Res
	err error
}

// Send requests req and waits for its first value. It fails with the
// protocol error, with ErrTaskCanceled, with ErrNoResult when the request
// completes without a value, or with ErrStopped.
//
// Send blocks the calling goroutine; never call it from a handler, observer
// or subscriber of the same channel.
func (s *Service[Req, Res, S]) Send(ctx context.Context, req Req) (Res, error) {
	var zero Res
	if s.Stopped() {
		return zero, ErrStopped
	}

	a, id := s.newRequest(req)
	done := make(chan sendResult[Res], 1)
	var once sync.Once
	settle := func(r sendResult[Res]) {
		once.Do(func() { done <- r })
	}

	sub := s.ch.Query(func(x action.Action) bool {
		got, _ := x.MetaString(MetaRequestID)
		return got == id && !s.acts.Request.Match(x)
	}).Subscribe(stream.Observer[action.Action]{
		Next: func(x action.Action) {
			switch {
			case s.acts.Next.Match(x):
				res, _ := s.acts.Next.Payload(x)
				settle(sendResult[Res]{res: res})
			case s.acts.Error.Match(x):
				err, _ := s.acts.Error.Payload(x)
				settle(sendResult[Res]{err: err})
			case s.acts.Canceled.Match(x):
				settle(sendResult[Res]{err: omnibus.ErrTaskCanceled})
			case s.acts.Complete.Match(x):
				settle(sendResult[Res]{err: ErrNoResult})
			}
		},
		Complete: func() { settle(sendResult[Res]{err: ErrStopped}) },
	})
	defer sub.Unsubscribe()

	if err := s.ch.Trigger(a); err != nil {
		return zero, err
	}

	select {
	case r := <-done:
		return r.res, r.err
	case <-s.done:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Events streams every protocol action of this service's namespace.
func (s *Service[Req, Res, S]) Events() stream.Stream[action.Action] {
	return s.ch.Query(s.acts.Match)
}

// Namespace returns the action namespace.
func (s *Service[Req, Res, S]) Namespace() string { return s.ns }

// Actions returns the service's action creators.
func (s *Service[Req, Res, S]) Actions() ActionSet[Req, Res] { return s.acts }

// Channel returns the channel the service listens and triggers on.
func (s *Service[Req, Res, S]) Channel() *omnibus.Channel[action.Action] { return s.ch }

// AddTeardown registers fn to run once when the service stops. After Stop,
// fn runs immediately.
func (s *Service[Req, Res, S]) AddTeardown(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		fn()
		return
	}
	s.teardowns = append(s.teardowns, fn)
	s.mu.Unlock()
}

// Stopped reports whether Stop has been called or the channel was reset.
func (s *Service[Req, Res, S]) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Stop removes the listener, cancelling any running request, and finishes
// IsActive and State. Neither emits again afterwards. A channel reset calls
// it. Safe to call more than once.
func (s *Service[Req, Res, S]) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	fns := s.teardowns
	s.teardowns = nil
	s.mu.Unlock()

	s.listener.Unsubscribe()
	s.activeSub.Unsubscribe()
	s.stateSub.Unsubscribe()
	s.active.Finish(false)
	s.state.Stop()
	close(s.done)

	for _, fn := range fns {
		fn()
	}
	s.logger.Debug("service stopped")
}
