package service

import (
	"github.com/randalmurphal/omnibus/pkg/omnibus"
	"github.com/randalmurphal/omnibus/pkg/omnibus/action"
	"github.com/randalmurphal/omnibus/pkg/omnibus/stream"
)

// Standalone is a service with a private channel of its own. Besides the
// service methods it exposes the channel operations other code needs to
// extend the service: extra listeners, guards, filters and spies.
type Standalone[Req, Res, S any] struct {
	*Service[Req, Res, S]
	ch *omnibus.Channel[action.Action]
}

// NewStandalone creates a channel with opts and starts a service on it. The
// channel is named after the namespace unless opts name it.
func NewStandalone[Req, Res, S any](cfg Config[Req, Res, S], opts ...omnibus.Option) (*Standalone[Req, Res, S], error) {
	opts = append([]omnibus.Option{omnibus.WithName(cfg.Namespace)}, opts...)
	ch := omnibus.New[action.Action](opts...)

	svc, err := New(ch, cfg)
	if err != nil {
		return nil, err
	}
	return &Standalone[Req, Res, S]{Service: svc, ch: ch}, nil
}

// Trigger puts a on the channel.
func (s *Standalone[Req, Res, S]) Trigger(a action.Action) error {
	return s.ch.Trigger(a)
}

// Query streams the channel's actions selected by m.
func (s *Standalone[Req, Res, S]) Query(m action.Matcher) stream.Stream[action.Action] {
	return s.ch.Query(m)
}

// Listen adds a listener on the channel.
func (s *Standalone[Req, Res, S]) Listen(m action.Matcher, h omnibus.Handler[action.Action], opts ...omnibus.ListenOption) *stream.Subscription {
	return omnibus.Listen(s.ch, m, h, opts...)
}

// Guard adds a guard on the channel.
func (s *Standalone[Req, Res, S]) Guard(m action.Matcher, fn func(action.Action) error) *stream.Subscription {
	return s.ch.Guard(m, fn)
}

// Filter adds a filter on the channel.
func (s *Standalone[Req, Res, S]) Filter(m action.Matcher, fn func(action.Action) (action.Action, bool)) *stream.Subscription {
	return s.ch.Filter(m, fn)
}

// Spy adds a spy on the channel.
func (s *Standalone[Req, Res, S]) Spy(m action.Matcher, fn func(action.Action)) *stream.Subscription {
	return s.ch.Spy(m, fn)
}

// Errors streams the channel's task failures.
func (s *Standalone[Req, Res, S]) Errors() stream.Stream[error] {
	return s.ch.Errors()
}

// Reset resets the channel, which stops the service: teardowns run, IsActive
// and State are finished, and Send returns ErrStopped.
func (s *Standalone[Req, Res, S]) Reset() {
	s.ch.Reset()
}
