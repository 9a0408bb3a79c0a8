package service

import (
	"github.com/randalmurphal/omnibus/pkg/omnibus/action"
)

// Metadata keys set on protocol actions.
const (
	// MetaRequestID correlates a request with the actions its task produces.
	MetaRequestID = "request_id"

	// MetaGeneration is the cancel generation a request was issued under.
	MetaGeneration = "generation"
)

// ActionSet is the seven action creators of one namespace.
type ActionSet[Req, Res any] struct {
	Request  action.Creator[Req]
	Cancel   action.Signal
	Started  action.Creator[Req]
	Next     action.Creator[Res]
	Error    action.Creator[error]
	Complete action.Signal
	Canceled action.Signal
}

// NewActionSet returns the creators for ns/request through ns/canceled.
func NewActionSet[Req, Res any](ns string) ActionSet[Req, Res] {
	return ActionSet[Req, Res]{
		Request:  action.NewCreator[Req](ns + "/request"),
		Cancel:   action.NewSignal(ns + "/cancel"),
		Started:  action.NewCreator[Req](ns + "/started"),
		Next:     action.NewCreator[Res](ns + "/next"),
		Error:    action.NewErrorCreator(ns + "/error"),
		Complete: action.NewSignal(ns + "/complete"),
		Canceled: action.NewSignal(ns + "/canceled"),
	}
}

// Types returns the seven action types in protocol order.
func (s ActionSet[Req, Res]) Types() []string {
	return []string{
		s.Request.Type(),
		s.Cancel.Type(),
		s.Started.Type(),
		s.Next.Type(),
		s.Error.Type(),
		s.Complete.Type(),
		s.Canceled.Type(),
	}
}

// Match reports whether a is one of the set's actions.
func (s ActionSet[Req, Res]) Match(a action.Action) bool {
	switch a.Type {
	case s.Request.Type(), s.Cancel.Type(), s.Started.Type(), s.Next.Type(),
		s.Error.Type(), s.Complete.Type(), s.Canceled.Type():
		return true
	}
	return false
}

// Terminal reports whether a ends a request: complete, error or canceled.
func (s ActionSet[Req, Res]) Terminal(a action.Action) bool {
	return s.Complete.Match(a) || s.Error.Match(a) || s.Canceled.Match(a)
}
