// Package action provides the {type, payload} event shape that services
// speak, typed creators for it, and matchers over it.
//
// Types are namespaced with a slash, as in "search/request". A Creator
// builds actions of one type and matches them back:
//
//	var Search = action.NewCreator[string]("search/request")
//
//	ch.Trigger(Search.New("gophers"))
//	omnibus.Listen(ch, Search.Match, handler)
package action

import (
	"maps"
	"strings"
)

// Action is one event on a service channel.
type Action struct {
	Type    string         `json:"type"`
	Payload any            `json:"payload,omitempty"`
	Error   bool           `json:"error,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Namespace returns the part of the type before the last slash, or "" when
// the type has none.
func (a Action) Namespace() string {
	i := strings.LastIndexByte(a.Type, '/')
	if i < 0 {
		return ""
	}
	return a.Type[:i]
}

// WithMeta returns a copy of a with key set in its metadata. The receiver's
// map is not modified.
func (a Action) WithMeta(key string, value any) Action {
	meta := make(map[string]any, len(a.Meta)+1)
	maps.Copy(meta, a.Meta)
	meta[key] = value
	a.Meta = meta
	return a
}

// MetaString returns the string metadata under key.
func (a Action) MetaString(key string) (string, bool) {
	s, ok := a.Meta[key].(string)
	return s, ok
}

// Creator builds and recognizes actions of one type carrying a P payload.
type Creator[P any] struct {
	typ     string
	isError bool
}

// NewCreator returns a creator for typ.
func NewCreator[P any](typ string) Creator[P] {
	return Creator[P]{typ: typ}
}

// NewErrorCreator returns a creator for typ whose actions carry an error and
// have Error set.
func NewErrorCreator(typ string) Creator[error] {
	return Creator[error]{typ: typ, isError: true}
}

// Type returns the action type.
func (c Creator[P]) Type() string { return c.typ }

// New returns an action carrying p.
func (c Creator[P]) New(p P) Action {
	return Action{Type: c.typ, Payload: p, Error: c.isError}
}

// Match reports whether a has this creator's type.
func (c Creator[P]) Match(a Action) bool {
	return a.Type == c.typ
}

// Payload extracts the payload of a, reporting false when a has another
// type or its payload is not a P.
func (c Creator[P]) Payload(a Action) (P, bool) {
	var zero P
	if a.Type != c.typ {
		return zero, false
	}
	if a.Payload == nil {
		return zero, true
	}
	p, ok := a.Payload.(P)
	return p, ok
}

// Signal builds and recognizes payload-less actions of one type.
type Signal struct {
	typ string
}

// NewSignal returns a signal for typ.
func NewSignal(typ string) Signal {
	return Signal{typ: typ}
}

// Type returns the action type.
func (s Signal) Type() string { return s.typ }

// New returns the signal's action.
func (s Signal) New() Action {
	return Action{Type: s.typ}
}

// Match reports whether a has this signal's type.
func (s Signal) Match(a Action) bool {
	return a.Type == s.typ
}
