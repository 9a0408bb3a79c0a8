package omnibus

// Mapper turns task lifecycle notifications into events. Each func receives
// the event that spawned the task; nil funcs produce nothing.
type Mapper[E any] struct {
	Subscribe   func(evt E) E
	Next        func(evt E, v any) E
	Error       func(evt E, err error) E
	Complete    func(evt E) E
	Unsubscribe func(evt E) E
}

// ObserveWith returns a TaskObserver that triggers the mapped event on c for
// every notification m has a func for. This is how a listener announces its
// tasks' progress back onto its own channel.
//
// Example:
//
//	omnibus.Listen(ch, isSearch, search, omnibus.WithObserver(omnibus.ObserveWith(ch, omnibus.Mapper[Event]{
//		Next:  func(_ Event, v any) Event { return Event{Kind: "result", Data: v} },
//		Error: func(_ Event, err error) Event { return Event{Kind: "failed", Data: err} },
//	})))
func ObserveWith[E any](c *Channel[E], m Mapper[E]) TaskObserver[E] {
	var o TaskObserver[E]
	if m.Subscribe != nil {
		o.Subscribe = func(evt E) { c.Trigger(m.Subscribe(evt)) }
	}
	if m.Next != nil {
		o.Next = func(evt E, v any) { c.Trigger(m.Next(evt, v)) }
	}
	if m.Error != nil {
		o.Error = func(evt E, err error) { c.Trigger(m.Error(evt, err)) }
	}
	if m.Complete != nil {
		o.Complete = func(evt E) { c.Trigger(m.Complete(evt)) }
	}
	if m.Unsubscribe != nil {
		o.Unsubscribe = func(evt E) { c.Trigger(m.Unsubscribe(evt)) }
	}
	return o
}

// ObserveAll returns a TaskObserver that triggers every value a task emits,
// provided the value is an E. Other values are ignored.
func ObserveAll[E any](c *Channel[E]) TaskObserver[E] {
	return TaskObserver[E]{
		Next: func(_ E, v any) {
			if evt, ok := v.(E); ok {
				c.Trigger(evt)
			}
		},
	}
}
