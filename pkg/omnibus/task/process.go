package task

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/randalmurphal/omnibus/pkg/omnibus/stream"
)

// Notifier receives a Process's notifications. It may be called from any
// goroutine.
type Notifier interface {
	Next(v any)
	Error(err error)
	Complete()
}

// Process is external cancellable work. Subscribe starts it; Unsubscribe is
// invoked exactly once when the task is torn down, whether it finished or was
// cancelled, and must release whatever the process holds.
type Process interface {
	Subscribe(n Notifier)
	Unsubscribe()
}

// Starter is reusable work. Every Start begins an independent run and
// returns that run's stop function, which may be nil. From runs a Starter
// with Start, once per task, so a single value can back overlapping tasks.
type Starter interface {
	Start(n Notifier) (stop func())
}

// NewProcess builds a Process from a start function returning its stop
// function. The result is also a Starter: tasks adapted by From call start
// once each and keep their own stop function.
func NewProcess(start func(n Notifier) (stop func())) Process {
	return &funcProcess{start: start}
}

type funcProcess struct {
	start func(Notifier) func()
	mu    sync.Mutex
	stop  func()
}

func (p *funcProcess) Start(n Notifier) func() {
	return p.start(n)
}

// Subscribe and Unsubscribe serve callers driving the process directly; they
// track a single run.
func (p *funcProcess) Subscribe(n Notifier) {
	stop := p.start(n)
	p.mu.Lock()
	p.stop = stop
	p.mu.Unlock()
}

func (p *funcProcess) Unsubscribe() {
	p.mu.Lock()
	stop := p.stop
	p.stop = nil
	p.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func fromStarter(st Starter, sched stream.Scheduler) stream.Stream[any] {
	return stream.New(func(s *stream.Sink[any]) func() {
		return st.Start(&scheduledNotifier{sink: s, sched: sched})
	})
}

func fromProcess(p Process, sched stream.Scheduler) stream.Stream[any] {
	if st, ok := p.(Starter); ok {
		return fromStarter(st, sched)
	}
	return stream.New(func(s *stream.Sink[any]) func() {
		p.Subscribe(&scheduledNotifier{sink: s, sched: sched})
		return p.Unsubscribe
	})
}

type scheduledNotifier struct {
	sink  *stream.Sink[any]
	sched stream.Scheduler
}

func (n *scheduledNotifier) Next(v any) {
	n.sched.Schedule(func() { n.sink.Next(v) })
}

func (n *scheduledNotifier) Error(err error) {
	n.sched.Schedule(func() { n.sink.Error(err) })
}

func (n *scheduledNotifier) Complete() {
	n.sched.Schedule(n.sink.Complete)
}

// PanicError is a panic recovered from user code.
type PanicError struct {
	Value any
	Stack string
}

// Error implements error.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Invoke calls fn, converting a panic into a *PanicError.
func Invoke(fn func() (any, error)) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return fn()
}
