package task

import (
	"context"
	"time"
)

// Human-perception thresholds, useful as task durations in demos and tests.
const (
	ThresholdFrame           = 16 * time.Millisecond
	ThresholdFrame90         = 11 * time.Millisecond
	ThresholdUnison          = 10 * time.Millisecond
	ThresholdChorus          = 25 * time.Millisecond
	ThresholdMovieFrame      = 42 * time.Millisecond
	ThresholdEcho            = 100 * time.Millisecond
	ThresholdBlink           = 150 * time.Millisecond
	ThresholdTypingKey90     = 150 * time.Millisecond
	ThresholdAnimationShort  = 200 * time.Millisecond
	ThresholdTypingKey48     = 250 * time.Millisecond
	ThresholdDebounce        = 330 * time.Millisecond
	ThresholdTypingKeyMobile = 330 * time.Millisecond
	ThresholdAnimationLong   = 400 * time.Millisecond
	ThresholdEDMBeat         = 500 * time.Millisecond
	ThresholdThought         = 1000 * time.Millisecond
	ThresholdPageLoadMax     = 2000 * time.Millisecond
	ThresholdDeepBreath      = 4000 * time.Millisecond
	ThresholdSentence        = 5000 * time.Millisecond
)

// Delay is a lazy, cancellable delayed value. See After. A Delay holds no
// run state, so one value may back any number of tasks at once.
type Delay struct {
	d     time.Duration
	value func() any
}

var _ Starter = (*Delay)(nil)

// After returns a task that emits v once d has elapsed, then completes. If v
// is a func() any it is called when the delay fires and its result emitted.
// A nil result completes without a value.
//
// Nothing is scheduled until the task is subscribed, and tearing the task
// down stops the timer. With d <= 0 the value is produced synchronously on
// subscribe.
func After(d time.Duration, v any) *Delay {
	value, ok := v.(func() any)
	if !ok {
		value = func() any { return v }
	}
	return &Delay{d: d, value: value}
}

// Duration returns the configured delay.
func (p *Delay) Duration() time.Duration { return p.d }

// Start begins one run and returns the function that stops its timer.
func (p *Delay) Start(n Notifier) func() {
	fire := func() {
		if v := p.value(); v != nil {
			n.Next(v)
		}
		n.Complete()
	}
	if p.d <= 0 {
		fire()
		return nil
	}
	t := time.AfterFunc(p.d, fire)
	return func() { t.Stop() }
}

// Wait blocks for the delay and returns the value, or ctx's error if it ends
// first. It lets a Delay be awaited outside a channel.
func (p *Delay) Wait(ctx context.Context) (any, error) {
	if p.d <= 0 {
		return p.value(), nil
	}
	t := time.NewTimer(p.d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.C:
		return p.value(), nil
	}
}
