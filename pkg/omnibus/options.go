package omnibus

import (
	"context"
	"io"
	"log/slog"

	"github.com/randalmurphal/omnibus/pkg/omnibus/observability"
	"github.com/randalmurphal/omnibus/pkg/omnibus/policy"
)

// Option configures a Channel.
type Option func(*channelConfig)

type channelConfig struct {
	name    string
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	faults  *FaultLog
}

func defaultChannelConfig() channelConfig {
	return channelConfig{
		name:    "omnibus",
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// WithName names the channel in logs, metrics and spans.
func WithName(name string) Option {
	return func(c *channelConfig) {
		if name != "" {
			c.name = name
		}
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *channelConfig) {
		c.logger = logger
	}
}

// WithMetrics enables metrics recording.
//
// Example:
//
//	ch := omnibus.New[Event](omnibus.WithMetrics(observability.NewMetricsRecorder()))
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *channelConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithSpanManager enables tracing of tasks.
func WithSpanManager(sm observability.SpanManager) Option {
	return func(c *channelConfig) {
		if sm != nil {
			c.spans = sm
		}
	}
}

// WithFaultLog records every task failure in log.
func WithFaultLog(log *FaultLog) Option {
	return func(c *channelConfig) {
		c.faults = log
	}
}

// ListenOption configures a listener.
type ListenOption func(*listenConfig)

type listenConfig struct {
	name     string
	policy   policy.Policy
	observer any
	ctx      context.Context
}

// WithPolicy selects the listener's concurrency policy. Default: Parallel.
func WithPolicy(p policy.Policy) ListenOption {
	return func(c *listenConfig) {
		c.policy = p
	}
}

// WithObserver attaches lifecycle callbacks to every task the listener runs.
// The observer's event type must match the channel's.
func WithObserver[E any](o TaskObserver[E]) ListenOption {
	return func(c *listenConfig) {
		c.observer = o
	}
}

// WithListenerName names the listener in logs, metrics and spans.
func WithListenerName(name string) ListenOption {
	return func(c *listenConfig) {
		if name != "" {
			c.name = name
		}
	}
}

// WithContext sets the parent context of every task's context. Cancelling it
// cancels running tasks cooperatively.
func WithContext(ctx context.Context) ListenOption {
	return func(c *listenConfig) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}
