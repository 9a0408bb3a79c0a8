package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Task outcomes reported to RecordTask.
const (
	OutcomeComplete = "complete"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
)

// MetricsRecorder records omnibus metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordTrigger records one event entering a channel and whether the
	// pipeline let it through.
	RecordTrigger(ctx context.Context, channel string, delivered bool)

	// RecordTask records a task reaching a terminal state.
	RecordTask(ctx context.Context, listener, outcome string, duration time.Duration)

	// RecordDrop records an event a policy discarded.
	RecordDrop(ctx context.Context, listener, policy string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	triggers    metric.Int64Counter
	tasks       metric.Int64Counter
	taskLatency metric.Float64Histogram
	taskErrors  metric.Int64Counter
	drops       metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("omnibus")

	triggers, err := meter.Int64Counter("omnibus.channel.triggers",
		metric.WithDescription("Number of events triggered on a channel"),
	)
	if err != nil {
		return nil, err
	}

	tasks, err := meter.Int64Counter("omnibus.task.runs",
		metric.WithDescription("Number of tasks that reached a terminal state"),
	)
	if err != nil {
		return nil, err
	}

	taskLatency, err := meter.Float64Histogram("omnibus.task.latency_ms",
		metric.WithDescription("Task lifetime in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	taskErrors, err := meter.Int64Counter("omnibus.task.errors",
		metric.WithDescription("Number of tasks that failed"),
	)
	if err != nil {
		return nil, err
	}

	drops, err := meter.Int64Counter("omnibus.listener.drops",
		metric.WithDescription("Number of events discarded by a concurrency policy"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		triggers:    triggers,
		tasks:       tasks,
		taskLatency: taskLatency,
		taskErrors:  taskErrors,
		drops:       drops,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordTrigger records a triggered event.
func (m *otelMetrics) RecordTrigger(ctx context.Context, channel string, delivered bool) {
	m.triggers.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.Bool("delivered", delivered),
	))
}

// RecordTask records a finished task.
func (m *otelMetrics) RecordTask(ctx context.Context, listener, outcome string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("listener", listener),
		attribute.String("outcome", outcome),
	}

	m.tasks.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.taskLatency.Record(ctx, float64(duration.Microseconds())/1000, metric.WithAttributes(attrs...))

	if outcome == OutcomeError {
		m.taskErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("listener", listener)))
	}
}

// RecordDrop records a discarded event.
func (m *otelMetrics) RecordDrop(ctx context.Context, listener, policy string) {
	m.drops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("listener", listener),
		attribute.String("policy", policy),
	))
}
