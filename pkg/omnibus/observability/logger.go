// Package observability provides logging, metrics, and tracing for omnibus
// channels and the tasks their listeners run.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds channel and listener fields to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, "ui", "search")
//	enriched.Info("doing work") // includes channel, listener
func EnrichLogger(logger *slog.Logger, channel, listener string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("channel", channel),
		slog.String("listener", listener),
	)
}

// LogTaskStart logs a task starting under a listener.
func LogTaskStart(logger *slog.Logger, taskID string) {
	if logger == nil {
		return
	}
	logger.Debug("task starting",
		slog.String("task_id", taskID),
	)
}

// LogTaskComplete logs a task that completed normally.
func LogTaskComplete(logger *slog.Logger, taskID string, durationMs float64, values int) {
	if logger == nil {
		return
	}
	logger.Debug("task completed",
		slog.String("task_id", taskID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("values", values),
	)
}

// LogTaskError logs a task failure.
func LogTaskError(logger *slog.Logger, taskID string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("task failed",
		slog.String("task_id", taskID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogTaskCanceled logs a task torn down before it finished.
func LogTaskCanceled(logger *slog.Logger, taskID string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("task canceled",
		slog.String("task_id", taskID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogGuardRejected logs a guard that refused an event.
func LogGuardRejected(logger *slog.Logger, err error) {
	if logger == nil {
		return
	}
	logger.Debug("guard rejected event",
		slog.String("error", err.Error()),
	)
}

// LogFilterVeto logs an event dropped by a filter.
func LogFilterVeto(logger *slog.Logger) {
	if logger == nil {
		return
	}
	logger.Debug("filter vetoed event")
}

// LogSpyRemoved logs a spy unregistered after it panicked.
func LogSpyRemoved(logger *slog.Logger, err error) {
	if logger == nil {
		return
	}
	logger.Warn("spy panicked and was removed",
		slog.String("error", err.Error()),
	)
}

// LogEventDropped logs an event a policy discarded without running.
func LogEventDropped(logger *slog.Logger, policy string) {
	if logger == nil {
		return
	}
	logger.Debug("event dropped by policy",
		slog.String("policy", policy),
	)
}

// LogReset logs a channel reset.
func LogReset(logger *slog.Logger, queries, listeners int) {
	if logger == nil {
		return
	}
	logger.Info("channel reset",
		slog.Int("queries_closed", queries),
		slog.Int("listeners_closed", listeners),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
