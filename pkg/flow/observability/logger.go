// Package observability provides structured logging, metrics, and
// distributed tracing for the flow engine.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// Metrics and tracing are opt-in and have no-op implementations when
// disabled.
package observability

import (
	"log/slog"
)

// All log helpers are nil-safe: a nil logger disables the call site.

// LogRunStart logs the start of a flow run.
func LogRunStart(logger *slog.Logger, runID string) {
	if logger == nil {
		return
	}
	logger.Info("flow run starting",
		slog.String("run_id", runID),
	)
}

// LogRunComplete logs successful flow run completion.
func LogRunComplete(logger *slog.Logger, runID string, durationMs float64, steps int) {
	if logger == nil {
		return
	}
	logger.Info("flow run completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("steps", steps),
	)
}

// LogRunError logs flow run failure.
func LogRunError(logger *slog.Logger, runID string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("flow run failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNodeStart logs node execution start.
func LogNodeStart(logger *slog.Logger, nodeID string) {
	if logger == nil {
		return
	}
	logger.Debug("node starting",
		slog.String("node_id", nodeID),
	)
}

// LogNodeComplete logs successful node completion.
func LogNodeComplete(logger *slog.Logger, nodeID string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.String("node_id", nodeID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNodeError logs node execution failure.
func LogNodeError(logger *slog.Logger, nodeID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("node failed",
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
	)
}

// LogRetry logs a failed Exec attempt.
func LogRetry(logger *slog.Logger, nodeID string, attempt, maxRetries int, err error) {
	if logger == nil {
		return
	}
	logger.Warn("exec attempt failed",
		slog.String("node_id", nodeID),
		slog.Int("attempt", attempt),
		slog.Int("max_retries", maxRetries),
		slog.String("error", err.Error()),
	)
}

// LogFallback logs fallback invocation after retry exhaustion.
func LogFallback(logger *slog.Logger, nodeID string, execErr error) {
	if logger == nil {
		return
	}
	logger.Warn("retries exhausted, running fallback",
		slog.String("node_id", nodeID),
		slog.String("error", execErr.Error()),
	)
}

// LogRunLogError logs a run log recording failure (non-fatal).
func LogRunLogError(logger *slog.Logger, nodeID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("run log append failed",
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
	)
}
