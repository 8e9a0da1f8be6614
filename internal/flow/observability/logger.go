// Package observability provides structured logging, metrics, and
// tracing for graph execution. Logging uses slog; metrics and tracing
// use OpenTelemetry and are opt-in with no-op defaults.
package observability

import (
	"log/slog"
)

// LogTurnStart logs the start of a graph run.
func LogTurnStart(logger *slog.Logger, session string) {
	if logger == nil {
		return
	}
	logger.Info("turn starting", slog.String("session", session))
}

// LogTurnComplete logs successful completion of a run.
func LogTurnComplete(logger *slog.Logger, session string, durationMs float64, nodeCount int) {
	if logger == nil {
		return
	}
	logger.Info("turn completed",
		slog.String("session", session),
		slog.Float64("duration_ms", durationMs),
		slog.Int("nodes_executed", nodeCount),
	)
}

// LogTurnSuspended logs a run that halted at a suspend point.
func LogTurnSuspended(logger *slog.Logger, session, nodeID string) {
	if logger == nil {
		return
	}
	logger.Info("turn suspended",
		slog.String("session", session),
		slog.String("node", nodeID),
	)
}

// LogTurnError logs a failed run.
func LogTurnError(logger *slog.Logger, session string, err error, durationMs float64, lastNode string) {
	if logger == nil {
		return
	}
	logger.Error("turn failed",
		slog.String("session", session),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("last_node", lastNode),
	)
}

// LogNodeStart logs node execution start.
func LogNodeStart(logger *slog.Logger, nodeID string) {
	if logger == nil {
		return
	}
	logger.Debug("node starting", slog.String("node", nodeID))
}

// LogNodeComplete logs successful node completion.
func LogNodeComplete(logger *slog.Logger, nodeID string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.String("node", nodeID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNodeError logs a node failure.
func LogNodeError(logger *slog.Logger, nodeID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("node failed",
		slog.String("node", nodeID),
		slog.String("error", err.Error()),
	)
}

// LogCheckpoint logs a saved checkpoint.
func LogCheckpoint(logger *slog.Logger, nodeID string, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("checkpoint saved",
		slog.String("node", nodeID),
		slog.Int("size_bytes", sizeBytes),
	)
}
