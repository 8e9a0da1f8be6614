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

// MetricsRecorder records graph execution metrics. Use NewMetrics for
// the OpenTelemetry implementation or NoopMetrics when disabled.
type MetricsRecorder interface {
	// RecordNodeExecution records one node execution with duration and
	// error status.
	RecordNodeExecution(ctx context.Context, nodeID string, duration time.Duration, err error)

	// RecordTurn records a completed graph run. A suspended run counts
	// as a success.
	RecordTurn(ctx context.Context, success bool, duration time.Duration)

	// RecordCheckpoint records a checkpoint save.
	RecordCheckpoint(ctx context.Context, nodeID string, sizeBytes int64)
}

type otelMetrics struct {
	nodeExecutions metric.Int64Counter
	nodeLatency    metric.Float64Histogram
	nodeErrors     metric.Int64Counter
	turns          metric.Int64Counter
	turnLatency    metric.Float64Histogram
	checkpointSize metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("tutorgraph")

	nodeExecutions, err := meter.Int64Counter("tutorgraph.node.executions",
		metric.WithDescription("Number of node executions"))
	if err != nil {
		return nil, err
	}
	nodeLatency, err := meter.Float64Histogram("tutorgraph.node.latency_ms",
		metric.WithDescription("Node execution latency in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	nodeErrors, err := meter.Int64Counter("tutorgraph.node.errors",
		metric.WithDescription("Number of node execution errors"))
	if err != nil {
		return nil, err
	}
	turns, err := meter.Int64Counter("tutorgraph.turns",
		metric.WithDescription("Number of agent turns"))
	if err != nil {
		return nil, err
	}
	turnLatency, err := meter.Float64Histogram("tutorgraph.turn.latency_ms",
		metric.WithDescription("Agent turn latency in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	checkpointSize, err := meter.Int64Histogram("tutorgraph.checkpoint.size_bytes",
		metric.WithDescription("Checkpoint size in bytes"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		nodeExecutions: nodeExecutions,
		nodeLatency:    nodeLatency,
		nodeErrors:     nodeErrors,
		turns:          turns,
		turnLatency:    turnLatency,
		checkpointSize: checkpointSize,
	}, nil
}

// NewMetrics returns a MetricsRecorder backed by the global OTel meter
// provider. Configure the provider before calling. Falls back to a
// no-op recorder if instrument creation fails.
func NewMetrics() MetricsRecorder {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	if defaultMetricsErr != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", defaultMetricsErr.Error()))
		return NoopMetrics{}
	}
	return defaultMetrics
}

// RecordNodeExecution implements MetricsRecorder.
func (m *otelMetrics) RecordNodeExecution(ctx context.Context, nodeID string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("node", nodeID))
	m.nodeExecutions.Add(ctx, 1, attrs)
	m.nodeLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	if err != nil {
		m.nodeErrors.Add(ctx, 1, attrs)
	}
}

// RecordTurn implements MetricsRecorder.
func (m *otelMetrics) RecordTurn(ctx context.Context, success bool, duration time.Duration) {
	m.turns.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	m.turnLatency.Record(ctx, float64(duration.Milliseconds()))
}

// RecordCheckpoint implements MetricsRecorder.
func (m *otelMetrics) RecordCheckpoint(ctx context.Context, nodeID string, sizeBytes int64) {
	m.checkpointSize.Record(ctx, sizeBytes,
		metric.WithAttributes(attribute.String("node", nodeID)))
}
