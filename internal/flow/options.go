package flow

import (
	"github.com/tutorgraph/tutorgraph/internal/flow/checkpoint"
	"github.com/tutorgraph/tutorgraph/internal/flow/observability"
)

// runConfig holds per-run execution settings.
type runConfig struct {
	maxIterations int
	store         checkpoint.Store
	sequence      int
	metrics       observability.MetricsRecorder
	spans         observability.SpanManager
}

func defaultRunConfig() runConfig {
	return runConfig{
		maxIterations: 100,
		metrics:       observability.NoopMetrics{},
		spans:         observability.NoopSpans{},
	}
}

// RunOption configures Run and Resume.
type RunOption func(*runConfig)

// WithMaxIterations caps the number of node executions per run.
// Guards against routing loops that never reach END. Default: 100.
func WithMaxIterations(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithCheckpointing persists a checkpoint after every node, keyed by
// the context's session key.
func WithCheckpointing(store checkpoint.Store) RunOption {
	return func(c *runConfig) {
		c.store = store
	}
}

// WithMetrics records execution metrics through the given recorder.
func WithMetrics(m observability.MetricsRecorder) RunOption {
	return func(c *runConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing wraps the run and each node in OpenTelemetry spans.
func WithTracing() RunOption {
	return func(c *runConfig) {
		c.spans = observability.NewSpanManager()
	}
}
