package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanManager creates and finishes spans around runs and nodes.
type SpanManager interface {
	// StartTurnSpan starts the root span for a graph run.
	StartTurnSpan(ctx context.Context, session string) (context.Context, trace.Span)

	// StartNodeSpan starts a child span for one node execution.
	StartNodeSpan(ctx context.Context, nodeID string) (context.Context, trace.Span)

	// EndSpan finishes a span, recording err when non-nil.
	EndSpan(span trace.Span, err error)
}

type otelSpans struct {
	tracer trace.Tracer
}

// NewSpanManager returns a SpanManager backed by the global OTel
// tracer provider.
func NewSpanManager() SpanManager {
	return &otelSpans{tracer: otel.Tracer("tutorgraph")}
}

// StartTurnSpan implements SpanManager.
func (s *otelSpans) StartTurnSpan(ctx context.Context, session string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "tutorgraph.turn",
		trace.WithAttributes(attribute.String("session", session)))
}

// StartNodeSpan implements SpanManager.
func (s *otelSpans) StartNodeSpan(ctx context.Context, nodeID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "tutorgraph.node",
		trace.WithAttributes(attribute.String("node", nodeID)))
}

// EndSpan implements SpanManager.
func (s *otelSpans) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
