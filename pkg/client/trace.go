package client

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "tensorgrid"

// startCallSpan opens a client span around a platform call. The global
// tracer provider is used; with none configured the span is a no-op.
func startCallSpan(ctx context.Context, transport, method string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "tensorgrid.call",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("tensorgrid.transport", transport),
			attribute.String("tensorgrid.method", method),
		),
	)
}

// finishCallSpan records the call outcome on the span. Context
// cancellation is marked as an error without recording it as an
// exception.
func finishCallSpan(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		span.SetAttributes(attribute.String("tensorgrid.error_code", apiErr.Code))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
