package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the default tracer name for the webex-relay package.
const TracerName = "github.com/voxrelay/webex-relay"

// Span attribute keys for operations.
const (
	// SpanAttrEndpoint is the relay endpoint path attribute.
	SpanAttrEndpoint = "relay.endpoint"

	// SpanAttrOperation is the Webex API operation attribute.
	SpanAttrOperation = "webex.operation"

	// SpanAttrUpstreamStatus is the HTTP status code returned by Webex.
	SpanAttrUpstreamStatus = "webex.status_code"

	// SpanAttrStreamID is the per-request audio stream identifier.
	SpanAttrStreamID = "audio.stream_id"

	// SpanAttrChunks is the number of chunk files an audio stream produced.
	SpanAttrChunks = "audio.chunks"
)

// StartEndpointSpan starts a span for an inbound relay endpoint request.
// Automatically adds the endpoint attribute and sets server span kind.
func StartEndpointSpan(ctx context.Context, endpoint string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrEndpoint, endpoint))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "relay."+endpoint,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartWebexAPISpan starts a span for outbound Webex API operations.
// Includes the operation attribute and sets client span kind.
func StartWebexAPISpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrOperation, operation))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "webex."+operation,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}
