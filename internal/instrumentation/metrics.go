package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	attrMethod   = "method"
	attrPath     = "path"
	attrStatus   = "status"
	attrEndpoint = "endpoint"
	attrResult   = "result"
)

// Metrics provides methods for recording observability metrics.
// A zero-value Metrics is a valid no-op recorder; every method checks for
// uninitialized instruments before recording.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Webex API metrics
	webexAPIOperationsTotal   metric.Int64Counter
	webexAPIOperationDuration metric.Float64Histogram

	// OAuth metrics
	oauthExchangesTotal metric.Int64Counter

	// Audio stream metrics
	audioChunksTotal metric.Int64Counter
	audioStreamBytes metric.Int64Histogram
	activeStreams    metric.Int64UpDownCounter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	// HTTP Metrics
	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	// Webex API Metrics
	m.webexAPIOperationsTotal, err = meter.Int64Counter(
		"webex_api_operations_total",
		metric.WithDescription("Total number of outbound Webex API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create webex_api_operations_total counter: %w", err)
	}

	m.webexAPIOperationDuration, err = meter.Float64Histogram(
		"webex_api_operation_duration_seconds",
		metric.WithDescription("Webex API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create webex_api_operation_duration_seconds histogram: %w", err)
	}

	// OAuth Metrics
	m.oauthExchangesTotal, err = meter.Int64Counter(
		"oauth_exchanges_total",
		metric.WithDescription("Total number of OAuth authorization-code exchanges"),
		metric.WithUnit("{exchange}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth_exchanges_total counter: %w", err)
	}

	// Audio Stream Metrics
	m.audioChunksTotal, err = meter.Int64Counter(
		"audio_chunks_written_total",
		metric.WithDescription("Total number of audio chunk files written"),
		metric.WithUnit("{chunk}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio_chunks_written_total counter: %w", err)
	}

	m.audioStreamBytes, err = meter.Int64Histogram(
		"audio_stream_bytes",
		metric.WithDescription("Bytes consumed per inbound audio stream"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(1024, 16384, 65536, 262144, 1048576, 4194304, 16777216),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio_stream_bytes histogram: %w", err)
	}

	m.activeStreams, err = meter.Int64UpDownCounter(
		"active_audio_streams",
		metric.WithDescription("Number of audio streams currently being consumed"),
		metric.WithUnit("{stream}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active_audio_streams gauge: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordWebexAPIOperation records an outbound Webex API operation.
//
// Parameters:
//   - endpoint: Webex endpoint path (e.g. "/access_token", "/meetings", "/meetings/join")
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordWebexAPIOperation(ctx context.Context, endpoint, status string, duration time.Duration) {
	if m.webexAPIOperationsTotal == nil || m.webexAPIOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrEndpoint, endpoint),
		attribute.String(attrStatus, status),
	}

	m.webexAPIOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.webexAPIOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordOAuthExchange records an OAuth authorization-code exchange attempt with result.
// Result should be one of: "success", "failure"
func (m *Metrics) RecordOAuthExchange(ctx context.Context, result string) {
	if m.oauthExchangesTotal == nil {
		return // Instrumentation not initialized
	}

	m.oauthExchangesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrResult, result),
	))
}

// RecordAudioChunks records audio chunk files written to disk.
func (m *Metrics) RecordAudioChunks(ctx context.Context, count int) {
	if m.audioChunksTotal == nil || count <= 0 {
		return // Instrumentation not initialized
	}

	m.audioChunksTotal.Add(ctx, int64(count))
}

// RecordAudioStream records the total byte volume of a completed audio stream.
func (m *Metrics) RecordAudioStream(ctx context.Context, bytes int64) {
	if m.audioStreamBytes == nil {
		return // Instrumentation not initialized
	}

	m.audioStreamBytes.Record(ctx, bytes)
}

// IncrementActiveStreams increments the active audio stream counter.
func (m *Metrics) IncrementActiveStreams(ctx context.Context) {
	if m.activeStreams == nil {
		return // Instrumentation not initialized
	}

	m.activeStreams.Add(ctx, 1)
}

// DecrementActiveStreams decrements the active audio stream counter.
func (m *Metrics) DecrementActiveStreams(ctx context.Context) {
	if m.activeStreams == nil {
		return // Instrumentation not initialized
	}

	m.activeStreams.Add(ctx, -1)
}
