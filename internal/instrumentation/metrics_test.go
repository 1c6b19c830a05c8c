package instrumentation

import (
	"context"
	"testing"
	"time"
)

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	metrics := provider.Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}

	// Should not panic
	metrics.RecordHTTPRequest(ctx, "GET", "/webex/token", 200, 100*time.Millisecond)
	metrics.RecordHTTPRequest(ctx, "POST", "/webex/join-link", 401, 50*time.Millisecond)
}

func TestMetrics_RecordWebexAPIOperation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	metrics := provider.Metrics()

	// Should not panic
	metrics.RecordWebexAPIOperation(ctx, "/access_token", StatusSuccess, 200*time.Millisecond)
	metrics.RecordWebexAPIOperation(ctx, "/meetings", StatusError, 500*time.Millisecond)
	metrics.RecordWebexAPIOperation(ctx, "/meetings/join", StatusSuccess, 100*time.Millisecond)
}

func TestMetrics_RecordOAuthExchange(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	metrics := provider.Metrics()

	// Should not panic
	metrics.RecordOAuthExchange(ctx, OAuthResultSuccess)
	metrics.RecordOAuthExchange(ctx, OAuthResultFailure)
}

func TestMetrics_AudioStream(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	metrics := provider.Metrics()

	// Should not panic
	metrics.IncrementActiveStreams(ctx)
	metrics.RecordAudioChunks(ctx, 4)
	metrics.RecordAudioStream(ctx, 25000)
	metrics.DecrementActiveStreams(ctx)
}

func TestMetrics_NoOp_WhenDisabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        false,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	metrics := provider.Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil even when disabled")
	}

	// All these should not panic even with nil underlying metrics
	metrics.RecordHTTPRequest(ctx, "GET", "/webex/token", 200, 100*time.Millisecond)
	metrics.RecordWebexAPIOperation(ctx, "/meetings", StatusSuccess, 200*time.Millisecond)
	metrics.RecordOAuthExchange(ctx, OAuthResultSuccess)
	metrics.RecordAudioChunks(ctx, 1)
	metrics.RecordAudioStream(ctx, 4096)
	metrics.IncrementActiveStreams(ctx)
	metrics.DecrementActiveStreams(ctx)
}
