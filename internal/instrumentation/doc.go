// Package instrumentation provides OpenTelemetry-based observability for
// webex-relay.
//
// It wires a meter provider (Prometheus, OTLP, or stdout exporters) and an
// optional tracer provider, and exposes a Metrics recorder with the counters
// and histograms the relay cares about:
//
//   - HTTP request counts and durations per method/path/status
//   - Webex API operation counts and durations per endpoint/status
//   - OAuth code-exchange outcomes
//   - Audio stream chunk counts and byte volumes
//
// Instrumentation is enabled by default and can be disabled entirely with
// INSTRUMENTATION_ENABLED=false, in which case all Metrics methods are no-ops.
package instrumentation
