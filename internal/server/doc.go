// Package server provides the HTTP surface of the relay.
//
// It contains the endpoint handlers for the OAuth flow, meeting operations,
// and audio stream ingestion, plus the supporting servers: the main relay
// server with graceful shutdown, a dedicated Prometheus metrics server, and
// health check endpoints for Kubernetes probes.
//
// Errors leave the relay as structured JSON objects with a stable error
// kind; upstream provider failures additionally carry the provider's status
// code and response body.
package server
