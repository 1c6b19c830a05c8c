package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/voxrelay/webex-relay/internal/instrumentation"
)

const (
	// DefaultAddr is the default address for the relay server.
	DefaultAddr = ":8080"

	// DefaultReadHeaderTimeout bounds how long a client may take to send
	// request headers.
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultIdleTimeout is how long keep-alive connections stay open.
	DefaultIdleTimeout = 120 * time.Second
)

// Config holds configuration for the relay server.
type Config struct {
	// Addr is the address to bind to (e.g., ":8080").
	Addr string

	// Handler provides the relay endpoints.
	Handler *Handler

	// Metrics records HTTP request metrics. Optional.
	Metrics *instrumentation.Metrics

	// Logger overrides the logger. Defaults to slog.Default.
	Logger *slog.Logger
}

// Server is the relay's main HTTP server.
type Server struct {
	httpServer *http.Server
	health     *HealthChecker
	addr       string
	logger     *slog.Logger
}

// New creates the relay server with its endpoints, health checks, and
// request middleware mounted.
func New(cfg Config) (*Server, error) {
	if cfg.Handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &instrumentation.Metrics{}
	}

	health := NewHealthChecker()

	mux := http.NewServeMux()
	cfg.Handler.Register(mux)
	health.RegisterHealthEndpoints(mux)

	var handler http.Handler = mux
	handler = metricsMiddleware(cfg.Metrics, handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:    cfg.Addr,
			Handler: handler,
			// No ReadTimeout: audio stream uploads are long-lived
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			IdleTimeout:       DefaultIdleTimeout,
		},
		health: health,
		addr:   cfg.Addr,
		logger: cfg.Logger,
	}, nil
}

// Health returns the server's health checker.
func (s *Server) Health() *HealthChecker {
	return s.health
}

// Addr returns the address the server is bound to.
func (s *Server) Addr() string {
	return s.addr
}

// Start starts the relay server in a blocking manner.
// Call this in a goroutine if you need non-blocking operation.
func (s *Server) Start() error {
	return s.StartWithReadySignal(nil)
}

// StartWithReadySignal starts the relay server and closes ready once the
// listener is bound. Blocking, like Start.
func (s *Server) StartWithReadySignal(ready chan struct{}) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind relay listener: %w", err)
	}
	s.addr = listener.Addr().String()

	if ready != nil {
		close(ready)
	}

	s.logger.Info("starting relay server", "addr", s.addr)
	return s.httpServer.Serve(listener)
}

// Shutdown gracefully shuts down the relay server, marking it not ready so
// load balancers drain traffic first.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	s.health.SetShuttingDown()
	s.logger.Info("shutting down relay server")
	return s.httpServer.Shutdown(ctx)
}
