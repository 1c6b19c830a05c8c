package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxrelay/webex-relay/internal/auth"
	"github.com/voxrelay/webex-relay/internal/instrumentation"
	"github.com/voxrelay/webex-relay/internal/server"
	"github.com/voxrelay/webex-relay/internal/webex"
)

// ServeConfig holds the relay server settings.
type ServeConfig struct {
	Debug    bool
	HTTPAddr string

	// Webex OAuth application credentials
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        string

	// WebexAPIURL overrides the Webex API base URL. Empty means production.
	WebexAPIURL string

	// ChunkDir is where audio chunk directories are created
	ChunkDir string

	Metrics MetricsConfig
}

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var config ServeConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Webex relay server",
		Long: `Start the HTTP relay server.

The relay exposes the Webex OAuth login and callback endpoints, caches the
access token it obtains, and forwards meeting-creation and join-link
requests to the Webex REST API on behalf of clients. It also accepts raw
audio streams and buffers them into rotating chunk files on disk.

OAuth Configuration:
  The Webex integration credentials are required:
    --client-id and --client-secret flags
    OR WEBEX_CLIENT_ID and WEBEX_CLIENT_SECRET env vars
  The redirect URI must match the one registered with the integration:
    --redirect-uri flag OR WEBEX_REDIRECT_URI env var`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadServeEnvVars(cmd, &config)
			return runServe(config)
		},
	}

	cmd.Flags().BoolVar(&config.Debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&config.HTTPAddr, "http-addr", server.DefaultAddr, "HTTP server address")
	cmd.Flags().StringVar(&config.ClientID, "client-id", "", "Webex integration client ID. Can also use WEBEX_CLIENT_ID env var.")
	cmd.Flags().StringVar(&config.ClientSecret, "client-secret", "", "Webex integration client secret. Can also use WEBEX_CLIENT_SECRET env var.")
	cmd.Flags().StringVar(&config.RedirectURI, "redirect-uri", "", "OAuth redirect URI registered with the Webex integration. Can also use WEBEX_REDIRECT_URI env var.")
	cmd.Flags().StringVar(&config.Scope, "scope", "spark:all", "OAuth scopes requested during login. Can also use WEBEX_SCOPE env var.")
	cmd.Flags().StringVar(&config.WebexAPIURL, "webex-api-url", "", "Webex API base URL override, mainly for testing. Can also use WEBEX_API_URL env var.")
	cmd.Flags().StringVar(&config.ChunkDir, "chunk-dir", "audio-chunks", "Directory audio chunk files are written to. Can also use AUDIO_CHUNK_DIR env var.")

	// Metrics server flags
	cmd.Flags().BoolVar(&config.Metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&config.Metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// loadServeEnvVars fills in settings from environment variables. Environment
// variables only apply when the corresponding flag was not explicitly set.
func loadServeEnvVars(cmd *cobra.Command, config *ServeConfig) {
	if !cmd.Flags().Changed("client-id") {
		if v := os.Getenv("WEBEX_CLIENT_ID"); v != "" {
			config.ClientID = v
		}
	}
	if !cmd.Flags().Changed("client-secret") {
		if v := os.Getenv("WEBEX_CLIENT_SECRET"); v != "" {
			config.ClientSecret = v
		}
	}
	if !cmd.Flags().Changed("redirect-uri") {
		if v := os.Getenv("WEBEX_REDIRECT_URI"); v != "" {
			config.RedirectURI = v
		}
	}
	if !cmd.Flags().Changed("scope") {
		if v := os.Getenv("WEBEX_SCOPE"); v != "" {
			config.Scope = v
		}
	}
	if !cmd.Flags().Changed("webex-api-url") {
		if v := os.Getenv("WEBEX_API_URL"); v != "" {
			config.WebexAPIURL = v
		}
	}
	if !cmd.Flags().Changed("chunk-dir") {
		if v := os.Getenv("AUDIO_CHUNK_DIR"); v != "" {
			config.ChunkDir = v
		}
	}
	if !cmd.Flags().Changed("metrics-enabled") {
		if os.Getenv("METRICS_ENABLED") == "false" {
			config.Metrics.Enabled = false
		}
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if v := os.Getenv("METRICS_ADDR"); v != "" {
			config.Metrics.Addr = v
		}
	}
}

func runServe(config ServeConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logLevel := slog.LevelInfo
	if config.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Fail fast on incomplete credentials rather than at the first login
	creds := webex.Credentials{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURI:  config.RedirectURI,
		Scope:        config.Scope,
	}
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("incomplete Webex credentials: %w", err)
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during instrumentation shutdown", "error", err)
		}
	}()

	// Start metrics server if enabled
	var metricsServer *server.MetricsServer
	if config.Metrics.Enabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    config.Metrics.Addr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		// Use ready channel to confirm metrics server started successfully
		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		select {
		case <-metricsReady:
			logger.Info("Metrics server started", "addr", metricsServer.Addr())
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("metrics server startup timed out")
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("Error during metrics server shutdown", "error", err)
			}
		}()
	}

	var clientOpts []webex.Option
	if config.WebexAPIURL != "" {
		clientOpts = append(clientOpts, webex.WithBaseURL(config.WebexAPIURL))
	}
	clientOpts = append(clientOpts, webex.WithLogger(logger))

	client, err := webex.NewClient(creds, clientOpts...)
	if err != nil {
		return fmt.Errorf("failed to create Webex client: %w", err)
	}

	tokens := auth.NewTokenCache(logger)
	states := auth.NewStateStore(auth.DefaultStateTTL, logger)
	defer states.Stop()

	handler, err := server.NewHandler(server.HandlerConfig{
		Client:    client,
		Tokens:    tokens,
		States:    states,
		ChunkRoot: config.ChunkDir,
		Logger:    logger,
		Metrics:   provider.Metrics(),
	})
	if err != nil {
		return fmt.Errorf("failed to create handler: %w", err)
	}

	relay, err := server.New(server.Config{
		Addr:    config.HTTPAddr,
		Handler: handler,
		Metrics: provider.Metrics(),
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create relay server: %w", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := relay.Start(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	logger.Info("Relay server started",
		"addr", config.HTTPAddr,
		"chunk_dir", config.ChunkDir,
	)

	select {
	case <-shutdownCtx.Done():
		logger.Info("Shutdown signal received, stopping relay server")
		stopCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := relay.Shutdown(stopCtx); err != nil {
			return fmt.Errorf("error shutting down relay server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("relay server stopped with error: %w", err)
		}
	}

	logger.Info("Relay server gracefully stopped")
	return nil
}
