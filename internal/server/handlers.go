package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/voxrelay/webex-relay/internal/audio"
	"github.com/voxrelay/webex-relay/internal/auth"
	"github.com/voxrelay/webex-relay/internal/instrumentation"
	"github.com/voxrelay/webex-relay/internal/logging"
	"github.com/voxrelay/webex-relay/internal/webex"
)

// maxMeetingBodyBytes bounds JSON payloads forwarded to Webex.
const maxMeetingBodyBytes = 1 << 20 // 1 MiB

// Response bodies for the audio stream endpoint.
const (
	audioStreamSuccessBody = "Audio chunks saved successfully"
	audioStreamFailureBody = "Streaming failed"
)

// errMissingCode rejects authorization callbacks without a code parameter.
var errMissingCode = errors.New("missing code parameter")

// Handler implements the relay endpoints.
type Handler struct {
	client    *webex.Client
	tokens    *auth.TokenCache
	states    *auth.StateStore
	chunkRoot string
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
}

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	// Client is the outbound Webex API client
	Client *webex.Client

	// Tokens is the access token cache
	Tokens *auth.TokenCache

	// States is the OAuth state store
	States *auth.StateStore

	// ChunkRoot is the directory audio streams are written under; each
	// stream gets its own subdirectory
	ChunkRoot string

	// Logger overrides the logger. Defaults to slog.Default.
	Logger *slog.Logger

	// Metrics records relay metrics. Optional; nil disables recording.
	Metrics *instrumentation.Metrics
}

// NewHandler creates the relay endpoint handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("webex client is required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token cache is required")
	}
	if cfg.States == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if cfg.ChunkRoot == "" {
		return nil, fmt.Errorf("chunk root directory is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &instrumentation.Metrics{}
	}

	return &Handler{
		client:    cfg.Client,
		tokens:    cfg.Tokens,
		states:    cfg.States,
		chunkRoot: cfg.ChunkRoot,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}, nil
}

// Register mounts the relay endpoints on the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /webex/login", h.Login)
	mux.HandleFunc("GET /webex/oauth", h.OAuthCallback)
	mux.HandleFunc("POST /webex/create-meeting", h.CreateMeeting)
	mux.HandleFunc("GET /webex/token", h.Token)
	mux.HandleFunc("POST /webex/join-link", h.JoinLink)
	mux.HandleFunc("POST /webex/audio-stream", h.AudioStream)
}

// Login redirects the browser to the Webex authorization page with a fresh
// single-use state value.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	_, span := instrumentation.StartEndpointSpan(r.Context(), "login")
	defer span.End()

	logger := logging.WithOperation(h.logger, "login")

	state, err := h.states.Issue()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		logger.Error("Failed to issue authorization state", logging.Err(err))
		writeError(w, ErrKindInternal, "failed to start authorization flow")
		return
	}

	instrumentation.SetSpanSuccess(span)
	http.Redirect(w, r, h.client.AuthorizeURL(state), http.StatusFound)
}

// OAuthCallback handles the authorization redirect: it verifies the state,
// exchanges the code for an access token, and caches the token.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx, span := instrumentation.StartEndpointSpan(r.Context(), "oauth-callback")
	defer span.End()

	logger := logging.WithOperation(h.logger, "oauthCallback")

	code := r.URL.Query().Get("code")
	if code == "" {
		instrumentation.SetSpanError(span, errMissingCode)
		writeError(w, ErrKindBadRequest, "missing code parameter")
		return
	}

	if err := h.states.Verify(r.URL.Query().Get("state")); err != nil {
		instrumentation.SetSpanError(span, err)
		logger.Warn("State verification failed", logging.Err(err))
		writeError(w, ErrKindBadRequest, "invalid or expired state")
		return
	}

	start := time.Now()
	token, err := h.client.ExchangeCode(ctx, code)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		h.metrics.RecordOAuthExchange(ctx, instrumentation.OAuthResultFailure)
		h.metrics.RecordWebexAPIOperation(ctx, "/access_token", instrumentation.StatusError, time.Since(start))
		logger.Error("Token exchange failed", logging.Err(err))

		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			writeUpstreamError(w, "token exchange rejected by provider",
				retrieveErr.Response.StatusCode, retrieveErr.Body)
			return
		}
		writeError(w, ErrKindUpstream, "token exchange failed")
		return
	}

	if err := h.tokens.Set(token); err != nil {
		instrumentation.SetSpanError(span, err)
		logger.Error("Failed to cache access token", logging.Err(err))
		writeError(w, ErrKindInternal, "failed to store access token")
		return
	}

	instrumentation.SetSpanSuccess(span)
	h.metrics.RecordOAuthExchange(ctx, instrumentation.OAuthResultSuccess)
	h.metrics.RecordWebexAPIOperation(ctx, "/access_token", instrumentation.StatusSuccess, time.Since(start))
	logger.Info("Access token received and stored",
		"token", logging.SanitizeToken(token.AccessToken))

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Access token received and stored.",
	})
}

// CreateMeeting forwards a meeting creation payload to Webex. A bearer token
// supplied by the caller wins; otherwise the cached token is used.
func (h *Handler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	ctx, span := instrumentation.StartEndpointSpan(r.Context(), "create-meeting")
	defer span.End()

	logger := logging.WithOperation(h.logger, "createMeeting")

	bearer := bearerFromHeader(r)
	if bearer == "" {
		cached, err := h.tokens.AccessToken()
		if err != nil {
			instrumentation.SetSpanError(span, err)
			writeError(w, ErrKindUnauthorized, "no access token available")
			return
		}
		bearer = cached
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMeetingBodyBytes))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		writeError(w, ErrKindBadRequest, "failed to read request body")
		return
	}

	start := time.Now()
	resp, err := h.client.CreateMeeting(ctx, bearer, body)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		h.metrics.RecordWebexAPIOperation(ctx, "/meetings", instrumentation.StatusError, time.Since(start))
		logger.Error("Meeting creation failed", logging.Err(err))
		writeError(w, ErrKindUpstream, "failed to reach provider")
		return
	}

	instrumentation.SetSpanSuccess(span)
	h.metrics.RecordWebexAPIOperation(ctx, "/meetings", instrumentation.StatusSuccess, time.Since(start))
	logger.Info("Forwarded meeting creation", logging.Status(fmt.Sprintf("%d", resp.StatusCode)))

	// Provider status and body pass through verbatim
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

// Token returns the cached access token, or an unauthorized error when no
// valid token is available.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	_, span := instrumentation.StartEndpointSpan(r.Context(), "token")
	defer span.End()

	token, err := h.tokens.Get()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		writeError(w, ErrKindUnauthorized, "no valid access token cached")
		return
	}

	instrumentation.SetSpanSuccess(span)
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token.AccessToken,
	})
}

// JoinLink generates join and start links for an existing meeting. The
// response is reduced to the link fields; nothing else the provider returns
// leaves the relay.
func (h *Handler) JoinLink(w http.ResponseWriter, r *http.Request) {
	ctx, span := instrumentation.StartEndpointSpan(r.Context(), "join-link")
	defer span.End()

	logger := logging.WithOperation(h.logger, "joinLink")

	bearer, err := h.tokens.AccessToken()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		writeError(w, ErrKindUnauthorized, "no valid access token cached")
		return
	}

	var payload map[string]any
	if err := json.NewDecoder(io.LimitReader(r.Body, maxMeetingBodyBytes)).Decode(&payload); err != nil {
		instrumentation.SetSpanError(span, err)
		writeError(w, ErrKindBadRequest, "invalid JSON payload")
		return
	}

	// Reject underspecified payloads before any outbound call
	if err := webex.ValidateJoinPayload(payload); err != nil {
		instrumentation.SetSpanError(span, err)
		writeError(w, ErrKindBadRequest, err.Error())
		return
	}

	start := time.Now()
	result, err := h.client.GenerateJoinLink(ctx, bearer, payload)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		h.metrics.RecordWebexAPIOperation(ctx, "/meetings/join", instrumentation.StatusError, time.Since(start))
		logger.Error("Join link generation failed", logging.Err(err))

		var apiErr *webex.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
			writeUpstreamError(w, "join link rejected by provider", apiErr.StatusCode, apiErr.Body)
			return
		}
		writeError(w, ErrKindUpstream, "failed to generate join link")
		return
	}

	instrumentation.SetSpanSuccess(span)
	h.metrics.RecordWebexAPIOperation(ctx, "/meetings/join", instrumentation.StatusSuccess, time.Since(start))

	writeJSON(w, http.StatusOK, result)
}

// AudioStream consumes the request body as a raw audio stream and persists
// it as chunk files under a per-stream subdirectory.
func (h *Handler) AudioStream(w http.ResponseWriter, r *http.Request) {
	streamID := uuid.NewString()
	ctx, span := instrumentation.StartEndpointSpan(r.Context(), "audio-stream",
		attribute.String(instrumentation.SpanAttrStreamID, streamID))
	defer span.End()

	logger := logging.WithRequestID(logging.WithOperation(h.logger, "audioStream"), streamID)
	if traceID := instrumentation.GetTraceID(ctx); traceID != "" {
		logger = logger.With("trace_id", traceID)
	}

	writer, err := audio.NewChunkWriter(audio.WriterConfig{
		Dir:    filepath.Join(h.chunkRoot, streamID),
		Logger: logger,
	})
	if err != nil {
		instrumentation.SetSpanError(span, err)
		logger.Error("Failed to create chunk writer", logging.Err(err))
		http.Error(w, audioStreamFailureBody, http.StatusInternalServerError)
		return
	}

	h.metrics.IncrementActiveStreams(ctx)
	defer h.metrics.DecrementActiveStreams(ctx)

	stats, err := writer.Consume(ctx, r.Body)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		logger.Error("Audio stream failed",
			logging.Err(err),
			slog.Int("chunks", stats.Chunks),
			slog.Int64("bytes", stats.Bytes),
		)
		http.Error(w, audioStreamFailureBody, http.StatusInternalServerError)
		return
	}

	span.SetAttributes(attribute.Int(instrumentation.SpanAttrChunks, stats.Chunks))
	instrumentation.SetSpanSuccess(span)
	h.metrics.RecordAudioChunks(ctx, stats.Chunks)
	h.metrics.RecordAudioStream(ctx, stats.Bytes)
	logger.Info("Audio stream saved",
		slog.Int("chunks", stats.Chunks),
		slog.Int64("bytes", stats.Bytes),
	)

	w.Header().Set("X-Stream-Id", streamID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(audioStreamSuccessBody))
}

// bearerFromHeader extracts a bearer token from the Authorization header,
// returning "" when absent or malformed.
func bearerFromHeader(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
