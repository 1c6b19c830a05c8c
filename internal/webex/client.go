package webex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"github.com/voxrelay/webex-relay/internal/instrumentation"
)

// DefaultBaseURL is the Webex REST API root.
const DefaultBaseURL = "https://webexapis.com/v1"

// API paths relative to the base URL.
const (
	authorizePath = "/authorize"
	tokenPath     = "/access_token"
	meetingsPath  = "/meetings"
	joinPath      = "/meetings/join"
)

// defaultTimeout bounds outbound calls to Webex.
const defaultTimeout = 30 * time.Second

// joinSelectorKeys are the payload keys that can identify the meeting to
// join. At least one must be present and non-empty.
var joinSelectorKeys = []string{"meetingId", "meetingNumber", "webLink"}

// Client talks to the Webex REST API on behalf of the relay.
type Client struct {
	creds      Credentials
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root. Used to point the client at a test
// server or an alternate Webex site.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient overrides the HTTP client used for outbound calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Webex API client for the given integration credentials.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}

	c := &Client{
		creds:   creds,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// oauthConfig builds the oauth2 configuration for the Webex endpoints.
// Webex expects client credentials in the POST body, not basic auth.
func (c *Client) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.creds.ClientID,
		ClientSecret: c.creds.ClientSecret,
		RedirectURL:  c.creds.RedirectURI,
		Scopes:       []string{c.creds.Scope},
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.baseURL + authorizePath,
			TokenURL:  c.baseURL + tokenPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthorizeURL returns the Webex authorization URL for the given state.
func (c *Client) AuthorizeURL(state string) string {
	return c.oauthConfig().AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for an access token.
// Upstream rejections surface as *oauth2.RetrieveError.
func (c *Client) ExchangeCode(ctx context.Context, code string) (_ *oauth2.Token, err error) {
	ctx, span := instrumentation.StartWebexAPISpan(ctx, "exchangeCode")
	defer func() { endSpan(span, err) }()

	// Route the exchange through our HTTP client
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return nil, &APIError{Op: "exchangeCode", Err: err}
	}

	c.logger.Debug("Exchanged authorization code", "expiry", token.Expiry)
	return token, nil
}

// CreateMeeting forwards a meeting creation payload to Webex unchanged and
// returns the provider's status and body verbatim.
func (c *Client) CreateMeeting(ctx context.Context, bearer string, body []byte) (_ *APIResponse, err error) {
	ctx, span := instrumentation.StartWebexAPISpan(ctx, "createMeeting")
	defer func() { endSpan(span, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+meetingsPath, bytes.NewReader(body))
	if err != nil {
		return nil, &APIError{Op: "createMeeting", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Op: "createMeeting", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Op: "createMeeting", Err: fmt.Errorf("failed to read response: %w", err)}
	}

	span.SetAttributes(attribute.Int(instrumentation.SpanAttrUpstreamStatus, resp.StatusCode))
	c.logger.Debug("Created meeting", "status", resp.StatusCode)

	return &APIResponse{
		StatusCode: resp.StatusCode,
		Body:       respBody,
	}, nil
}

// ValidateJoinPayload checks that the payload identifies a meeting by at
// least one of meetingId, meetingNumber, or webLink. Any non-null value
// counts: meetingNumber arrives as a JSON number from some clients.
func ValidateJoinPayload(payload map[string]any) error {
	for _, key := range joinSelectorKeys {
		v, ok := payload[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && s == "" {
			continue
		}
		return nil
	}
	return fmt.Errorf("payload must include one of %s", strings.Join(joinSelectorKeys, ", "))
}

// GenerateJoinLink requests join and start links for an existing meeting.
// The outbound payload always carries joinDirectly=false so Webex returns
// links instead of redirecting. Non-2xx provider responses come back as an
// *APIError carrying the upstream status and body.
func (c *Client) GenerateJoinLink(ctx context.Context, bearer string, payload map[string]any) (_ *JoinLinkResult, err error) {
	ctx, span := instrumentation.StartWebexAPISpan(ctx, "joinLink")
	defer func() { endSpan(span, err) }()

	outbound := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		outbound[k] = v
	}
	outbound["joinDirectly"] = false

	body, err := json.Marshal(outbound)
	if err != nil {
		return nil, &APIError{Op: "joinLink", Err: fmt.Errorf("failed to encode payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+joinPath, bytes.NewReader(body))
	if err != nil {
		return nil, &APIError{Op: "joinLink", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Op: "joinLink", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Op: "joinLink", Err: fmt.Errorf("failed to read response: %w", err)}
	}

	span.SetAttributes(attribute.Int(instrumentation.SpanAttrUpstreamStatus, resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("Join link request rejected", "status", resp.StatusCode)
		return nil, &APIError{
			Op:         "joinLink",
			StatusCode: resp.StatusCode,
			Body:       respBody,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var result JoinLinkResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &APIError{Op: "joinLink", Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	// A success response without a joinLink is still a failure; surface the
	// provider's status and body so the caller can relay them.
	if result.JoinLink == "" {
		c.logger.Debug("Join link response missing joinLink", "status", resp.StatusCode)
		return nil, &APIError{
			Op:         "joinLink",
			StatusCode: resp.StatusCode,
			Body:       respBody,
			Err:        fmt.Errorf("response missing joinLink"),
		}
	}

	c.logger.Debug("Generated join link", "status", resp.StatusCode)
	return &result, nil
}

// endSpan closes an operation span, recording err when present.
func endSpan(span trace.Span, err error) {
	if err != nil {
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	span.End()
}
