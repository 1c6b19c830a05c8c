package webex

import "fmt"

// Credentials holds the OAuth integration settings issued by Webex.
type Credentials struct {
	// ClientID is the integration's public identifier
	ClientID string

	// ClientSecret is the integration's secret
	ClientSecret string

	// RedirectURI is the callback URL registered with the integration
	RedirectURI string

	// Scope is the space-separated list of requested scopes
	Scope string
}

// Validate returns an error when any required credential field is missing.
func (c Credentials) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("client ID is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("client secret is required")
	}
	if c.RedirectURI == "" {
		return fmt.Errorf("redirect URI is required")
	}
	if c.Scope == "" {
		return fmt.Errorf("scope is required")
	}
	return nil
}

// APIResponse carries a Webex response back to the caller verbatim.
type APIResponse struct {
	// StatusCode is the HTTP status returned by Webex
	StatusCode int

	// Body is the raw response body
	Body []byte
}

// JoinLinkResult is the reduced join-link response. Only these fields are
// safe to expose to a browser client; the full provider response also
// carries host and site metadata that stays server-side.
type JoinLinkResult struct {
	// JoinLink is the attendee join URL
	JoinLink string `json:"joinLink,omitempty"`

	// StartLink is the host start URL
	StartLink string `json:"startLink,omitempty"`

	// Expiration is when the links stop working
	Expiration string `json:"expiration,omitempty"`
}

// APIError represents a failed Webex API operation.
type APIError struct {
	// Op is the operation that failed (e.g., "exchangeCode", "createMeeting", "joinLink")
	Op string

	// StatusCode is the HTTP status Webex returned, 0 when the request
	// never reached the provider
	StatusCode int

	// Body is the raw error body Webex returned, nil on transport errors
	Body []byte

	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("webex %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("webex %s: %v", e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *APIError) Unwrap() error {
	return e.Err
}
