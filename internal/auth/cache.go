package auth

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// TokenCache holds the most recently exchanged Webex access token in memory.
// A single relay instance serves a single integration user, so the cache
// stores exactly one token; a new exchange replaces the previous one.
type TokenCache struct {
	mu     sync.RWMutex
	token  *oauth2.Token
	now    func() time.Time
	logger *slog.Logger
}

// NewTokenCache creates an empty token cache.
func NewTokenCache(logger *slog.Logger) *TokenCache {
	if logger == nil {
		logger = slog.Default()
	}

	return &TokenCache{
		now:    time.Now,
		logger: logger,
	}
}

// SetClock overrides the cache's time source. Intended for tests.
func (c *TokenCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Set stores a token, replacing any previously cached one.
func (c *TokenCache) Set(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("token cannot be nil")
	}
	if token.AccessToken == "" {
		return fmt.Errorf("token has no access token")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
	c.logger.Debug("Cached access token", "expiry", token.Expiry)
	return nil
}

// Get returns the cached token if one is present and not yet expired.
// Expiry is checked lazily on each call; an expired token is treated
// exactly like a missing one.
func (c *TokenCache) Get() (*oauth2.Token, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.token == nil {
		return nil, fmt.Errorf("no access token cached")
	}

	if !c.token.Expiry.IsZero() && !c.token.Expiry.After(c.now()) {
		return nil, fmt.Errorf("cached access token expired")
	}

	return c.token, nil
}

// AccessToken returns the bearer token string, or an error when the cache
// is empty or expired.
func (c *TokenCache) AccessToken() (string, error) {
	token, err := c.Get()
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// Clear removes the cached token.
func (c *TokenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = nil
	c.logger.Debug("Cleared cached access token")
}
