package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultStateTTL is how long an issued state value stays valid. A login
// redirect that is not completed within this window has to start over.
const DefaultStateTTL = 10 * time.Minute

// stateByteLen is the entropy of a state value before base64 encoding.
const stateByteLen = 32

// StateStore issues random state values for the authorization redirect and
// verifies them on the OAuth callback. Each state is single-use: a
// successful verification consumes it, so a replayed callback fails.
type StateStore struct {
	mu      sync.Mutex
	states  map[string]time.Time // state -> expiry
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
	done    chan struct{}
	stopped sync.Once
}

// NewStateStore creates a state store and starts its cleanup goroutine.
// Call Stop to release the goroutine when the store is no longer needed.
func NewStateStore(ttl time.Duration, logger *slog.Logger) *StateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &StateStore{
		states: make(map[string]time.Time),
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
		done:   make(chan struct{}),
	}

	go s.cleanup()

	return s
}

// SetClock overrides the store's time source. Intended for tests.
func (s *StateStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Issue generates a new cryptographically random state value and records it
// with the store's TTL.
func (s *StateStore) Issue() (string, error) {
	buf := make([]byte, stateByteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state] = s.now().Add(s.ttl)
	s.logger.Debug("Issued authorization state", "pending_states", len(s.states))

	return state, nil
}

// Verify consumes a state value. It returns an error when the state was
// never issued, already used, or expired.
func (s *StateStore) Verify(state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.states[state]
	if !ok {
		return fmt.Errorf("authorization state not found")
	}

	// Consume immediately so a replayed callback fails
	delete(s.states, state)

	if s.now().After(expiry) {
		return fmt.Errorf("authorization state expired")
	}

	return nil
}

// Stop terminates the cleanup goroutine. Safe to call more than once.
func (s *StateStore) Stop() {
	s.stopped.Do(func() {
		close(s.done)
	})
}

// cleanup periodically removes expired states from abandoned flows.
func (s *StateStore) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanupExpired()
		}
	}
}

// cleanupExpired removes all states past their expiry.
func (s *StateStore) cleanupExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	deleted := 0

	for state, expiry := range s.states {
		if now.After(expiry) {
			delete(s.states, state)
			deleted++
		}
	}

	if deleted > 0 {
		s.logger.Debug("Cleaned up expired authorization states", "deleted", deleted)
	}
}
