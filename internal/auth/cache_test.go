package auth

import (
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestTokenCache_SetAndGet(t *testing.T) {
	cache := NewTokenCache(nil)

	token := &oauth2.Token{
		AccessToken: "test-access-token",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(1 * time.Hour),
	}

	if err := cache.Set(token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := cache.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.AccessToken != "test-access-token" {
		t.Errorf("expected access token 'test-access-token', got %q", got.AccessToken)
	}
}

func TestTokenCache_Get_Empty(t *testing.T) {
	cache := NewTokenCache(nil)

	if _, err := cache.Get(); err == nil {
		t.Error("expected error for empty cache, got nil")
	}
}

func TestTokenCache_Set_Invalid(t *testing.T) {
	cache := NewTokenCache(nil)

	if err := cache.Set(nil); err == nil {
		t.Error("expected error for nil token, got nil")
	}

	if err := cache.Set(&oauth2.Token{}); err == nil {
		t.Error("expected error for token without access token, got nil")
	}
}

func TestTokenCache_LazyExpiry(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cache := NewTokenCache(nil)
	now := base
	cache.SetClock(func() time.Time { return now })

	// Token valid for one hour
	token := &oauth2.Token{
		AccessToken: "expiring-token",
		TokenType:   "Bearer",
		Expiry:      base.Add(3600 * time.Second),
	}
	if err := cache.Set(token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Just inside the TTL
	now = base.Add(3599 * time.Second)
	if _, err := cache.Get(); err != nil {
		t.Errorf("expected token to be valid at 3599s, got error: %v", err)
	}

	// Just past the TTL
	now = base.Add(3601 * time.Second)
	if _, err := cache.Get(); err == nil {
		t.Error("expected token to be expired at 3601s, got nil error")
	}
}

func TestTokenCache_ZeroExpiryNeverExpires(t *testing.T) {
	cache := NewTokenCache(nil)
	cache.SetClock(func() time.Time {
		return time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)
	})

	token := &oauth2.Token{AccessToken: "no-expiry-token"}
	if err := cache.Set(token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := cache.Get(); err != nil {
		t.Errorf("expected token without expiry to stay valid, got error: %v", err)
	}
}

func TestTokenCache_Replace(t *testing.T) {
	cache := NewTokenCache(nil)

	first := &oauth2.Token{AccessToken: "first", Expiry: time.Now().Add(time.Hour)}
	second := &oauth2.Token{AccessToken: "second", Expiry: time.Now().Add(time.Hour)}

	if err := cache.Set(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cache.Set(second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := cache.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AccessToken != "second" {
		t.Errorf("expected replacement token 'second', got %q", got.AccessToken)
	}
}

func TestTokenCache_AccessToken(t *testing.T) {
	cache := NewTokenCache(nil)

	if _, err := cache.AccessToken(); err == nil {
		t.Error("expected error for empty cache, got nil")
	}

	token := &oauth2.Token{AccessToken: "bearer-value", Expiry: time.Now().Add(time.Hour)}
	if err := cache.Set(token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := cache.AccessToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "bearer-value" {
		t.Errorf("expected 'bearer-value', got %q", got)
	}
}

func TestTokenCache_Clear(t *testing.T) {
	cache := NewTokenCache(nil)

	token := &oauth2.Token{AccessToken: "to-clear", Expiry: time.Now().Add(time.Hour)}
	if err := cache.Set(token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cache.Clear()

	if _, err := cache.Get(); err == nil {
		t.Error("expected error after clear, got nil")
	}
}
