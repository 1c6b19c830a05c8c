package auth

import (
	"testing"
	"time"
)

func TestStateStore_IssueAndVerify(t *testing.T) {
	store := NewStateStore(DefaultStateTTL, nil)
	defer store.Stop()

	state, err := store.Issue()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state == "" {
		t.Fatal("expected non-empty state")
	}

	if err := store.Verify(state); err != nil {
		t.Errorf("expected state to verify, got error: %v", err)
	}
}

func TestStateStore_Issue_Unique(t *testing.T) {
	store := NewStateStore(DefaultStateTTL, nil)
	defer store.Stop()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		state, err := store.Issue()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen[state] {
			t.Fatalf("duplicate state issued: %q", state)
		}
		seen[state] = true
	}
}

func TestStateStore_Verify_Unknown(t *testing.T) {
	store := NewStateStore(DefaultStateTTL, nil)
	defer store.Stop()

	if err := store.Verify("never-issued"); err == nil {
		t.Error("expected error for unknown state, got nil")
	}
}

func TestStateStore_Verify_SingleUse(t *testing.T) {
	store := NewStateStore(DefaultStateTTL, nil)
	defer store.Stop()

	state, err := store.Issue()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Verify(state); err != nil {
		t.Fatalf("first verification failed: %v", err)
	}

	// Replayed callback must fail
	if err := store.Verify(state); err == nil {
		t.Error("expected error on second verification, got nil")
	}
}

func TestStateStore_Verify_Expired(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store := NewStateStore(10*time.Minute, nil)
	defer store.Stop()

	now := base
	store.SetClock(func() time.Time { return now })

	state, err := store.Issue()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now = base.Add(11 * time.Minute)

	if err := store.Verify(state); err == nil {
		t.Error("expected error for expired state, got nil")
	}
}

func TestStateStore_CleanupExpired(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store := NewStateStore(10*time.Minute, nil)
	defer store.Stop()

	now := base
	store.SetClock(func() time.Time { return now })

	expired, err := store.Issue()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now = base.Add(5 * time.Minute)
	fresh, err := store.Issue()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now = base.Add(12 * time.Minute)
	store.cleanupExpired()

	if err := store.Verify(expired); err == nil {
		t.Error("expected expired state to be gone after cleanup")
	}
	if err := store.Verify(fresh); err != nil {
		t.Errorf("expected fresh state to survive cleanup, got error: %v", err)
	}
}

func TestStateStore_Stop_Idempotent(t *testing.T) {
	store := NewStateStore(DefaultStateTTL, nil)

	store.Stop()
	store.Stop() // must not panic
}
