package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/halverson/notevault/internal/cache/memory"
	"github.com/halverson/notevault/internal/domain"
)

func newTestManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()

	cache := memory.NewCache()
	t.Cleanup(cache.Stop)

	return NewManager(cache, ttl, zerolog.Nop())
}

func TestManager_CreateAndGet(t *testing.T) {
	m := newTestManager(t, time.Hour)
	ctx := context.Background()

	sess, err := m.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if sess.Token == "" {
		t.Error("Create() returned empty token")
	}
	if sess.CSRFToken == "" {
		t.Error("Create() returned empty CSRF token")
	}
	if sess.Username != "alice" {
		t.Errorf("Username = %q, want %q", sess.Username, "alice")
	}

	got, err := m.Get(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("Get() username = %q, want %q", got.Username, "alice")
	}
	if got.CSRFToken != sess.CSRFToken {
		t.Error("Get() returned different CSRF token")
	}
}

func TestManager_TokensAreUnique(t *testing.T) {
	m := newTestManager(t, time.Hour)
	ctx := context.Background()

	s1, err := m.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	s2, err := m.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if s1.Token == s2.Token {
		t.Error("two sessions share the same token")
	}
	if s1.CSRFToken == s2.CSRFToken {
		t.Error("two sessions share the same CSRF token")
	}
}

func TestManager_GetUnknownToken(t *testing.T) {
	m := newTestManager(t, time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "unknown token", token: "deadbeef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Get(context.Background(), tt.token)
			if !errors.Is(err, domain.ErrSessionNotFound) {
				t.Errorf("Get() error = %v, want ErrSessionNotFound", err)
			}
		})
	}
}

func TestManager_ExpiredSession(t *testing.T) {
	m := newTestManager(t, 10*time.Millisecond)
	ctx := context.Background()

	sess, err := m.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	_, err = m.Get(ctx, sess.Token)
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Get() after expiry error = %v, want ErrSessionNotFound", err)
	}
}

func TestManager_Refresh(t *testing.T) {
	m := newTestManager(t, time.Hour)
	ctx := context.Background()

	sess, err := m.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	refreshed, err := m.Refresh(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if refreshed.ExpiresAt.Before(sess.ExpiresAt) {
		t.Error("Refresh() did not extend expiry")
	}
	if refreshed.CSRFToken != sess.CSRFToken {
		t.Error("Refresh() changed the CSRF token")
	}
}

func TestManager_Destroy(t *testing.T) {
	m := newTestManager(t, time.Hour)
	ctx := context.Background()

	sess, err := m.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := m.Destroy(ctx, sess.Token); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}

	_, err = m.Get(ctx, sess.Token)
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Get() after destroy error = %v, want ErrSessionNotFound", err)
	}

	// Destroying again is a no-op.
	if err := m.Destroy(ctx, sess.Token); err != nil {
		t.Errorf("Destroy() of destroyed session error = %v", err)
	}
}
