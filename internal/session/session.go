// Package session manages server-side login sessions.
//
// A session binds an opaque token (carried in a cookie) to the username it
// authenticates, plus the CSRF token issued for that session. Records live
// in a Cache so that single-node deployments use process memory and
// multi-node deployments share Redis.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/halverson/notevault/internal/domain"
	"github.com/halverson/notevault/internal/pkg/crypto"
	"github.com/halverson/notevault/internal/repository"
)

// keyPrefix namespaces session records in the cache.
const keyPrefix = "session:"

// Session is a server-side login session record.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	CSRFToken string    `json:"csrf_token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager creates, resolves and destroys sessions.
type Manager struct {
	cache  repository.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewManager creates a new session manager.
func NewManager(cache repository.Cache, ttl time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("service", "session").Logger(),
	}
}

// Create establishes a new session for the given username.
// A fresh session token and CSRF token are generated; the caller is
// responsible for setting the cookie.
func (m *Manager) Create(ctx context.Context, username string) (*Session, error) {
	token, err := crypto.GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	csrfToken, err := crypto.GenerateCSRFToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate csrf token: %w", err)
	}

	now := time.Now().UTC()
	sess := &Session{
		Token:     token,
		Username:  username,
		CSRFToken: csrfToken,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.store(ctx, sess); err != nil {
		return nil, err
	}

	m.logger.Debug().
		Str("username", username).
		Time("expires_at", sess.ExpiresAt).
		Msg("Session created")

	return sess, nil
}

// Get resolves a session token to its record.
// Returns domain.ErrSessionNotFound for unknown or expired tokens.
func (m *Manager) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, domain.ErrSessionNotFound
	}

	data, err := m.cache.Get(ctx, keyPrefix+token)
	if err != nil {
		if errors.Is(err, repository.ErrCacheMiss) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	// The cache TTL should already have evicted expired sessions; check
	// anyway so a backend without eviction cannot extend a login.
	if time.Now().After(sess.ExpiresAt) {
		_ = m.cache.Delete(ctx, keyPrefix+token)
		return nil, domain.ErrSessionNotFound
	}

	return &sess, nil
}

// Refresh extends a session's expiry by the configured TTL.
func (m *Manager) Refresh(ctx context.Context, token string) (*Session, error) {
	sess, err := m.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	sess.ExpiresAt = time.Now().UTC().Add(m.ttl)
	if err := m.store(ctx, sess); err != nil {
		return nil, err
	}

	return sess, nil
}

// Destroy removes a session. Destroying an unknown token is not an error.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := m.cache.Delete(ctx, keyPrefix+token); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}

	m.logger.Debug().Msg("Session destroyed")
	return nil
}

func (m *Manager) store(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return domain.ErrSessionNotFound
	}

	if err := m.cache.Set(ctx, keyPrefix+sess.Token, data, ttl); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}
