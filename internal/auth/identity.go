// Package auth provides identity markers, the authorization gate and
// CSRF protection for NoteVault.
package auth

import "context"

// Identity is the caller's authentication state for a request.
// The zero value is anonymous.
type Identity struct {
	username      string
	authenticated bool
}

// Anonymous returns the unauthenticated identity.
func Anonymous() Identity {
	return Identity{}
}

// AuthenticatedAs returns an identity bound to the given username.
func AuthenticatedAs(username string) Identity {
	return Identity{username: username, authenticated: true}
}

// Authenticated reports whether the identity is bound to a user.
func (i Identity) Authenticated() bool {
	return i.authenticated
}

// Username returns the bound username, or "" for anonymous identities.
func (i Identity) Username() string {
	if !i.authenticated {
		return ""
	}
	return i.username
}

// String implements fmt.Stringer.
func (i Identity) String() string {
	if !i.authenticated {
		return "anonymous"
	}
	return "user:" + i.username
}

// identityKey is the context key for the request identity.
type identityKey struct{}

// sessionTokenKey is the context key for the raw session token.
type sessionTokenKey struct{}

// csrfTokenKey is the context key for the session's CSRF token.
type csrfTokenKey struct{}

// WithIdentity returns a context carrying the given identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the request identity.
// Returns the anonymous identity if none was set.
func IdentityFromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey{}).(Identity); ok {
		return id
	}
	return Anonymous()
}

// WithSessionToken returns a context carrying the raw session token.
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionTokenKey{}, token)
}

// SessionTokenFromContext returns the raw session token, if any.
func SessionTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(sessionTokenKey{}).(string); ok {
		return token
	}
	return ""
}

// WithCSRFToken returns a context carrying the session's CSRF token.
func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfTokenKey{}, token)
}

// CSRFTokenFromContext returns the session's CSRF token, if any.
func CSRFTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(csrfTokenKey{}).(string); ok {
		return token
	}
	return ""
}
