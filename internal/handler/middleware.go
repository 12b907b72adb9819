// Package handler provides the HTTP layer for NoteVault.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/halverson/notevault/internal/auth"
	"github.com/halverson/notevault/internal/metrics"
	"github.com/halverson/notevault/internal/session"
)

// csrfFormField is the form field carrying the CSRF token.
const csrfFormField = "csrf_token"

// csrfHeader is the header alternative for non-form clients.
const csrfHeader = "X-CSRF-Token"

// csrfCookieName is the double-submit cookie used before a session exists,
// covering the register and login forms.
const csrfCookieName = "csrf_token"

// Middleware bundles the request middlewares that need server state.
type Middleware struct {
	sessions   *session.Manager
	cookieName string
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewMiddleware creates the middleware set.
func NewMiddleware(sessions *session.Manager, cookieName string, m *metrics.Metrics, logger zerolog.Logger) *Middleware {
	return &Middleware{
		sessions:   sessions,
		cookieName: cookieName,
		metrics:    m,
		logger:     logger.With().Str("component", "middleware").Logger(),
	}
}

// Identity resolves the session cookie into a request identity.
// Requests without a valid session proceed as anonymous; downstream
// handlers and the authorization gate decide what anonymous may do.
func (m *Middleware) Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.WithIdentity(r.Context(), auth.Anonymous())

		if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
			sess, err := m.sessions.Get(r.Context(), cookie.Value)
			if err == nil {
				ctx = auth.WithIdentity(r.Context(), auth.AuthenticatedAs(sess.Username))
				ctx = auth.WithSessionToken(ctx, sess.Token)
				ctx = auth.WithCSRFToken(ctx, sess.CSRFToken)
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects anonymous requests. Browser navigation is sent to
// the login page; everything else gets a plain 401.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := auth.IdentityFromContext(r.Context())
		if !id.Authenticated() {
			if r.Method == http.MethodGet {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CSRF validates the CSRF token on every mutating request.
// Safe methods pass through untouched. A request whose token is missing
// or wrong is rejected before any handler runs, so no partial mutation
// can happen. Authenticated requests are checked against the session's
// token; anonymous requests (register, login) against the double-submit
// cookie minted when the form page was served.
func (m *Middleware) CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		expected := auth.CSRFTokenFromContext(r.Context())
		if expected == "" {
			if cookie, err := r.Cookie(csrfCookieName); err == nil {
				expected = cookie.Value
			}
		}

		submitted := r.Header.Get(csrfHeader)
		if submitted == "" {
			// ParseMultipartForm falls back to ParseForm for regular posts.
			if err := r.ParseMultipartForm(32 << 20); err != nil && err != http.ErrNotMultipart {
				if err := r.ParseForm(); err != nil {
					http.Error(w, "Invalid form data", http.StatusBadRequest)
					return
				}
			}
			submitted = r.PostFormValue(csrfFormField)
		}

		if !auth.ValidateCSRF(expected, submitted) {
			if m.metrics != nil {
				m.metrics.CSRFRejectionsTotal.Inc()
			}
			m.logger.Warn().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("CSRF validation failed")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs each request with its outcome.
func (m *Middleware) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		m.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("Request handled")
	})
}

// Metrics records request counts and latency per route pattern.
func (m *Middleware) Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		m.metrics.RecordHTTPRequest(r.Method, route, rec.status, time.Since(start))
	})
}

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
