package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/halverson/notevault/internal/auth"
	"github.com/halverson/notevault/internal/domain"
	"github.com/halverson/notevault/internal/pkg/crypto"
	"github.com/halverson/notevault/internal/service"
	"github.com/halverson/notevault/internal/session"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	authService  *service.AuthService
	sessions     *session.Manager
	renderer     *Renderer
	cookieName   string
	cookieSecure bool
	sessionTTL   time.Duration
	logger       zerolog.Logger
}

// AuthHandlerConfig contains configuration for the auth handler.
type AuthHandlerConfig struct {
	AuthService  *service.AuthService
	Sessions     *session.Manager
	Renderer     *Renderer
	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration
	Logger       zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		authService:  cfg.AuthService,
		sessions:     cfg.Sessions,
		renderer:     cfg.Renderer,
		cookieName:   cfg.CookieName,
		cookieSecure: cfg.CookieSecure,
		sessionTTL:   cfg.SessionTTL,
		logger:       cfg.Logger.With().Str("handler", "auth").Logger(),
	}
}

// RegisterPageData contains register page data.
type RegisterPageData struct {
	PageData
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// RegisterRoutes registers auth routes.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/register", h.handleRegisterPage)
	r.Post("/register", h.handleRegister)
	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

func (h *AuthHandler) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if id := auth.IdentityFromContext(r.Context()); id.Authenticated() {
		http.Redirect(w, r, "/users/"+id.Username(), http.StatusFound)
		return
	}

	h.renderer.render(w, "register.html", RegisterPageData{
		PageData: PageData{
			Title:     "Register - NoteVault",
			CSRFToken: h.csrfToken(w, r),
		},
	})
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderRegisterError(w, r, http.StatusBadRequest, "Invalid form data", nil)
		return
	}

	input := service.RegisterInput{
		Username:  r.PostFormValue("username"),
		Password:  r.PostFormValue("password"),
		Email:     r.PostFormValue("email"),
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
	}

	out, err := h.authService.Register(r.Context(), input)
	if err != nil {
		h.renderRegisterError(w, r, statusForError(err), userMessage(err), &input)
		return
	}

	// The account exists; log the new user straight in. If the session
	// store is down they can still log in the normal way.
	sess, err := h.sessions.Create(r.Context(), out.User.Username)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create session after registration")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.setSessionCookie(w, r, sess.Token, int(h.sessionTTL/time.Second))
	http.Redirect(w, r, "/users/"+out.User.Username, http.StatusSeeOther)
}

func (h *AuthHandler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if id := auth.IdentityFromContext(r.Context()); id.Authenticated() {
		http.Redirect(w, r, "/users/"+id.Username(), http.StatusFound)
		return
	}

	h.renderer.render(w, "login.html", PageData{
		Title:     "Login - NoteVault",
		CSRFToken: h.csrfToken(w, r),
	})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, r, http.StatusBadRequest, "Invalid form data")
		return
	}

	out, err := h.authService.Authenticate(r.Context(), service.AuthenticateInput{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			h.logger.Error().Err(err).Msg("Login failed unexpectedly")
		}
		h.renderLoginError(w, r, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	sess, err := h.sessions.Create(r.Context(), out.User.Username)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create session")
		h.renderLoginError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	h.setSessionCookie(w, r, sess.Token, int(h.sessionTTL/time.Second))
	http.Redirect(w, r, "/users/"+out.User.Username, http.StatusSeeOther)
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := auth.SessionTokenFromContext(r.Context()); token != "" {
		if err := h.sessions.Destroy(r.Context(), token); err != nil {
			h.logger.Error().Err(err).Msg("Failed to destroy session")
		}
	}

	h.setSessionCookie(w, r, "", -1)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, r *http.Request, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// csrfToken returns the token for the request's forms: the session token
// when logged in, otherwise the double-submit cookie, minted if absent.
func (h *AuthHandler) csrfToken(w http.ResponseWriter, r *http.Request) string {
	if token := auth.CSRFTokenFromContext(r.Context()); token != "" {
		return token
	}

	if cookie, err := r.Cookie(csrfCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	token, err := crypto.GenerateCSRFToken()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to generate CSRF token")
		return ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

func (h *AuthHandler) renderRegisterError(w http.ResponseWriter, r *http.Request, status int, message string, input *service.RegisterInput) {
	data := RegisterPageData{
		PageData: PageData{
			Title:     "Register - NoteVault",
			CSRFToken: h.csrfToken(w, r),
			Error:     message,
		},
	}
	// Refill everything except the password.
	if input != nil {
		data.Username = input.Username
		data.Email = input.Email
		data.FirstName = input.FirstName
		data.LastName = input.LastName
	}
	h.renderer.renderStatus(w, status, "register.html", data)
}

func (h *AuthHandler) renderLoginError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.renderer.renderStatus(w, status, "login.html", PageData{
		Title:     "Login - NoteVault",
		CSRFToken: h.csrfToken(w, r),
		Error:     message,
	})
}
