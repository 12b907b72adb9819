package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/halverson/notevault/internal/auth"
	"github.com/halverson/notevault/internal/domain"
	"github.com/halverson/notevault/internal/service"
	"github.com/halverson/notevault/internal/session"
)

// UserHandler handles user profile pages and account deletion.
type UserHandler struct {
	userService *service.UserService
	sessions    *session.Manager
	renderer    *Renderer
	cookieName  string
	logger      zerolog.Logger
}

// UserHandlerConfig contains configuration for the user handler.
type UserHandlerConfig struct {
	UserService *service.UserService
	Sessions    *session.Manager
	Renderer    *Renderer
	CookieName  string
	Logger      zerolog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(cfg UserHandlerConfig) *UserHandler {
	return &UserHandler{
		userService: cfg.UserService,
		sessions:    cfg.Sessions,
		renderer:    cfg.Renderer,
		cookieName:  cfg.CookieName,
		logger:      cfg.Logger.With().Str("handler", "user").Logger(),
	}
}

// UserPageData contains user profile page data.
type UserPageData struct {
	PageData
	User  *domain.User
	Notes []*domain.Note
}

// RegisterRoutes registers user routes. All of them require a session.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/users/{username}", h.handleProfile)
	r.Post("/users/{username}/delete", h.handleDeleteAccount)
}

func (h *UserHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	username := chi.URLParam(r, "username")

	out, err := h.userService.GetProfile(r.Context(), service.GetProfileInput{
		Identity: id,
		Username: username,
	})
	if err != nil {
		h.renderer.renderError(w, statusForError(err), userMessage(err), id.Username())
		return
	}

	h.renderer.render(w, "user.html", UserPageData{
		PageData: PageData{
			Title:     out.User.FullName() + " - NoteVault",
			Username:  id.Username(),
			CSRFToken: auth.CSRFTokenFromContext(r.Context()),
		},
		User:  out.User,
		Notes: out.Notes,
	})
}

func (h *UserHandler) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	username := chi.URLParam(r, "username")

	err := h.userService.DeleteAccount(r.Context(), service.DeleteAccountInput{
		Identity: id,
		Username: username,
	})
	if err != nil {
		h.renderer.renderError(w, statusForError(err), userMessage(err), id.Username())
		return
	}

	// The account is gone; end the session and clear the cookie.
	if token := auth.SessionTokenFromContext(r.Context()); token != "" {
		if err := h.sessions.Destroy(r.Context(), token); err != nil {
			h.logger.Error().Err(err).Msg("Failed to destroy session after account deletion")
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	http.Redirect(w, r, "/register", http.StatusSeeOther)
}
