package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/halverson/notevault/internal/auth"
	"github.com/halverson/notevault/internal/repository"
)

// Router assembles the HTTP routes for the server.
type Router struct {
	middleware        *Middleware
	authHandler       *AuthHandler
	userHandler       *UserHandler
	noteHandler       *NoteHandler
	attachmentHandler *AttachmentHandler
	health            repository.DatabaseHealth
	logger            zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	Middleware        *Middleware
	AuthHandler       *AuthHandler
	UserHandler       *UserHandler
	NoteHandler       *NoteHandler
	AttachmentHandler *AttachmentHandler
	Health            repository.DatabaseHealth
	Logger            zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		middleware:        cfg.Middleware,
		authHandler:       cfg.AuthHandler,
		userHandler:       cfg.UserHandler,
		noteHandler:       cfg.NoteHandler,
		attachmentHandler: cfg.AttachmentHandler,
		health:            cfg.Health,
		logger:            cfg.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(rt.middleware.RequestLogger)
	r.Use(rt.middleware.Metrics)
	r.Use(rt.middleware.Identity)
	r.Use(rt.middleware.CSRF)

	// Health check (no auth)
	r.Get("/health", rt.handleHealth)

	// Landing: logged-in users go to their page, everyone else registers.
	r.Get("/", rt.handleIndex)

	// Public auth routes
	rt.authHandler.RegisterRoutes(r)

	// Session-gated routes
	r.Group(func(r chi.Router) {
		r.Use(rt.middleware.RequireAuth)
		rt.userHandler.RegisterRoutes(r)
		rt.noteHandler.RegisterRoutes(r)
		rt.attachmentHandler.RegisterRoutes(r)
	})

	return r
}

func (rt *Router) handleIndex(w http.ResponseWriter, r *http.Request) {
	if id := auth.IdentityFromContext(r.Context()); id.Authenticated() {
		http.Redirect(w, r, "/users/"+id.Username(), http.StatusFound)
		return
	}
	http.Redirect(w, r, "/register", http.StatusFound)
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if rt.health != nil {
		if err := rt.health.Ping(r.Context()); err != nil {
			rt.logger.Error().Err(err).Msg("Health check failed")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
