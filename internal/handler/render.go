package handler

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/halverson/notevault/internal/domain"
	"github.com/halverson/notevault/internal/repository"
	"github.com/halverson/notevault/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData contains common page data.
type PageData struct {
	Title     string
	Username  string
	CSRFToken string
	Error     string
	Success   string
}

// Renderer parses and executes the embedded page templates.
type Renderer struct {
	templates *template.Template
	logger    zerolog.Logger
}

// NewRenderer parses the embedded templates.
func NewRenderer(logger zerolog.Logger) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Renderer{
		templates: tmpl,
		logger:    logger.With().Str("component", "renderer").Logger(),
	}, nil
}

func (rd *Renderer) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := rd.templates.ExecuteTemplate(w, name, data); err != nil {
		rd.logger.Error().Err(err).Str("template", name).Msg("Failed to render template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (rd *Renderer) renderStatus(w http.ResponseWriter, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := rd.templates.ExecuteTemplate(w, name, data); err != nil {
		rd.logger.Error().Err(err).Str("template", name).Msg("Failed to render template")
	}
}

func (rd *Renderer) renderError(w http.ResponseWriter, status int, message, username string) {
	data := PageData{
		Title:    "Error - NoteVault",
		Username: username,
		Error:    message,
	}
	rd.renderStatus(w, status, "error.html", data)
}

// statusForError maps domain and service errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrNoteNotFound),
		errors.Is(err, domain.ErrAttachmentNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateUsername):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAttachmentTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, repository.ErrLockNotAcquired):
		return http.StatusConflict
	case errors.Is(err, service.ErrInternalError),
		errors.Is(err, domain.ErrIntegrityFault):
		return http.StatusInternalServerError
	case isValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// userMessage returns the message shown to the user for an error.
// Internal errors never leak their cause.
func userMessage(err error) string {
	if statusForError(err) == http.StatusInternalServerError {
		return "Something went wrong. Please try again."
	}
	return err.Error()
}

func isValidationError(err error) bool {
	validation := []error{
		service.ErrUsernameRequired,
		service.ErrUsernameTooLong,
		service.ErrUsernameInvalid,
		service.ErrPasswordRequired,
		service.ErrPasswordTooShort,
		service.ErrPasswordTooLong,
		service.ErrEmailRequired,
		service.ErrEmailTooLong,
		service.ErrEmailInvalid,
		service.ErrNameTooLong,
		service.ErrFilenameRequired,
		domain.ErrNoteTitleEmpty,
		domain.ErrNoteTitleTooLong,
	}
	for _, v := range validation {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
