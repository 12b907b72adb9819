package handler

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/halverson/notevault/internal/auth"
	"github.com/halverson/notevault/internal/service"
)

// AttachmentHandler handles attachment upload, download and deletion.
type AttachmentHandler struct {
	attachmentService *service.AttachmentService
	renderer          *Renderer
	logger            zerolog.Logger
}

// AttachmentHandlerConfig contains configuration for the attachment handler.
type AttachmentHandlerConfig struct {
	AttachmentService *service.AttachmentService
	Renderer          *Renderer
	Logger            zerolog.Logger
}

// NewAttachmentHandler creates a new attachment handler.
func NewAttachmentHandler(cfg AttachmentHandlerConfig) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentService: cfg.AttachmentService,
		renderer:          cfg.Renderer,
		logger:            cfg.Logger.With().Str("handler", "attachment").Logger(),
	}
}

// RegisterRoutes registers attachment routes. All of them require a session.
func (h *AttachmentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/notes/{id}/attachments", h.handleUpload)
	r.Get("/attachments/{id}", h.handleDownload)
	r.Post("/attachments/{id}/delete", h.handleDelete)
}

func (h *AttachmentHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())

	noteID, err := parseNoteID(r)
	if err != nil {
		h.renderer.renderError(w, http.StatusNotFound, "Note not found", id.Username())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.renderer.renderError(w, http.StatusBadRequest, "No file uploaded", id.Username())
		return
	}
	defer file.Close()

	_, err = h.attachmentService.UploadAttachment(r.Context(), service.UploadAttachmentInput{
		Identity: id,
		NoteID:   noteID,
		Filename: filepath.Base(header.Filename),
		Content:  file,
	})
	if err != nil {
		h.renderer.renderError(w, statusForError(err), userMessage(err), id.Username())
		return
	}

	http.Redirect(w, r, "/notes/"+strconv.FormatInt(noteID, 10), http.StatusSeeOther)
}

func (h *AttachmentHandler) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())

	attachmentID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.renderer.renderError(w, http.StatusNotFound, "Attachment not found", id.Username())
		return
	}

	out, err := h.attachmentService.DownloadAttachment(r.Context(), service.DownloadAttachmentInput{
		Identity:     id,
		AttachmentID: attachmentID,
	})
	if err != nil {
		h.renderer.renderError(w, statusForError(err), userMessage(err), id.Username())
		return
	}
	defer out.Content.Close()

	contentType := mime.TypeByExtension(filepath.Ext(out.Attachment.Filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(out.Attachment.Size, 10))
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": out.Attachment.Filename}))

	if _, err := io.Copy(w, out.Content); err != nil {
		h.logger.Error().Err(err).Int64("attachment_id", attachmentID).Msg("Failed to stream attachment")
	}
}

func (h *AttachmentHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())

	attachmentID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.renderer.renderError(w, http.StatusNotFound, "Attachment not found", id.Username())
		return
	}

	// Resolve the note before deletion so the redirect has somewhere to go.
	out, err := h.attachmentService.GetAttachment(r.Context(), service.GetAttachmentInput{
		Identity:     id,
		AttachmentID: attachmentID,
	})
	if err != nil {
		h.renderer.renderError(w, statusForError(err), userMessage(err), id.Username())
		return
	}
	noteID := out.Attachment.NoteID

	if err := h.attachmentService.DeleteAttachment(r.Context(), service.DeleteAttachmentInput{
		Identity:     id,
		AttachmentID: attachmentID,
	}); err != nil {
		h.renderer.renderError(w, statusForError(err), userMessage(err), id.Username())
		return
	}

	http.Redirect(w, r, "/notes/"+strconv.FormatInt(noteID, 10), http.StatusSeeOther)
}
