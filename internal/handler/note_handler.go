package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/halverson/notevault/internal/auth"
	"github.com/halverson/notevault/internal/domain"
	"github.com/halverson/notevault/internal/service"
)

// NoteHandler handles note pages and mutations.
type NoteHandler struct {
	noteService       *service.NoteService
	attachmentService *service.AttachmentService
	renderer          *Renderer
	logger            zerolog.Logger
}

// NoteHandlerConfig contains configuration for the note handler.
type NoteHandlerConfig struct {
	NoteService       *service.NoteService
	AttachmentService *service.AttachmentService
	Renderer          *Renderer
	Logger            zerolog.Logger
}

// NewNoteHandler creates a new note handler.
func NewNoteHandler(cfg NoteHandlerConfig) *NoteHandler {
	return &NoteHandler{
		noteService:       cfg.NoteService,
		attachmentService: cfg.AttachmentService,
		renderer:          cfg.Renderer,
		logger:            cfg.Logger.With().Str("handler", "note").Logger(),
	}
}

// NotesPageData contains note list page data.
type NotesPageData struct {
	PageData
	Notes []*domain.Note
}

// NotePageData contains single note page data.
type NotePageData struct {
	PageData
	Note        *domain.Note
	Attachments []*domain.Attachment
}

// NoteFormPageData contains note create/edit form data.
type NoteFormPageData struct {
	PageData
	Note *domain.Note
}

// RegisterRoutes registers note routes. All of them require a session.
func (h *NoteHandler) RegisterRoutes(r chi.Router) {
	r.Get("/notes", h.handleList)
	r.Get("/notes/new", h.handleNewForm)
	r.Post("/notes", h.handleCreate)
	r.Get("/notes/{id}", h.handleShow)
	r.Get("/notes/{id}/edit", h.handleEditForm)
	r.Post("/notes/{id}", h.handleUpdate)
	r.Post("/notes/{id}/delete", h.handleDelete)
}

func (h *NoteHandler) handleList(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())

	out, err := h.noteService.ListNotes(r.Context(), service.ListNotesInput{Identity: id})
	if err != nil {
		h.renderer.renderError(w, statusForError(err), userMessage(err), id.Username())
		return
	}

	h.renderer.render(w, "notes.html", NotesPageData{
		PageData: PageData{
			Title:     "Notes - NoteVault",
			Username:  id.Username(),
			CSRFToken: auth.CSRFTokenFromContext(r.Context()),
		},
		Notes: out.Notes,
	})
}

func (h *NoteHandler) handleNewForm(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())

	h.renderer.render(w, "note_form.html", NoteFormPageData{
		PageData: PageData{
			Title:     "New Note - NoteVault",
			Username:  id.Username(),
			CSRFToken: auth.CSRFTokenFromContext(r.Context()),
		},
	})
}

func (h *NoteHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, http.StatusBadRequest, "Invalid form data", id.Username())
		return
	}

	out, err := h.noteService.CreateNote(r.Context(), service.CreateNoteInput{
		Identity: id,
		Title:    r.PostFormValue("title"),
		Content:  r.PostFormValue("content"),
	})
	if err != nil {
		h.renderFormError(w, r, err, nil)
		return
	}

	http.Redirect(w, r, "/notes/"+strconv.FormatInt(out.Note.ID, 10), http.StatusSeeOther)
}

func (h *NoteHandler) handleShow(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())

	noteID, err := parseNoteID(r)
	if err != nil {
		h.renderer.renderError(w, http.StatusNotFound, "Note not found", id.Username())
		return
	}

	out, err := h.noteService.GetNote(r.Context(), service.GetNoteInput{
		Identity: id,
		NoteID:   noteID,
	})
	if err != nil {
		h.renderer.renderError(w, statusForError(err), userMessage(err), id.Username())
		return
	}

	atts, err := h.attachmentService.ListAttachments(r.Context(), service.ListAttachmentsInput{
		Identity: id,
		NoteID:   noteID,
	})
	if err != nil {
		h.logger.Error().Err(err).Int64("note_id", noteID).Msg("Failed to list attachments")
		atts = &service.ListAttachmentsOutput{}
	}

	h.renderer.render(w, "note.html", NotePageData{
		PageData: PageData{
			Title:     out.Note.Title + " - NoteVault",
			Username:  id.Username(),
			CSRFToken: auth.CSRFTokenFromContext(r.Context()),
		},
		Note:        out.Note,
		Attachments: atts.Attachments,
	})
}

func (h *NoteHandler) handleEditForm(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())

	noteID, err := parseNoteID(r)
	if err != nil {
		h.renderer.renderError(w, http.StatusNotFound, "Note not found", id.Username())
		return
	}

	out, err := h.noteService.GetNote(r.Context(), service.GetNoteInput{
		Identity: id,
		NoteID:   noteID,
	})
	if err != nil {
		h.renderer.renderError(w, statusForError(err), userMessage(err), id.Username())
		return
	}

	h.renderer.render(w, "note_form.html", NoteFormPageData{
		PageData: PageData{
			Title:     "Edit Note - NoteVault",
			Username:  id.Username(),
			CSRFToken: auth.CSRFTokenFromContext(r.Context()),
		},
		Note: out.Note,
	})
}

func (h *NoteHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())

	noteID, err := parseNoteID(r)
	if err != nil {
		h.renderer.renderError(w, http.StatusNotFound, "Note not found", id.Username())
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, http.StatusBadRequest, "Invalid form data", id.Username())
		return
	}

	out, err := h.noteService.UpdateNote(r.Context(), service.UpdateNoteInput{
		Identity: id,
		NoteID:   noteID,
		Title:    r.PostFormValue("title"),
		Content:  r.PostFormValue("content"),
	})
	if err != nil {
		h.renderFormError(w, r, err, &domain.Note{
			ID:      noteID,
			Title:   r.PostFormValue("title"),
			Content: r.PostFormValue("content"),
		})
		return
	}

	http.Redirect(w, r, "/notes/"+strconv.FormatInt(out.Note.ID, 10), http.StatusSeeOther)
}

func (h *NoteHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())

	noteID, err := parseNoteID(r)
	if err != nil {
		h.renderer.renderError(w, http.StatusNotFound, "Note not found", id.Username())
		return
	}

	if err := h.noteService.DeleteNote(r.Context(), service.DeleteNoteInput{
		Identity: id,
		NoteID:   noteID,
	}); err != nil {
		h.renderer.renderError(w, statusForError(err), userMessage(err), id.Username())
		return
	}

	http.Redirect(w, r, "/notes", http.StatusSeeOther)
}

// renderFormError re-renders the note form with the submitted values and
// the validation message.
func (h *NoteHandler) renderFormError(w http.ResponseWriter, r *http.Request, err error, note *domain.Note) {
	id := auth.IdentityFromContext(r.Context())

	status := statusForError(err)
	if status >= http.StatusInternalServerError || status == http.StatusForbidden {
		h.renderer.renderError(w, status, userMessage(err), id.Username())
		return
	}

	if note == nil {
		note = &domain.Note{
			Title:   r.PostFormValue("title"),
			Content: r.PostFormValue("content"),
		}
	}

	h.renderer.renderStatus(w, status, "note_form.html", NoteFormPageData{
		PageData: PageData{
			Title:     "Note - NoteVault",
			Username:  id.Username(),
			CSRFToken: auth.CSRFTokenFromContext(r.Context()),
			Error:     userMessage(err),
		},
		Note: note,
	})
}

func parseNoteID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
