package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/halverson/notevault/internal/auth"
	"github.com/halverson/notevault/internal/domain"
	"github.com/halverson/notevault/internal/metrics"
	"github.com/halverson/notevault/internal/repository"
)

// noteLockTTL bounds how long a note update lock may be held.
const noteLockTTL = 10 * time.Second

// NoteService handles note CRUD gated by the ownership check:
// only a note's owner may read, update or delete it.
type NoteService struct {
	notes   repository.NoteRepository
	locks   repository.DistributedLock
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewNoteService creates a new note service.
func NewNoteService(notes repository.NoteRepository, locks repository.DistributedLock, m *metrics.Metrics, logger zerolog.Logger) *NoteService {
	return &NoteService{
		notes:   notes,
		locks:   locks,
		metrics: m,
		logger:  logger.With().Str("service", "note").Logger(),
	}
}

// CreateNoteInput contains parameters for note creation.
type CreateNoteInput struct {
	Identity auth.Identity
	Title    string
	Content  string
}

// CreateNoteOutput contains the created note.
type CreateNoteOutput struct {
	Note *domain.Note
}

// CreateNote creates a note owned by the authenticated identity.
// Anonymous identities are denied; the owner is always the caller, never
// a request parameter.
func (s *NoteService) CreateNote(ctx context.Context, input CreateNoteInput) (*CreateNoteOutput, error) {
	if !input.Identity.Authenticated() {
		s.recordDecision("ownership", auth.Deny)
		return nil, domain.ErrAccessDenied
	}

	if err := domain.ValidateNoteTitle(input.Title); err != nil {
		return nil, err
	}

	note := domain.NewNote(input.Identity.Username(), input.Title, input.Content)

	if err := s.notes.Create(ctx, note); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// The owner row vanished between session validation and the
			// insert, meaning the account was deleted concurrently.
			return nil, domain.ErrAccessDenied
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if s.metrics != nil {
		s.metrics.NotesCreatedTotal.Inc()
	}

	s.logger.Info().
		Int64("note_id", note.ID).
		Str("owner", note.OwnerUsername).
		Msg("Note created")

	return &CreateNoteOutput{Note: note}, nil
}

// GetNoteInput contains parameters for fetching a note.
type GetNoteInput struct {
	Identity auth.Identity
	NoteID   int64
}

// GetNoteOutput contains the fetched note.
type GetNoteOutput struct {
	Note *domain.Note
}

// GetNote returns a note if the identity owns it.
// A note owned by someone else yields domain.ErrAccessDenied, not the
// note's existence.
func (s *NoteService) GetNote(ctx context.Context, input GetNoteInput) (*GetNoteOutput, error) {
	note, err := s.getOwned(ctx, input.Identity, input.NoteID)
	if err != nil {
		return nil, err
	}
	return &GetNoteOutput{Note: note}, nil
}

// ListNotesInput contains parameters for listing notes.
type ListNotesInput struct {
	Identity auth.Identity
}

// ListNotesOutput contains the identity's notes, newest first.
type ListNotesOutput struct {
	Notes []*domain.Note
}

// ListNotes returns all notes owned by the identity.
func (s *NoteService) ListNotes(ctx context.Context, input ListNotesInput) (*ListNotesOutput, error) {
	if !input.Identity.Authenticated() {
		s.recordDecision("ownership", auth.Deny)
		return nil, domain.ErrAccessDenied
	}

	notes, err := s.notes.ListByOwner(ctx, input.Identity.Username())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return &ListNotesOutput{Notes: notes}, nil
}

// UpdateNoteInput contains parameters for updating a note.
type UpdateNoteInput struct {
	Identity auth.Identity
	NoteID   int64
	Title    string
	Content  string
}

// UpdateNoteOutput contains the updated note.
type UpdateNoteOutput struct {
	Note *domain.Note
}

// UpdateNote updates a note's title and content if the identity owns it.
// Updates to the same note are serialized through the lock so concurrent
// edits cannot interleave.
func (s *NoteService) UpdateNote(ctx context.Context, input UpdateNoteInput) (*UpdateNoteOutput, error) {
	if err := domain.ValidateNoteTitle(input.Title); err != nil {
		return nil, err
	}

	lockKey := fmt.Sprintf("note:%d", input.NoteID)
	acquired, err := s.locks.Acquire(ctx, lockKey, noteLockTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !acquired {
		return nil, repository.ErrLockNotAcquired
	}
	defer func() {
		if _, err := s.locks.Release(context.WithoutCancel(ctx), lockKey); err != nil {
			s.logger.Warn().Err(err).Str("lock", lockKey).Msg("Failed to release note lock")
		}
	}()

	note, err := s.getOwned(ctx, input.Identity, input.NoteID)
	if err != nil {
		return nil, err
	}

	note.Title = input.Title
	note.Content = input.Content

	if err := s.notes.Update(ctx, note); err != nil {
		if errors.Is(err, domain.ErrNoteNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("note_id", note.ID).
		Str("owner", note.OwnerUsername).
		Msg("Note updated")

	return &UpdateNoteOutput{Note: note}, nil
}

// DeleteNoteInput contains parameters for deleting a note.
type DeleteNoteInput struct {
	Identity auth.Identity
	NoteID   int64
}

// DeleteNote deletes a note if the identity owns it. Attachment records
// cascade with the note; orphaned blobs are reclaimed by the garbage
// collector.
func (s *NoteService) DeleteNote(ctx context.Context, input DeleteNoteInput) error {
	note, err := s.getOwned(ctx, input.Identity, input.NoteID)
	if err != nil {
		return err
	}

	if err := s.notes.Delete(ctx, note.ID); err != nil {
		if errors.Is(err, domain.ErrNoteNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if s.metrics != nil {
		s.metrics.NotesDeletedTotal.Inc()
	}

	s.logger.Info().
		Int64("note_id", note.ID).
		Str("owner", note.OwnerUsername).
		Msg("Note deleted")

	return nil
}

// getOwned fetches a note and runs it through the ownership gate.
func (s *NoteService) getOwned(ctx context.Context, id auth.Identity, noteID int64) (*domain.Note, error) {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, domain.ErrNoteNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if d := auth.CheckOwnership(id, note); !d.Allowed() {
		s.recordDecision("ownership", d)
		s.logger.Warn().
			Str("identity", id.String()).
			Int64("note_id", noteID).
			Str("owner", note.OwnerUsername).
			Msg("Note access denied")
		return nil, domain.ErrAccessDenied
	}
	s.recordDecision("ownership", auth.Allow)

	return note, nil
}

func (s *NoteService) recordDecision(check string, d auth.Decision) {
	if s.metrics != nil {
		s.metrics.RecordAuthzDecision(check, d.String())
	}
}
