package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/halverson/notevault/internal/auth"
	"github.com/halverson/notevault/internal/domain"
	"github.com/halverson/notevault/internal/pkg/crypto"
	"github.com/halverson/notevault/internal/repository"
	"github.com/halverson/notevault/internal/storage"
)

// AttachmentService handles file attachments on notes. Access follows the
// owning note: whoever owns the note owns its attachments.
type AttachmentService struct {
	attachments repository.AttachmentRepository
	notes       repository.NoteRepository
	blobs       storage.BlobStorage
	maxSize     int64
	logger      zerolog.Logger
}

// NewAttachmentService creates a new attachment service.
func NewAttachmentService(
	attachments repository.AttachmentRepository,
	notes repository.NoteRepository,
	blobs storage.BlobStorage,
	maxSize int64,
	logger zerolog.Logger,
) *AttachmentService {
	return &AttachmentService{
		attachments: attachments,
		notes:       notes,
		blobs:       blobs,
		maxSize:     maxSize,
		logger:      logger.With().Str("service", "attachment").Logger(),
	}
}

// UploadAttachmentInput contains parameters for uploading an attachment.
type UploadAttachmentInput struct {
	Identity auth.Identity
	NoteID   int64
	Filename string
	Content  io.Reader
}

// UploadAttachmentOutput contains the created attachment.
type UploadAttachmentOutput struct {
	Attachment *domain.Attachment
}

// UploadAttachment stores a file on a note the identity owns.
// Content is hashed and deduplicated: identical files share one blob.
func (s *AttachmentService) UploadAttachment(ctx context.Context, input UploadAttachmentInput) (*UploadAttachmentOutput, error) {
	input.Filename = strings.TrimSpace(input.Filename)
	if input.Filename == "" {
		return nil, ErrFilenameRequired
	}

	if _, err := s.ownedNote(ctx, input.Identity, input.NoteID); err != nil {
		return nil, err
	}

	// Buffer the upload so the hash is known before the blob is written.
	// The limit is enforced here, not trusted from the client.
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(input.Content, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if n > s.maxSize {
		return nil, domain.ErrAttachmentTooLarge
	}

	contentHash := crypto.ComputeSHA256(buf.Bytes())

	if err := s.blobs.Store(ctx, contentHash, &buf, n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	att := domain.NewAttachment(input.NoteID, input.Filename, contentHash, n)
	if err := s.attachments.Create(ctx, att); err != nil {
		if errors.Is(err, domain.ErrNoteNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("attachment_id", att.ID).
		Int64("note_id", input.NoteID).
		Str("content_hash", contentHash).
		Int64("size", n).
		Msg("Attachment uploaded")

	return &UploadAttachmentOutput{Attachment: att}, nil
}

// DownloadAttachmentInput contains parameters for downloading an attachment.
type DownloadAttachmentInput struct {
	Identity     auth.Identity
	AttachmentID int64
}

// DownloadAttachmentOutput contains the attachment metadata and content.
// The caller must close Content.
type DownloadAttachmentOutput struct {
	Attachment *domain.Attachment
	Content    io.ReadCloser
}

// DownloadAttachment returns an attachment's content if the identity owns
// the note it belongs to.
func (s *AttachmentService) DownloadAttachment(ctx context.Context, input DownloadAttachmentInput) (*DownloadAttachmentOutput, error) {
	att, err := s.ownedAttachment(ctx, input.Identity, input.AttachmentID)
	if err != nil {
		return nil, err
	}

	content, err := s.blobs.Open(ctx, att.ContentHash)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			s.logger.Error().
				Int64("attachment_id", att.ID).
				Str("content_hash", att.ContentHash).
				Msg("Attachment blob missing")
			return nil, domain.ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return &DownloadAttachmentOutput{Attachment: att, Content: content}, nil
}

// GetAttachmentInput contains parameters for fetching attachment metadata.
type GetAttachmentInput struct {
	Identity     auth.Identity
	AttachmentID int64
}

// GetAttachmentOutput contains the attachment metadata.
type GetAttachmentOutput struct {
	Attachment *domain.Attachment
}

// GetAttachment returns an attachment's metadata if the identity owns the
// note it belongs to.
func (s *AttachmentService) GetAttachment(ctx context.Context, input GetAttachmentInput) (*GetAttachmentOutput, error) {
	att, err := s.ownedAttachment(ctx, input.Identity, input.AttachmentID)
	if err != nil {
		return nil, err
	}
	return &GetAttachmentOutput{Attachment: att}, nil
}

// ListAttachmentsInput contains parameters for listing a note's attachments.
type ListAttachmentsInput struct {
	Identity auth.Identity
	NoteID   int64
}

// ListAttachmentsOutput contains the note's attachments.
type ListAttachmentsOutput struct {
	Attachments []*domain.Attachment
}

// ListAttachments returns all attachments on a note the identity owns.
func (s *AttachmentService) ListAttachments(ctx context.Context, input ListAttachmentsInput) (*ListAttachmentsOutput, error) {
	if _, err := s.ownedNote(ctx, input.Identity, input.NoteID); err != nil {
		return nil, err
	}

	atts, err := s.attachments.ListByNote(ctx, input.NoteID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return &ListAttachmentsOutput{Attachments: atts}, nil
}

// DeleteAttachmentInput contains parameters for deleting an attachment.
type DeleteAttachmentInput struct {
	Identity     auth.Identity
	AttachmentID int64
}

// DeleteAttachment removes an attachment record. The blob is deleted
// immediately when no other record references it; the garbage collector
// covers any blob left behind by a failure here.
func (s *AttachmentService) DeleteAttachment(ctx context.Context, input DeleteAttachmentInput) error {
	att, err := s.ownedAttachment(ctx, input.Identity, input.AttachmentID)
	if err != nil {
		return err
	}

	if err := s.attachments.Delete(ctx, att.ID); err != nil {
		if errors.Is(err, domain.ErrAttachmentNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	count, err := s.attachments.CountByContentHash(ctx, att.ContentHash)
	if err != nil {
		s.logger.Warn().Err(err).Str("content_hash", att.ContentHash).Msg("Failed to count blob references")
		return nil
	}
	if count == 0 {
		if err := s.blobs.Delete(ctx, att.ContentHash); err != nil {
			s.logger.Warn().Err(err).Str("content_hash", att.ContentHash).Msg("Failed to delete orphaned blob")
		}
	}

	s.logger.Info().
		Int64("attachment_id", att.ID).
		Int64("note_id", att.NoteID).
		Msg("Attachment deleted")

	return nil
}

// ownedNote fetches a note and runs it through the ownership gate.
func (s *AttachmentService) ownedNote(ctx context.Context, id auth.Identity, noteID int64) (*domain.Note, error) {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, domain.ErrNoteNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if d := auth.CheckOwnership(id, note); !d.Allowed() {
		s.logger.Warn().
			Str("identity", id.String()).
			Int64("note_id", noteID).
			Msg("Attachment access denied")
		return nil, domain.ErrAccessDenied
	}

	return note, nil
}

// ownedAttachment fetches an attachment and gates it by its note's owner.
func (s *AttachmentService) ownedAttachment(ctx context.Context, id auth.Identity, attachmentID int64) (*domain.Attachment, error) {
	att, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, domain.ErrAttachmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if _, err := s.ownedNote(ctx, id, att.NoteID); err != nil {
		return nil, err
	}

	return att, nil
}
