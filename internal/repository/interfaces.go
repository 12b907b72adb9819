// Package repository defines data access interfaces for NoteVault.
// These interfaces abstract database operations, allowing for different
// implementations (SQLite, PostgreSQL, in-memory for testing) while keeping
// the service layer clean.
package repository

import (
	"context"

	"github.com/halverson/notevault/internal/domain"
)

// =============================================================================
// User Repository (credential store)
// =============================================================================

// UserRepository defines the interface for user data access.
// The backing store enforces username uniqueness; Create surfaces a
// violation as domain.ErrDuplicateUsername.
type UserRepository interface {
	// Create creates a new user.
	// Returns domain.ErrDuplicateUsername if the username is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByUsername retrieves exactly one user by username.
	// Returns domain.ErrUserNotFound if absent and domain.ErrIntegrityFault
	// if more than one record matches.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// ExistsByUsername checks if a user with the given username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// List returns all users with pagination.
	List(ctx context.Context, opts ListOptions) (*ListResult[domain.User], error)

	// Delete deletes a user by username, cascading to all notes (and their
	// attachments) owned by that user in a single transaction.
	// Returns domain.ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, username string) error
}

// =============================================================================
// Note Repository (ownership-gated resource store)
// =============================================================================

// NoteRepository defines the interface for note data access.
type NoteRepository interface {
	// Create creates a new note. The owner must reference an existing user.
	Create(ctx context.Context, note *domain.Note) error

	// GetByID retrieves a note by ID.
	// Returns domain.ErrNoteNotFound if absent.
	GetByID(ctx context.Context, id int64) (*domain.Note, error)

	// ListByOwner returns all notes owned by a user, newest first.
	ListByOwner(ctx context.Context, ownerUsername string) ([]*domain.Note, error)

	// Update updates an existing note's title and content.
	Update(ctx context.Context, note *domain.Note) error

	// Delete deletes a note by ID, cascading to its attachments.
	Delete(ctx context.Context, id int64) error

	// DeleteAllByOwner deletes all notes owned by a user.
	// Returns the number of notes deleted.
	DeleteAllByOwner(ctx context.Context, ownerUsername string) (int64, error)
}

// =============================================================================
// Attachment Repository
// =============================================================================

// AttachmentRepository defines the interface for attachment metadata access.
// Blob content lives in the storage backend, addressed by content hash.
type AttachmentRepository interface {
	// Create creates a new attachment record.
	Create(ctx context.Context, att *domain.Attachment) error

	// GetByID retrieves an attachment by ID.
	GetByID(ctx context.Context, id int64) (*domain.Attachment, error)

	// ListByNote returns all attachments for a note.
	ListByNote(ctx context.Context, noteID int64) ([]*domain.Attachment, error)

	// Delete deletes an attachment by ID.
	Delete(ctx context.Context, id int64) error

	// CountByContentHash returns how many attachment records reference the
	// given content hash. Used before deleting a shared blob.
	CountByContentHash(ctx context.Context, contentHash string) (int64, error)
}

// =============================================================================
// Common Types
// =============================================================================

// ListOptions contains common pagination options.
type ListOptions struct {
	// Offset is the number of records to skip.
	Offset int

	// Limit is the maximum number of records to return.
	Limit int
}

// ListResult is a generic paginated list result.
type ListResult[T any] struct {
	// Items is the list of items.
	Items []*T

	// Total is the total number of items (without pagination).
	Total int64

	// Offset is the current offset.
	Offset int

	// Limit is the current limit.
	Limit int
}
