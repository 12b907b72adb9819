// Package domain contains the core business entities for NoteVault.
package domain

import (
	"time"
)

// Attachment represents a file attached to a note.
// Attachments inherit their ownership from the note they belong to and
// are removed when the note (or the note's owner) is deleted.
type Attachment struct {
	// ID is the unique identifier for the attachment (auto-generated).
	ID int64 `json:"id"`

	// NoteID references the owning Note.ID.
	NoteID int64 `json:"note_id"`

	// Filename is the original filename as uploaded.
	Filename string `json:"filename"`

	// Size is the content size in bytes.
	Size int64 `json:"size"`

	// ContentHash is the hex SHA-256 of the content.
	// It doubles as the blob address in the storage backend.
	ContentHash string `json:"content_hash"`

	// CreatedAt is the timestamp when the attachment was uploaded.
	CreatedAt time.Time `json:"created_at"`
}

// NewAttachment creates a new Attachment record for a note.
func NewAttachment(noteID int64, filename, contentHash string, size int64) *Attachment {
	return &Attachment{
		NoteID:      noteID,
		Filename:    filename,
		Size:        size,
		ContentHash: contentHash,
		CreatedAt:   time.Now().UTC(),
	}
}
