// Package domain contains the core business entities for NoteVault.
package domain

import (
	"time"
	"unicode/utf8"
)

const (
	// MaxNoteTitleLength is the maximum length of a note title.
	MaxNoteTitleLength = 100
)

// Note represents a single note owned by exactly one user.
// Only the owning user may read, update, or delete it.
type Note struct {
	// ID is the unique identifier for the note (auto-generated).
	ID int64 `json:"id"`

	// Title is the note's title. Constraints: 1-100 characters.
	Title string `json:"title"`

	// Content is the note's body text.
	Content string `json:"content"`

	// OwnerUsername references the owning User.Username.
	// Must reference an existing user at creation time.
	OwnerUsername string `json:"owner_username"`

	// CreatedAt is the timestamp when the note was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the note was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewNote creates a new Note for the given owner.
func NewNote(ownerUsername, title, content string) *Note {
	now := time.Now().UTC()
	return &Note{
		Title:         title,
		Content:       content,
		OwnerUsername: ownerUsername,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Owner returns the username of the note's owner.
// Implements the ownership relation used by the authorization gate.
func (n *Note) Owner() string {
	return n.OwnerUsername
}

// ValidateNoteTitle checks that a note title is non-empty and within limits.
func ValidateNoteTitle(title string) error {
	if title == "" {
		return ErrNoteTitleEmpty
	}
	if utf8.RuneCountInString(title) > MaxNoteTitleLength {
		return ErrNoteTitleTooLong
	}
	return nil
}
