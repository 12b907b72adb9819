// Package domain contains the core business entities for NoteVault.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the notes service.
package domain

import (
	"time"
)

// User represents a registered user in the system.
// Users own notes and are identified by their username.
type User struct {
	// Username is the unique, immutable identity key for the user.
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This should never be exposed in responses or logs.
	PasswordHash string `json:"-"`

	// Email is the user's email address.
	Email string `json:"email"`

	// FirstName is the user's first name.
	FirstName string `json:"first_name"`

	// LastName is the user's last name.
	LastName string `json:"last_name"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new User with the given profile fields.
// PasswordHash must already be a bcrypt hash, never a plaintext password.
func NewUser(username, passwordHash, email, firstName, lastName string) *User {
	now := time.Now().UTC()
	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
