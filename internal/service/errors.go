// Package service implements the business logic for NoteVault.
// Services sit between the HTTP handlers and the repositories, enforcing
// validation, authentication and the ownership authorization gate.
package service

import "errors"

// Field limits for registration input.
const (
	MaxUsernameLength = 30
	MaxPasswordLength = 100
	MinPasswordLength = 8
	MaxEmailLength    = 50
	MaxNameLength     = 30
)

// Validation errors - returned when user input fails validation.
// These map to HTTP 400 responses.
var (
	ErrUsernameRequired = errors.New("username is required")
	ErrUsernameTooLong  = errors.New("username exceeds maximum length of 30 characters")
	ErrUsernameInvalid  = errors.New("username may only contain letters, digits, '.', '-' and '_'")

	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length of 100 characters")

	ErrEmailRequired = errors.New("email is required")
	ErrEmailTooLong  = errors.New("email exceeds maximum length of 50 characters")
	ErrEmailInvalid  = errors.New("email address is not valid")

	ErrNameTooLong = errors.New("name exceeds maximum length of 30 characters")

	ErrFilenameRequired = errors.New("filename is required")
)

// ErrInternalError indicates an unexpected infrastructure failure.
// The original error is wrapped for logging; users see a generic message.
var ErrInternalError = errors.New("internal error")
