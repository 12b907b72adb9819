// Package domain contains the core business entities for NoteVault.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateUsername indicates a user with the same username exists.
	// Registration with a taken username surfaces this; it is a
	// user-correctable validation error, never fatal.
	ErrDuplicateUsername = errors.New("username already taken")

	// ErrInvalidCredentials indicates authentication failed.
	// Deliberately generic: callers must not be able to tell a wrong
	// username from a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ===========================================
	// Note Errors
	// ===========================================

	// ErrNoteNotFound indicates the requested note does not exist.
	ErrNoteNotFound = errors.New("note not found")

	// ErrNoteTitleEmpty indicates the note title is missing.
	ErrNoteTitleEmpty = errors.New("note title must not be empty")

	// ErrNoteTitleTooLong indicates the note title exceeds 100 characters.
	ErrNoteTitleTooLong = errors.New("note title exceeds maximum length of 100 characters")

	// ===========================================
	// Attachment Errors
	// ===========================================

	// ErrAttachmentNotFound indicates the requested attachment does not exist.
	ErrAttachmentNotFound = errors.New("attachment not found")

	// ErrAttachmentTooLarge indicates the attachment exceeds the size limit.
	ErrAttachmentTooLarge = errors.New("attachment exceeds maximum size")

	// ===========================================
	// Authorization Errors
	// ===========================================

	// ErrAccessDenied indicates the authorization gate denied the request:
	// the session is anonymous, the identity does not match, or the CSRF
	// check failed. No partial mutation is ever performed on denial.
	ErrAccessDenied = errors.New("access denied")

	// ErrSessionNotFound indicates the session token is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")

	// ===========================================
	// Integrity Errors
	// ===========================================

	// ErrIntegrityFault indicates duplicate records were found where
	// uniqueness was assumed. This is an internal fault, not user input
	// error; it is logged and the request fails.
	ErrIntegrityFault = errors.New("data integrity fault")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., username, note ID).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}

// WrapError wraps an error with domain context if it's not already a DomainError.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	return &DomainError{
		Err:     err,
		Message: message,
	}
}
