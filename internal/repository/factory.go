// Package repository provides the data access layer for NoteVault.
// This file contains the container type holding all repository instances.
package repository

import (
	"context"
)

// Repositories holds all repository instances.
type Repositories struct {
	User       UserRepository
	Note       NoteRepository
	Attachment AttachmentRepository
}

// DatabaseHealth is an interface for database health checks.
// Satisfied by both the SQLite and PostgreSQL DB wrappers.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Close() error
}
