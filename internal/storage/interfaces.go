// Package storage provides content-addressed blob storage for attachments.
//
// Blobs are keyed by the hex SHA-256 of their content. Identical uploads
// share one blob; the attachment table tracks which records reference it.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrBlobNotFound indicates the requested blob does not exist.
var ErrBlobNotFound = errors.New("blob not found")

// BlobInfo describes a stored blob.
type BlobInfo struct {
	// ContentHash is the hex SHA-256 of the blob content.
	ContentHash string

	// Size is the blob size in bytes.
	Size int64

	// ModTime is when the blob was last written.
	ModTime time.Time
}

// BlobStorage stores attachment content addressed by hash.
type BlobStorage interface {
	// Store writes blob content under its content hash.
	// Storing an existing hash is a no-op (content-addressed blobs are
	// immutable).
	Store(ctx context.Context, contentHash string, r io.Reader, size int64) error

	// Open returns a reader for the blob content.
	// Returns ErrBlobNotFound if the blob does not exist.
	Open(ctx context.Context, contentHash string) (io.ReadCloser, error)

	// Exists checks whether a blob exists.
	Exists(ctx context.Context, contentHash string) (bool, error)

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, contentHash string) error

	// List walks all stored blobs, calling fn for each.
	// Returning an error from fn stops the walk.
	List(ctx context.Context, fn func(info BlobInfo) error) error
}
