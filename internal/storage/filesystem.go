package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// FilesystemStorage implements BlobStorage on the local filesystem.
type FilesystemStorage struct {
	rootDir string
	logger  zerolog.Logger
}

// NewFilesystemStorage creates a filesystem blob store rooted at rootDir.
func NewFilesystemStorage(rootDir string, logger zerolog.Logger) (*FilesystemStorage, error) {
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}

	return &FilesystemStorage{
		rootDir: rootDir,
		logger:  logger.With().Str("component", "fs-storage").Logger(),
	}, nil
}

func (s *FilesystemStorage) fullPath(contentHash string) (string, error) {
	rel, err := blobPath(contentHash)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.rootDir, rel), nil
}

// Store writes blob content atomically via a temp file and rename.
func (s *FilesystemStorage) Store(ctx context.Context, contentHash string, r io.Reader, size int64) error {
	path, err := s.fullPath(contentHash)
	if err != nil {
		return err
	}

	// Content-addressed blobs are immutable; an existing file is the same
	// content already stored.
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}

	tmpPath := filepath.Join(s.rootDir, ".tmp-"+uuid.New().String())
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	written, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write blob: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if size >= 0 && written != size {
		os.Remove(tmpPath)
		return fmt.Errorf("blob size mismatch: wrote %d, expected %d", written, size)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize blob: %w", err)
	}

	s.logger.Debug().
		Str("content_hash", contentHash).
		Int64("size", written).
		Msg("Blob stored")

	return nil
}

// Open returns a reader for the blob content.
func (s *FilesystemStorage) Open(ctx context.Context, contentHash string) (io.ReadCloser, error) {
	path, err := s.fullPath(contentHash)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}

	return f, nil
}

// Exists checks whether a blob exists.
func (s *FilesystemStorage) Exists(ctx context.Context, contentHash string) (bool, error) {
	path, err := s.fullPath(contentHash)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat blob: %w", err)
	}

	return true, nil
}

// Delete removes a blob. Missing blobs are ignored.
func (s *FilesystemStorage) Delete(ctx context.Context, contentHash string) error {
	path, err := s.fullPath(contentHash)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}

	return nil
}

// List walks all stored blobs.
func (s *FilesystemStorage) List(ctx context.Context, fn func(info BlobInfo) error) error {
	return filepath.WalkDir(s.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		name := d.Name()
		rel, pathErr := blobPath(name)
		if pathErr != nil {
			// Temp files and strays are not blobs; skip them.
			return nil
		}
		if filepath.Join(s.rootDir, rel) != path {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat blob %s: %w", name, err)
		}

		return fn(BlobInfo{
			ContentHash: name,
			Size:        fi.Size(),
			ModTime:     fi.ModTime(),
		})
	})
}

// Ensure FilesystemStorage implements BlobStorage.
var _ BlobStorage = (*FilesystemStorage)(nil)
