package storage

import (
	"fmt"
	"path/filepath"

	"github.com/halverson/notevault/internal/pkg/crypto"
)

// blobPath returns the relative path for a content hash, fanned out over
// two directory levels to keep directory sizes manageable.
// Example: "ab/cd/abcdef...".
func blobPath(contentHash string) (string, error) {
	if !crypto.ValidateSHA256(contentHash) {
		return "", fmt.Errorf("invalid content hash: %q", contentHash)
	}
	return filepath.Join(contentHash[:2], contentHash[2:4], contentHash), nil
}

// blobKey returns the S3 object key for a content hash.
// Uses forward slashes regardless of platform.
func blobKey(contentHash string) (string, error) {
	if !crypto.ValidateSHA256(contentHash) {
		return "", fmt.Errorf("invalid content hash: %q", contentHash)
	}
	return "blobs/" + contentHash[:2] + "/" + contentHash[2:4] + "/" + contentHash, nil
}
