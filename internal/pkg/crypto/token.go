// Package crypto provides cryptographic utilities for NoteVault.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	// SessionTokenBytes is the entropy of a session token in bytes.
	SessionTokenBytes = 32

	// CSRFTokenBytes is the entropy of a CSRF token in bytes.
	CSRFTokenBytes = 32
)

// GenerateSessionToken generates a random opaque session token.
// Format: 64 lowercase hex characters (256 bits of entropy).
func GenerateSessionToken() (string, error) {
	return generateToken(SessionTokenBytes)
}

// GenerateCSRFToken generates a random anti-forgery token.
func GenerateCSRFToken() (string, error) {
	return generateToken(CSRFTokenBytes)
}

// generateToken returns n random bytes hex-encoded.
func generateToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
