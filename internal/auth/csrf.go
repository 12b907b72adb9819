package auth

import "crypto/subtle"

// ValidateCSRF compares a submitted CSRF token against the session's token
// in constant time. Empty tokens never validate.
func ValidateCSRF(sessionToken, submitted string) bool {
	if sessionToken == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sessionToken), []byte(submitted)) == 1
}
