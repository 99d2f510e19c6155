package server

import (
	"crypto/rand"
	"fmt"
)

// newSessionToken generates a fresh 32-byte opaque session token.
func newSessionToken() ([]byte, error) {
	token := make([]byte, 32)
	if _, err := rand.Read(token); err != nil {
		return nil, fmt.Errorf("failed to generate random token: %w", err)
	}
	return token, nil
}
