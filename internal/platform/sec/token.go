// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// GenerateSecureToken returns a base64url-encoded token with byteLength
// bytes of entropy from the OS CSPRNG. 32 bytes yields 256 bits.
func GenerateSecureToken(byteLength int) (string, error) {
	raw := make([]byte, byteLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("sec: failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// HashToken returns the SHA-256 hex digest of a token.
//
// Only this digest is ever persisted. A database leak therefore never exposes
// usable bearer tokens, and the digest doubles as a unique lookup key.
func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}
