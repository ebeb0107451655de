// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/danielhkuo/quickly-annotate/models"
)

// TokenBytes is the entropy of generated completion and dashboard tokens.
// 5 bytes gives the 10 hex character tokens annotators copy by hand.
const TokenBytes = 5

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateToken creates a short random token for dashboards and completion codes
func GenerateToken() (string, error) {
	return GenerateID(TokenBytes)
}

// ValidateToken checks a bearer token against the campaign's dashboard token.
// The comparison is constant-time; an empty expected token never matches.
func ValidateToken(expected, provided string) error {
	if expected == "" || !hmac.Equal([]byte(provided), []byte(expected)) {
		return models.ErrInvalidToken
	}
	return nil
}

// IsPrivileged reports whether an optional token unlocks privileged views
func IsPrivileged(expected string, provided *string) bool {
	return provided != nil && ValidateToken(expected, *provided) == nil
}
