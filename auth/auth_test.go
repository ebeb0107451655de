// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-annotate/models"
)

func TestGenerateID(t *testing.T) {
	tests := []struct {
		name    string
		byteLen int
		wantLen int // hex encoded length = byteLen * 2
	}{
		{"5 bytes", 5, 10},
		{"16 bytes", 16, 32},
		{"24 bytes", 24, 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := GenerateID(tt.byteLen)
			require.NoError(t, err)
			assert.Len(t, id, tt.wantLen)
			for _, c := range id {
				assert.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'), "invalid hex char: %c", c)
			}
		})
	}

	// Two IDs should be different
	id1, _ := GenerateID(16)
	id2, _ := GenerateID(16)
	assert.NotEqual(t, id1, id2)
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken()
	require.NoError(t, err)
	assert.Len(t, token, 2*TokenBytes)
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		provided string
		wantErr  bool
	}{
		{"matching", "abc123", "abc123", false},
		{"mismatch", "abc123", "abc124", true},
		{"empty provided", "abc123", "", true},
		{"prefix only", "abc123", "abc", true},
		{"empty expected never matches", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateToken(tt.expected, tt.provided)
			if tt.wantErr {
				assert.True(t, errors.Is(err, models.ErrInvalidToken))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsPrivileged(t *testing.T) {
	good := "secret"
	bad := "nope"

	assert.True(t, IsPrivileged("secret", &good))
	assert.False(t, IsPrivileged("secret", &bad))
	assert.False(t, IsPrivileged("secret", nil))
}

func BenchmarkGenerateToken(b *testing.B) {
	for i := 0; i < b.N; i++ {
		GenerateToken()
	}
}
