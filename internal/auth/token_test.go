// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-with-enough-length!!"

func TestGenerateAndVerifyToken(t *testing.T) {
	tm := NewTokenManager(testSecret, "")

	token, err := tm.GenerateToken(42, "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "lap-cms", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(TokenLifetime), claims.ExpiresAt.Time, time.Minute)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	token, err := NewTokenManager(testSecret, "").GenerateToken(1, "a@b.c")
	require.NoError(t, err)

	_, err = NewTokenManager("another-secret-entirely-0123456789", "").VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyTokenExpired(t *testing.T) {
	tm := NewTokenManager(testSecret, "")

	claims := Claims{
		UserID: 7,
		Email:  "old@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-48 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-24 * time.Hour)),
			Issuer:    "lap-cms",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = tm.VerifyToken(signed)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsNonHMAC(t *testing.T) {
	tm := NewTokenManager(testSecret, "")
	// A token with alg=none must never verify.
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tm.VerifyToken(unsigned)
	assert.Error(t, err)
}

func TestExtractBearerToken(t *testing.T) {
	assert.Equal(t, "abc123", ExtractBearerToken("Bearer abc123"))
	assert.Equal(t, "abc123", ExtractBearerToken("bearer abc123"))
	assert.Empty(t, ExtractBearerToken(""))
	assert.Empty(t, ExtractBearerToken("Basic abc123"))
	assert.Empty(t, ExtractBearerToken("Bearer"))
}
