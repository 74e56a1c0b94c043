// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// APIKeyLength is the number of random bytes in a generated site API key.
const APIKeyLength = 24

// GenerateAPIKey generates a new opaque site API key. The key is returned in
// URL-safe base64 without padding so it can travel in headers and query strings.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, APIKeyLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
