// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !prod

package middleware

import "github.com/lapcms/lapcms/internal/store"

// TestAPIKey is a fixed key for SDK integration testing. It resolves to a
// synthetic unrestricted site without touching the database and is compiled
// out of production builds.
const TestAPIKey = "cmdozt34f0004p4aew6o2k8r1"

func testKeySite(key string) (store.Site, bool) {
	if key != TestAPIKey {
		return store.Site{}, false
	}
	return store.Site{
		Name:     "Test Site",
		ApiKey:   TestAPIKey,
		IsActive: true,
	}, true
}
