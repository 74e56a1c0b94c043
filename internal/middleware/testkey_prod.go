// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build prod

package middleware

import "github.com/lapcms/lapcms/internal/store"

// Production builds carry no test key; every API key goes through the store.
func testKeySite(string) (store.Site, bool) {
	return store.Site{}, false
}
