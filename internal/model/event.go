// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Event levels for the audit log.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories.
const (
	EventCategoryAuth   = "auth"
	EventCategoryPost   = "post"
	EventCategoryUser   = "user"
	EventCategorySite   = "site"
	EventCategoryUpload = "upload"
	EventCategorySystem = "system"
)

// Audit event actions recorded by the auth and site flows.
const (
	EventLoginSuccess      = "login_success"
	EventLoginFailed       = "login_failed"
	EventLogoutSuccess     = "logout_success"
	EventTokenMissing      = "token_missing"
	EventTokenInvalid      = "token_invalid"
	EventAPIKeyRegenerated = "api_key_regenerated"
)
