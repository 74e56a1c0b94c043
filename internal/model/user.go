// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain constants and pure helpers shared across the
// application: user roles, post statuses, site API keys, and event levels.
package model

// User roles.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// IsValidRole reports whether role is a known user role.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}
