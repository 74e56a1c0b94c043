// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// site resolution, CORS gating and rate limiting.
package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/lapcms/lapcms/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request-scoped data.
const (
	ContextKeyUser ContextKey = "user"
	ContextKeySite ContextKey = "site"
)

// errorBody is the JSON error shape shared by every API surface.
type errorBody struct {
	Error         string `json:"error"`
	Code          string `json:"code"`
	AllowedDomain string `json:"allowedDomain,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{Error: message, Code: code})
}

// UserFromContext returns the authenticated user attached by RequireAuth.
func UserFromContext(r *http.Request) (store.User, bool) {
	user, ok := r.Context().Value(ContextKeyUser).(store.User)
	return user, ok
}

// SiteFromContext returns the site attached by RequireAPIKey.
func SiteFromContext(r *http.Request) (store.Site, bool) {
	site, ok := r.Context().Value(ContextKeySite).(store.Site)
	return site, ok
}
