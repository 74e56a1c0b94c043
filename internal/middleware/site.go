// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lapcms/lapcms/internal/cache"
	"github.com/lapcms/lapcms/internal/store"
	"github.com/lapcms/lapcms/internal/util"
)

// APIKeyHeader carries the site key on every SDK request.
const APIKeyHeader = "x-api-key"

// SiteResolver resolves the x-api-key header into a site row for the SDK
// surface, going through the site cache.
type SiteResolver struct {
	sites *cache.SiteCache
}

// NewSiteResolver creates the site resolver middleware.
func NewSiteResolver(sites *cache.SiteCache) *SiteResolver {
	return &SiteResolver{sites: sites}
}

// RequireAPIKey resolves the request's API key into an active site and
// attaches it to the context. Unknown keys and missing keys get 401;
// deactivated sites get 403.
func (s *SiteResolver) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "API key required", "API_KEY_MISSING")
			return
		}

		if site, ok := testKeySite(key); ok {
			ctx := context.WithValue(r.Context(), ContextKeySite, site)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		site, err := s.sites.GetByAPIKey(r.Context(), key)
		if err != nil {
			if store.IsNotFound(err) {
				writeError(w, http.StatusUnauthorized, "Invalid API key", "API_KEY_INVALID")
				return
			}
			writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
			return
		}
		if !site.IsActive {
			writeError(w, http.StatusForbidden, "Site has been deactivated", "SITE_DEACTIVATED")
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeySite, site)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DomainGate enforces the site's domain restriction. Sites without a
// configured domain accept any origin, as do requests from loopback hosts
// so local development always works. Must run after RequireAPIKey.
func DomainGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		site, ok := SiteFromContext(r)
		if !ok {
			writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
			return
		}

		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = r.Header.Get("Referer")
		}

		if !site.Domain.Valid || util.IsLoopbackHost(origin) {
			allowOrigin(w, origin)
			next.ServeHTTP(w, r)
			return
		}

		if origin == "" {
			writeError(w, http.StatusForbidden,
				"Origin or Referer header required for domain-restricted sites", "ORIGIN_REQUIRED")
			return
		}

		host := util.OriginHost(origin)
		if !util.MatchesDomain(host, site.Domain.String) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(errorBody{
				Error:         "This API key is not authorized for domain " + host,
				Code:          "DOMAIN_NOT_ALLOWED",
				AllowedDomain: site.Domain.String,
			})
			return
		}

		allowOrigin(w, origin)
		next.ServeHTTP(w, r)
	})
}

// allowOrigin sets the CORS response headers for an admitted SDK request.
func allowOrigin(w http.ResponseWriter, origin string) {
	if origin == "" {
		origin = "*"
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, x-api-key")
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Set("Vary", "Origin")
}

// Preflight answers CORS preflight requests for the SDK surface without
// touching the API key: browsers send OPTIONS before the key header is
// attached.
func Preflight(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = "*"
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, x-api-key")
	h.Set("Access-Control-Max-Age", "86400")
	w.WriteHeader(http.StatusNoContent)
}
