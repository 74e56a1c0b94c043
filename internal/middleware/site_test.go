// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lapcms/lapcms/internal/cache"
	"github.com/lapcms/lapcms/internal/store"
)

func testResolver(t *testing.T, q *store.Queries) *SiteResolver {
	t.Helper()
	backend := cache.NewMemoryCache(time.Minute, 100)
	t.Cleanup(func() { _ = backend.Close() })
	return NewSiteResolver(cache.NewSiteCache(backend, q, time.Minute))
}

func createSite(t *testing.T, q *store.Queries, domain string) store.Site {
	t.Helper()
	user := activeUser(t, q, domain+"@example.com")
	now := time.Now().UTC()
	site, err := q.CreateSite(context.Background(), store.CreateSiteParams{
		UserID:    user.ID,
		Name:      "Site",
		Domain:    sql.NullString{String: domain, Valid: domain != ""},
		ApiKey:    "key-" + domain,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return site
}

func sdkHandler(reached *bool, gotSite *store.Site) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*reached = true
		if s, ok := SiteFromContext(r); ok && gotSite != nil {
			*gotSite = s
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAPIKey_Missing(t *testing.T) {
	q := testQueries(t)
	s := testResolver(t, q)

	var reached bool
	rec := httptest.NewRecorder()
	s.RequireAPIKey(sdkHandler(&reached, nil)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sdk/posts", nil))

	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "API_KEY_MISSING", decodeError(t, rec).Code)
}

func TestRequireAPIKey_Invalid(t *testing.T) {
	q := testQueries(t)
	s := testResolver(t, q)

	var reached bool
	req := httptest.NewRequest(http.MethodGet, "/api/sdk/posts", nil)
	req.Header.Set(APIKeyHeader, "nope")
	rec := httptest.NewRecorder()
	s.RequireAPIKey(sdkHandler(&reached, nil)).ServeHTTP(rec, req)

	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "API_KEY_INVALID", decodeError(t, rec).Code)
}

func TestRequireAPIKey_ResolvesSite(t *testing.T) {
	q := testQueries(t)
	s := testResolver(t, q)
	site := createSite(t, q, "")

	var reached bool
	var got store.Site
	req := httptest.NewRequest(http.MethodGet, "/api/sdk/posts", nil)
	req.Header.Set(APIKeyHeader, site.ApiKey)
	rec := httptest.NewRecorder()
	s.RequireAPIKey(sdkHandler(&reached, &got)).ServeHTTP(rec, req)

	assert.True(t, reached)
	assert.Equal(t, site.ID, got.ID)
}

func TestRequireAPIKey_DeactivatedSite(t *testing.T) {
	q := testQueries(t)
	s := testResolver(t, q)
	site := createSite(t, q, "")
	require.NoError(t, q.SetSiteActive(context.Background(), store.SetSiteActiveParams{
		IsActive: false, UpdatedAt: time.Now().UTC(), ID: site.ID,
	}))

	var reached bool
	req := httptest.NewRequest(http.MethodGet, "/api/sdk/posts", nil)
	req.Header.Set(APIKeyHeader, site.ApiKey)
	rec := httptest.NewRecorder()
	s.RequireAPIKey(sdkHandler(&reached, nil)).ServeHTTP(rec, req)

	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "SITE_DEACTIVATED", decodeError(t, rec).Code)
}

func TestRequireAPIKey_TestKey(t *testing.T) {
	q := testQueries(t)
	s := testResolver(t, q)

	var reached bool
	var got store.Site
	req := httptest.NewRequest(http.MethodGet, "/api/sdk/posts", nil)
	req.Header.Set(APIKeyHeader, TestAPIKey)
	rec := httptest.NewRecorder()
	s.RequireAPIKey(sdkHandler(&reached, &got)).ServeHTTP(rec, req)

	assert.True(t, reached)
	assert.Equal(t, TestAPIKey, got.ApiKey)
}

func withSite(req *http.Request, site store.Site) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), ContextKeySite, site))
}

func TestDomainGate_NoDomainConfigured(t *testing.T) {
	site := store.Site{IsActive: true}

	var reached bool
	req := httptest.NewRequest(http.MethodGet, "/api/sdk/posts", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rec := httptest.NewRecorder()
	DomainGate(sdkHandler(&reached, nil)).ServeHTTP(rec, withSite(req, site))

	assert.True(t, reached)
	assert.Equal(t, "https://anywhere.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestDomainGate_LoopbackBypassesRestriction(t *testing.T) {
	site := store.Site{Domain: sql.NullString{String: "blog.example.com", Valid: true}, IsActive: true}

	var reached bool
	req := httptest.NewRequest(http.MethodGet, "/api/sdk/posts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	DomainGate(sdkHandler(&reached, nil)).ServeHTTP(rec, withSite(req, site))

	assert.True(t, reached)
}

func TestDomainGate_OriginRequired(t *testing.T) {
	site := store.Site{Domain: sql.NullString{String: "blog.example.com", Valid: true}, IsActive: true}

	var reached bool
	req := httptest.NewRequest(http.MethodGet, "/api/sdk/posts", nil)
	rec := httptest.NewRecorder()
	DomainGate(sdkHandler(&reached, nil)).ServeHTTP(rec, withSite(req, site))

	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ORIGIN_REQUIRED", decodeError(t, rec).Code)
}

func TestDomainGate_RejectsForeignDomain(t *testing.T) {
	site := store.Site{Domain: sql.NullString{String: "blog.example.com", Valid: true}, IsActive: true}

	var reached bool
	req := httptest.NewRequest(http.MethodGet, "/api/sdk/posts", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	DomainGate(sdkHandler(&reached, nil)).ServeHTTP(rec, withSite(req, site))

	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "DOMAIN_NOT_ALLOWED", body.Code)
	assert.Equal(t, "blog.example.com", body.AllowedDomain)
}

func TestDomainGate_AllowsSubdomainAndReferer(t *testing.T) {
	site := store.Site{Domain: sql.NullString{String: "example.com", Valid: true}, IsActive: true}

	var reached bool
	req := httptest.NewRequest(http.MethodGet, "/api/sdk/posts", nil)
	req.Header.Set("Referer", "https://www.example.com/some/page")
	rec := httptest.NewRecorder()
	DomainGate(sdkHandler(&reached, nil)).ServeHTTP(rec, withSite(req, site))

	assert.True(t, reached)
	assert.Equal(t, "https://www.example.com/some/page", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/sdk/posts", nil)
	req.Header.Set("Origin", "https://blog.example.com")
	rec := httptest.NewRecorder()
	Preflight(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://blog.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
}

func TestRateLimit(t *testing.T) {
	var hits int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	})

	t.Run("disabled passes everything", func(t *testing.T) {
		hits = 0
		h := RateLimit(0)(next)
		for range 5 {
			req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			h.ServeHTTP(httptest.NewRecorder(), req)
		}
		assert.Equal(t, 5, hits)
	})

	t.Run("blocks past the burst", func(t *testing.T) {
		hits = 0
		h := RateLimit(3)(next)
		var last *httptest.ResponseRecorder
		for range 5 {
			req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
			req.RemoteAddr = "10.0.0.2:1234"
			last = httptest.NewRecorder()
			h.ServeHTTP(last, req)
		}
		assert.Equal(t, 3, hits)
		assert.Equal(t, http.StatusTooManyRequests, last.Code)
		assert.Equal(t, "RATE_LIMIT_EXCEEDED", decodeError(t, last).Code)
	})
}
