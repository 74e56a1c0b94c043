// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lapcms/lapcms/internal/middleware"
)

// sdkGet sends an SDK request with the given API key and origin.
func (env *testEnv) sdkGet(t *testing.T, path, apiKey, origin string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if apiKey != "" {
		req.Header.Set(middleware.APIKeyHeader, apiKey)
	}
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestSDKPosts_RequiresAPIKey(t *testing.T) {
	env := newTestEnv(t)

	rec := env.sdkGet(t, "/api/sdk/posts", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "API_KEY_MISSING", body(t, rec)["code"])

	rec = env.sdkGet(t, "/api/sdk/posts", "bogus-key", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "API_KEY_INVALID", body(t, rec)["code"])
}

func TestSDKPosts_PublishedOnly(t *testing.T) {
	env := newTestEnv(t)
	env.createPost(t, env.userToken, map[string]any{"title": "Hidden Draft"})
	env.createPost(t, env.userToken, map[string]any{"title": "Public Post", "status": "PUBLISHED"})

	rec := env.sdkGet(t, "/api/sdk/posts", env.userSite.ApiKey, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := body(t, rec)
	posts := resp["posts"].([]any)
	require.Len(t, posts, 1)
	post := posts[0].(map[string]any)
	assert.Equal(t, "Public Post", post["title"])
	assert.NotNil(t, post["seo"])

	site := resp["site"].(map[string]any)
	assert.Equal(t, env.userSite.Name, site["name"])

	pagination := resp["pagination"].(map[string]any)
	assert.Equal(t, float64(1), pagination["page"])
	assert.Equal(t, float64(1), pagination["total"])
}

func TestSDKPostBySlug(t *testing.T) {
	env := newTestEnv(t)
	env.createPost(t, env.userToken, map[string]any{"title": "Deep Dive", "status": "PUBLISHED"})
	env.createPost(t, env.userToken, map[string]any{"title": "Still Draft"})

	rec := env.sdkGet(t, "/api/sdk/posts/deep-dive", env.userSite.ApiKey, "")
	require.Equal(t, http.StatusOK, rec.Code)
	post := body(t, rec)["post"].(map[string]any)
	assert.Equal(t, "Deep Dive", post["title"])

	// Draft posts are invisible by slug.
	rec = env.sdkGet(t, "/api/sdk/posts/still-draft", env.userSite.ApiKey, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", body(t, rec)["code"])
}

func TestSDKSearch(t *testing.T) {
	env := newTestEnv(t)
	env.createPost(t, env.userToken, map[string]any{"title": "Brewing Coffee", "status": "PUBLISHED"})
	env.createPost(t, env.userToken, map[string]any{"title": "Tea Ceremony", "status": "PUBLISHED"})

	rec := env.sdkGet(t, "/api/sdk/search?q=COFFEE", env.userSite.ApiKey, "")
	require.Equal(t, http.StatusOK, rec.Code)
	posts := body(t, rec)["posts"].([]any)
	require.Len(t, posts, 1)
	assert.Equal(t, "Brewing Coffee", posts[0].(map[string]any)["title"])

	rec = env.sdkGet(t, "/api/sdk/search", env.userSite.ApiKey, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_QUERY", body(t, rec)["code"])
}

func TestSDKDomainGate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/users/update-site", env.userToken, map[string]any{
		"domain": "blog.example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Foreign origins are refused with the allowed domain in the body.
	rec = env.sdkGet(t, "/api/sdk/posts", env.userSite.ApiKey, "https://evil.example")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	resp := body(t, rec)
	assert.Equal(t, "DOMAIN_NOT_ALLOWED", resp["code"])
	assert.Equal(t, "blog.example.com", resp["allowedDomain"])

	// The configured domain and localhost both pass.
	rec = env.sdkGet(t, "/api/sdk/posts", env.userSite.ApiKey, "https://blog.example.com")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.sdkGet(t, "/api/sdk/posts", env.userSite.ApiKey, "http://localhost:3000")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSDKScript(t *testing.T) {
	env := newTestEnv(t)

	rec := env.sdkGet(t, "/api/sdk/lap-cms.js", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=3600")
	assert.True(t, strings.Contains(rec.Body.String(), "LapCMS"))
}

func TestSDKPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/sdk/posts", nil)
	req.Header.Set("Origin", "https://blog.example.com")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://blog.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
