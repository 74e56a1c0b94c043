// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost_RequiresTitle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/posts", env.userToken, map[string]any{
		"excerpt": "no title here",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_TITLE", body(t, rec)["code"])
}

func TestCreatePost_DerivesSlugAndDefaults(t *testing.T) {
	env := newTestEnv(t)

	post := env.createPost(t, env.userToken, map[string]any{
		"title": "Hello World!",
	})
	assert.Equal(t, "hello-world", post["slug"])
	assert.Equal(t, "DRAFT", post["status"])
	assert.Equal(t, "POST", post["type"])
	assert.Nil(t, post["publishedAt"])

	seo := post["seo"].(map[string]any)
	// Resolved display fields fall back to the title, but the score only
	// counts what the author actually set.
	assert.Equal(t, "Hello World!", seo["metaTitle"])
	assert.Equal(t, float64(0), seo["score"])
}

func TestCreatePost_SlugConflict(t *testing.T) {
	env := newTestEnv(t)
	env.createPost(t, env.userToken, map[string]any{"title": "First Post"})

	rec := env.do(t, http.MethodPost, "/api/posts", env.userToken, map[string]any{
		"title": "Another",
		"slug":  "first-post",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "SLUG_EXISTS", body(t, rec)["code"])
}

func TestUpdatePost_SlugConflictIsConflictStatus(t *testing.T) {
	env := newTestEnv(t)
	env.createPost(t, env.userToken, map[string]any{"title": "First Post"})
	second := env.createPost(t, env.userToken, map[string]any{"title": "Second Post"})

	rec := env.do(t, http.MethodPut, "/api/posts/"+jsonID(second), env.userToken, map[string]any{
		"slug": "first-post",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "SLUG_EXISTS", body(t, rec)["code"])
}

func TestPublishLifecycle(t *testing.T) {
	env := newTestEnv(t)
	post := env.createPost(t, env.userToken, map[string]any{"title": "Lifecycle"})
	id := jsonID(post)

	rec := env.do(t, http.MethodPut, "/api/posts/"+id+"/publish", env.userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	published := body(t, rec)["post"].(map[string]any)
	require.NotNil(t, published["publishedAt"])
	firstStamp := published["publishedAt"]

	rec = env.do(t, http.MethodPut, "/api/posts/"+id+"/unpublish", env.userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	unpublished := body(t, rec)["post"].(map[string]any)
	assert.Equal(t, "DRAFT", unpublished["status"])
	// The original publish date survives the round trip.
	assert.Equal(t, firstStamp, unpublished["publishedAt"])

	rec = env.do(t, http.MethodPut, "/api/posts/"+id+"/publish", env.userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	republished := body(t, rec)["post"].(map[string]any)
	assert.Equal(t, firstStamp, republished["publishedAt"])
}

func TestUpdatePost_OnlyAuthorOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	post := env.createPost(t, env.adminToken, map[string]any{"title": "Admin Post"})

	rec := env.do(t, http.MethodPut, "/api/posts/"+jsonID(post), env.userToken, map[string]any{
		"title": "Hijacked",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", body(t, rec)["code"])

	rec = env.do(t, http.MethodPut, "/api/posts/"+jsonID(post), env.adminToken, map[string]any{
		"title": "Renamed by Admin",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdatePost_PartialKeepsFields(t *testing.T) {
	env := newTestEnv(t)
	post := env.createPost(t, env.userToken, map[string]any{
		"title":   "Partial",
		"excerpt": "keep me",
	})

	rec := env.do(t, http.MethodPut, "/api/posts/"+jsonID(post), env.userToken, map[string]any{
		"title": "Partial Renamed",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := body(t, rec)["post"].(map[string]any)
	assert.Equal(t, "Partial Renamed", updated["title"])
	assert.Equal(t, "keep me", updated["excerpt"])
}

func TestMyPosts_ScopedToAuthor(t *testing.T) {
	env := newTestEnv(t)
	env.createPost(t, env.userToken, map[string]any{"title": "Mine"})
	env.createPost(t, env.adminToken, map[string]any{"title": "Theirs"})

	rec := env.do(t, http.MethodGet, "/api/posts/my", env.userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := body(t, rec)
	posts := resp["posts"].([]any)
	require.Len(t, posts, 1)
	assert.Equal(t, "Mine", posts[0].(map[string]any)["title"])

	pagination := resp["pagination"].(map[string]any)
	assert.Equal(t, float64(1), pagination["total"])
	assert.Equal(t, float64(1), pagination["pages"])
}

func TestListPosts_StatusFilter(t *testing.T) {
	env := newTestEnv(t)
	env.createPost(t, env.userToken, map[string]any{"title": "Draft One"})
	env.createPost(t, env.userToken, map[string]any{"title": "Live One", "status": "PUBLISHED"})

	rec := env.do(t, http.MethodGet, "/api/posts?status=PUBLISHED", env.userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	posts := body(t, rec)["posts"].([]any)
	require.Len(t, posts, 1)
	assert.Equal(t, "Live One", posts[0].(map[string]any)["title"])
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t)
	post := env.createPost(t, env.userToken, map[string]any{"title": "Doomed"})

	rec := env.do(t, http.MethodDelete, "/api/posts/"+jsonID(post), env.userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/posts/"+jsonID(post), env.userToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", body(t, rec)["code"])
}

func TestPostTaxonomyLinks(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/categories", env.userToken, map[string]any{"name": "News"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	category := body(t, rec)["category"].(map[string]any)

	rec = env.do(t, http.MethodPost, "/api/tags", env.userToken, map[string]any{"name": "golang"})
	require.Equal(t, http.StatusCreated, rec.Code)
	tag := body(t, rec)["tag"].(map[string]any)

	post := env.createPost(t, env.userToken, map[string]any{
		"title":       "Tagged",
		"categoryIds": []any{category["id"]},
		"tagIds":      []any{tag["id"]},
	})

	categories := post["categories"].([]any)
	require.Len(t, categories, 1)
	assert.Equal(t, "news", categories[0].(map[string]any)["slug"])

	tags := post["tags"].([]any)
	require.Len(t, tags, 1)
	assert.Equal(t, "golang", tags[0].(map[string]any)["slug"])

	// Deleting the referenced category is now blocked.
	rec = env.do(t, http.MethodDelete, "/api/categories/"+jsonID(category), env.userToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CATEGORY_IN_USE", body(t, rec)["code"])
}

// jsonID formats the numeric id field of a decoded JSON object.
func jsonID(obj map[string]any) string {
	return itoa(int64(obj["id"].(float64)))
}
