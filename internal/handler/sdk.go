// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lapcms/lapcms/internal/middleware"
	"github.com/lapcms/lapcms/internal/store"
	"github.com/lapcms/lapcms/web"
)

// SDKScript handles GET /api/sdk/lap-cms.js: the embedded client script,
// served to any origin with an hour of caching.
func (h *Handler) SDKScript(w http.ResponseWriter, r *http.Request) {
	script, err := web.Static.ReadFile("static/lap-cms.js")
	if err != nil {
		writeInternalError(w, r, "sdk script missing from binary", err)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(script)
}

// SDKPosts handles GET /api/sdk/posts: published posts for the resolved
// site's public consumers, filterable by category and tag slug.
func (h *Handler) SDKPosts(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r, 10, 50)
	q := r.URL.Query()

	params := store.ListPublishedPostsParams{
		CategorySlug: q.Get("category"),
		TagSlug:      q.Get("tag"),
		Limit:        limit,
		Offset:       offset,
	}
	posts, err := h.queries.ListPublishedPosts(r.Context(), params)
	if err != nil {
		writeInternalError(w, r, "failed to list published posts", err)
		return
	}
	total, err := h.queries.CountPublishedPosts(r.Context(), store.CountPublishedPostsParams{
		CategorySlug: params.CategorySlug, TagSlug: params.TagSlug,
	})
	if err != nil {
		writeInternalError(w, r, "failed to count published posts", err)
		return
	}

	h.writeSDKPosts(w, r, posts, page, limit, total)
}

// SDKPostBySlug handles GET /api/sdk/posts/{slug}. Only published posts
// are visible.
func (h *Handler) SDKPostBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	post, err := h.queries.GetPublishedPostBySlug(r.Context(), slug)
	if err != nil {
		if store.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Post not found", "NOT_FOUND")
			return
		}
		writeInternalError(w, r, "failed to get published post", err)
		return
	}

	item, err := h.postJSON(r.Context(), post)
	if err != nil {
		writeInternalError(w, r, "failed to load post relations", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"post": item,
		"site": h.sdkSiteJSON(r),
	})
}

// SDKSearch handles GET /api/sdk/search?q=: case-insensitive title and
// excerpt search over published posts.
func (h *Handler) SDKSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "Search query is required", "MISSING_QUERY")
		return
	}
	page, limit, offset := parsePagination(r, 10, 50)

	posts, err := h.queries.SearchPublishedPosts(r.Context(), store.SearchPublishedPostsParams{
		Query: query, Limit: limit, Offset: offset,
	})
	if err != nil {
		writeInternalError(w, r, "failed to search posts", err)
		return
	}
	total, err := h.queries.CountSearchPublishedPosts(r.Context(), query)
	if err != nil {
		writeInternalError(w, r, "failed to count search results", err)
		return
	}

	h.writeSDKPosts(w, r, posts, page, limit, total)
}

func (h *Handler) writeSDKPosts(w http.ResponseWriter, r *http.Request, posts []store.Post, page, limit, total int64) {
	items := make([]map[string]any, 0, len(posts))
	for _, p := range posts {
		item, err := h.postJSON(r.Context(), p)
		if err != nil {
			writeInternalError(w, r, "failed to load post relations", err)
			return
		}
		items = append(items, item)
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"posts":      items,
		"pagination": paginationJSON(page, limit, total),
		"site":       h.sdkSiteJSON(r),
	})
}

// sdkSiteJSON shapes the resolved site block included in SDK responses.
// Never exposes the API key or owner.
func (h *Handler) sdkSiteJSON(r *http.Request) map[string]any {
	site, ok := middleware.SiteFromContext(r)
	if !ok {
		return nil
	}
	out := map[string]any{"name": site.Name}
	if site.Domain.Valid {
		out["domain"] = site.Domain.String
	} else {
		out["domain"] = nil
	}
	return out
}
