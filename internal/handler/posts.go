// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/lapcms/lapcms/internal/middleware"
	"github.com/lapcms/lapcms/internal/model"
	"github.com/lapcms/lapcms/internal/seo"
	"github.com/lapcms/lapcms/internal/service"
	"github.com/lapcms/lapcms/internal/store"
)

type postRequest struct {
	Title         *string     `json:"title"`
	Slug          *string     `json:"slug"`
	Excerpt       *string     `json:"excerpt"`
	Content       *string     `json:"content"`
	Type          *string     `json:"type"`
	Status        *string     `json:"status"`
	FeaturedImage *string     `json:"featuredImage"`
	CategoryIDs   []int64     `json:"categoryIds"`
	TagIDs        []int64     `json:"tagIds"`
	SEO           *seo.Fields `json:"seo"`
}

// ListPosts handles GET /api/posts: the admin view over every post, with
// optional status/type/author filters.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r, 20, 100)
	q := r.URL.Query()

	var authorID int64
	if v := q.Get("author"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid author ID", "INVALID_INPUT")
			return
		}
		authorID = id
	}

	params := store.ListPostsParams{
		Status:   strings.ToUpper(q.Get("status")),
		Type:     strings.ToUpper(q.Get("type")),
		AuthorID: authorID,
		Limit:    limit,
		Offset:   offset,
	}
	h.listPosts(w, r, params, page, limit)
}

// MyPosts handles GET /api/posts/my: the requesting user's posts only.
func (h *Handler) MyPosts(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r)
	page, limit, offset := parsePagination(r, 20, 100)

	params := store.ListPostsParams{
		Status:   strings.ToUpper(r.URL.Query().Get("status")),
		AuthorID: user.ID,
		Limit:    limit,
		Offset:   offset,
	}
	h.listPosts(w, r, params, page, limit)
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request, params store.ListPostsParams, page, limit int64) {
	posts, err := h.queries.ListPosts(r.Context(), params)
	if err != nil {
		writeInternalError(w, r, "failed to list posts", err)
		return
	}
	total, err := h.queries.CountPosts(r.Context(), store.CountPostsParams{
		Status: params.Status, Type: params.Type, AuthorID: params.AuthorID,
	})
	if err != nil {
		writeInternalError(w, r, "failed to count posts", err)
		return
	}

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
	})
}

// GetPost handles GET /api/posts/{id}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post ID", "INVALID_INPUT")
		return
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Post not found", "NOT_FOUND")
			return
		}
		writeInternalError(w, r, "failed to get post", err)
		return
	}

	item, err := h.postJSON(r.Context(), post)
	if err != nil {
		writeInternalError(w, r, "failed to load post relations", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"post": item})
}

// CreatePost handles POST /api/posts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r)

	var req postRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Title is required", "MISSING_TITLE")
		return
	}

	post, err := h.posts.Create(r.Context(), user, postInput(req))
	if err != nil {
		if errors.Is(err, service.ErrSlugExists) {
			writeError(w, http.StatusBadRequest, "A post with this slug already exists", "SLUG_EXISTS")
			return
		}
		serviceError(w, r, err)
		return
	}

	item, err := h.postJSON(r.Context(), post)
	if err != nil {
		writeInternalError(w, r, "failed to load post relations", err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{
		"message": "Post created",
		"post":    item,
	})
}

// UpdatePost handles PUT /api/posts/{id}. Omitted fields keep their
// current values.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r)

	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post ID", "INVALID_INPUT")
		return
	}

	var req postRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	existing, err := h.posts.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Post not found", "NOT_FOUND")
			return
		}
		writeInternalError(w, r, "failed to get post", err)
		return
	}

	post, err := h.posts.Update(r.Context(), user, id, mergePostInput(existing, req))
	if err != nil {
		if errors.Is(err, service.ErrSlugExists) {
			writeError(w, http.StatusConflict, "A post with this slug already exists", "SLUG_EXISTS")
			return
		}
		serviceError(w, r, err)
		return
	}

	item, err := h.postJSON(r.Context(), post)
	if err != nil {
		writeInternalError(w, r, "failed to load post relations", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"message": "Post updated",
		"post":    item,
	})
}

// DeletePost handles DELETE /api/posts/{id}. Comments cascade with the
// post via foreign keys.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r)

	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post ID", "INVALID_INPUT")
		return
	}

	if err := h.posts.Delete(r.Context(), user, id); err != nil {
		serviceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"message": "Post deleted"})
}

// PublishPost handles PUT /api/posts/{id}/publish.
func (h *Handler) PublishPost(w http.ResponseWriter, r *http.Request) {
	h.setPostStatus(w, r, model.PostStatusPublished, "Post published")
}

// UnpublishPost handles PUT /api/posts/{id}/unpublish. The publish
// timestamp survives so a later republish keeps the original date.
func (h *Handler) UnpublishPost(w http.ResponseWriter, r *http.Request) {
	h.setPostStatus(w, r, model.PostStatusDraft, "Post unpublished")
}

func (h *Handler) setPostStatus(w http.ResponseWriter, r *http.Request, status, message string) {
	user, _ := middleware.UserFromContext(r)

	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post ID", "INVALID_INPUT")
		return
	}

	post, err := h.posts.SetStatus(r.Context(), user, id, status)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	item, err := h.postJSON(r.Context(), post)
	if err != nil {
		writeInternalError(w, r, "failed to load post relations", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"message": message,
		"post":    item,
	})
}

// postInput maps a request body onto the service input.
func postInput(req postRequest) service.PostInput {
	in := service.PostInput{
		Content:     req.Content,
		CategoryIDs: req.CategoryIDs,
		TagIDs:      req.TagIDs,
	}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Slug != nil {
		in.Slug = *req.Slug
	}
	if req.Excerpt != nil {
		in.Excerpt = *req.Excerpt
	}
	if req.Type != nil {
		in.Type = *req.Type
	}
	if req.Status != nil {
		in.Status = *req.Status
	}
	if req.FeaturedImage != nil {
		in.FeaturedImage = *req.FeaturedImage
	}
	if req.SEO != nil {
		in.SEO = *req.SEO
	}
	return in
}

// mergePostInput overlays a partial update request onto the stored post so
// omitted fields keep their current values.
func mergePostInput(existing store.Post, req postRequest) service.PostInput {
	in := service.PostInput{
		Title:         existing.Title,
		Slug:          existing.Slug,
		Excerpt:       existing.Excerpt,
		Type:          existing.Type,
		Status:        existing.Status,
		FeaturedImage: existing.FeaturedImage,
		SEO:           service.SEOFields(existing),
		CategoryIDs:   req.CategoryIDs,
		TagIDs:        req.TagIDs,
	}
	if existing.Content.Valid {
		content := existing.Content.String
		in.Content = &content
	}

	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Slug != nil {
		in.Slug = *req.Slug
	}
	if req.Excerpt != nil {
		in.Excerpt = *req.Excerpt
	}
	if req.Content != nil {
		in.Content = req.Content
	}
	if req.Type != nil {
		in.Type = *req.Type
	}
	if req.Status != nil {
		in.Status = *req.Status
	}
	if req.FeaturedImage != nil {
		in.FeaturedImage = *req.FeaturedImage
	}
	if req.SEO != nil {
		in.SEO = *req.SEO
	}
	return in
}

// postJSON shapes a post for API responses, including its taxonomy links
// and the resolved SEO block with the completeness score.
func (h *Handler) postJSON(ctx context.Context, p store.Post) (map[string]any, error) {
	categories, err := h.queries.GetPostCategories(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	tags, err := h.queries.GetPostTags(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	resolved, score := h.posts.ResolvedSEO(p)

	out := map[string]any{
		"id":            p.ID,
		"title":         p.Title,
		"slug":          p.Slug,
		"excerpt":       p.Excerpt,
		"type":          p.Type,
		"status":        p.Status,
		"featuredImage": p.FeaturedImage,
		"authorId":      p.AuthorID,
		"createdAt":     p.CreatedAt,
		"updatedAt":     p.UpdatedAt,
		"categories":    categoriesJSON(categories),
		"tags":          tagsJSON(tags),
		"seo":           seoJSON(resolved, score),
	}
	if p.Content.Valid {
		out["content"] = p.Content.String
	} else {
		out["content"] = nil
	}
	if p.PublishedAt.Valid {
		out["publishedAt"] = p.PublishedAt.Time
	} else {
		out["publishedAt"] = nil
	}
	return out, nil
}

func seoJSON(f seo.Fields, score int) map[string]any {
	return map[string]any{
		"metaTitle":          f.MetaTitle,
		"metaDescription":    f.MetaDescription,
		"keywords":           f.Keywords,
		"canonicalUrl":       f.CanonicalURL,
		"ogTitle":            f.OGTitle,
		"ogDescription":      f.OGDescription,
		"ogImage":            f.OGImage,
		"twitterTitle":       f.TwitterTitle,
		"twitterDescription": f.TwitterDescription,
		"noIndex":            f.NoIndex,
		"noFollow":           f.NoFollow,
		"score":              score,
	}
}

func categoriesJSON(categories []store.Category) []map[string]any {
	out := make([]map[string]any, 0, len(categories))
	for _, c := range categories {
		out = append(out, map[string]any{
			"id":          c.ID,
			"name":        c.Name,
			"slug":        c.Slug,
			"description": c.Description,
		})
	}
	return out
}

func tagsJSON(tags []store.Tag) []map[string]any {
	out := make([]map[string]any, 0, len(tags))
	for _, t := range tags {
		out = append(out, map[string]any{
			"id":   t.ID,
			"name": t.Name,
			"slug": t.Slug,
		})
	}
	return out
}

func paginationJSON(page, limit, total int64) map[string]any {
	return map[string]any{
		"page":  page,
		"limit": limit,
		"total": total,
		"pages": totalPages(total, limit),
	}
}
