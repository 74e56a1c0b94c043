// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"

	"github.com/lapcms/lapcms/internal/service"
	"github.com/lapcms/lapcms/internal/store"
)

type categoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type tagRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ListCategories handles GET /api/categories. Includes per-category post
// counts.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.queries.ListCategories(r.Context())
	if err != nil {
		writeInternalError(w, r, "failed to list categories", err)
		return
	}

	items := make([]map[string]any, 0, len(categories))
	for _, c := range categories {
		items = append(items, categoryWithCountJSON(c))
	}
	writeSuccess(w, http.StatusOK, map[string]any{"categories": items})
}

// CreateCategory handles POST /api/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.taxonomy.CreateCategory(r.Context(), req.Name, req.Slug, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrSlugExists) {
			writeError(w, http.StatusConflict, "A category with this slug already exists", "SLUG_EXISTS")
			return
		}
		serviceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{
		"message":  "Category created",
		"category": categoryJSON(category),
	})
}

// UpdateCategory handles PUT /api/categories/{id}.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid category ID", "INVALID_INPUT")
		return
	}

	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.taxonomy.UpdateCategory(r.Context(), id, req.Name, req.Slug, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrSlugExists) {
			writeError(w, http.StatusConflict, "A category with this slug already exists", "SLUG_EXISTS")
			return
		}
		serviceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"message":  "Category updated",
		"category": categoryJSON(category),
	})
}

// DeleteCategory handles DELETE /api/categories/{id}. Deletion is blocked
// while any post still references the category.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid category ID", "INVALID_INPUT")
		return
	}

	if err := h.taxonomy.DeleteCategory(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrCategoryInUse) {
			writeError(w, http.StatusBadRequest,
				"Category is still referenced by posts", "CATEGORY_IN_USE")
			return
		}
		serviceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"message": "Category deleted"})
}

// ListTags handles GET /api/tags. Includes per-tag post counts.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.queries.ListTags(r.Context())
	if err != nil {
		writeInternalError(w, r, "failed to list tags", err)
		return
	}

	items := make([]map[string]any, 0, len(tags))
	for _, t := range tags {
		items = append(items, tagWithCountJSON(t))
	}
	writeSuccess(w, http.StatusOK, map[string]any{"tags": items})
}

// CreateTag handles POST /api/tags.
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tag, err := h.taxonomy.CreateTag(r.Context(), req.Name, req.Slug)
	if err != nil {
		if errors.Is(err, service.ErrSlugExists) {
			writeError(w, http.StatusConflict, "A tag with this slug already exists", "SLUG_EXISTS")
			return
		}
		serviceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{
		"message": "Tag created",
		"tag":     tagJSON(tag),
	})
}

// UpdateTag handles PUT /api/tags/{id}.
func (h *Handler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tag ID", "INVALID_INPUT")
		return
	}

	var req tagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tag, err := h.taxonomy.UpdateTag(r.Context(), id, req.Name, req.Slug)
	if err != nil {
		if errors.Is(err, service.ErrSlugExists) {
			writeError(w, http.StatusConflict, "A tag with this slug already exists", "SLUG_EXISTS")
			return
		}
		serviceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"message": "Tag updated",
		"tag":     tagJSON(tag),
	})
}

// DeleteTag handles DELETE /api/tags/{id}.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tag ID", "INVALID_INPUT")
		return
	}

	if err := h.taxonomy.DeleteTag(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrTagInUse) {
			writeError(w, http.StatusBadRequest, "Tag is still referenced by posts", "TAG_IN_USE")
			return
		}
		serviceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"message": "Tag deleted"})
}

func categoryJSON(c store.Category) map[string]any {
	return map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"slug":        c.Slug,
		"description": c.Description,
		"createdAt":   c.CreatedAt,
		"updatedAt":   c.UpdatedAt,
	}
}

func categoryWithCountJSON(c store.CategoryWithCount) map[string]any {
	out := categoryJSON(c.Category)
	out["postCount"] = c.PostCount
	return out
}

func tagJSON(t store.Tag) map[string]any {
	return map[string]any{
		"id":        t.ID,
		"name":      t.Name,
		"slug":      t.Slug,
		"createdAt": t.CreatedAt,
		"updatedAt": t.UpdatedAt,
	}
}

func tagWithCountJSON(t store.TagWithCount) map[string]any {
	out := tagJSON(t.Tag)
	out["postCount"] = t.PostCount
	return out
}
