// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/lapcms/lapcms/internal/middleware"
	"github.com/lapcms/lapcms/internal/model"
	"github.com/lapcms/lapcms/internal/store"
)

// DashboardStats handles GET /api/dashboard/stats. Regular users see only
// their own content; admins see platform-wide numbers.
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := middleware.UserFromContext(r)

	var authorID int64
	if !user.IsAdmin() {
		authorID = user.ID
	}

	countByStatus := func(status string) (int64, error) {
		return h.queries.CountPosts(ctx, store.CountPostsParams{
			Status: status, AuthorID: authorID,
		})
	}

	total, err := countByStatus("")
	if err != nil {
		writeInternalError(w, r, "failed to count posts", err)
		return
	}
	published, err := countByStatus(model.PostStatusPublished)
	if err != nil {
		writeInternalError(w, r, "failed to count posts", err)
		return
	}
	drafts, err := countByStatus(model.PostStatusDraft)
	if err != nil {
		writeInternalError(w, r, "failed to count posts", err)
		return
	}
	archived, err := countByStatus(model.PostStatusArchived)
	if err != nil {
		writeInternalError(w, r, "failed to count posts", err)
		return
	}

	categories, err := h.queries.ListCategories(ctx)
	if err != nil {
		writeInternalError(w, r, "failed to list categories", err)
		return
	}
	tags, err := h.queries.ListTags(ctx)
	if err != nil {
		writeInternalError(w, r, "failed to list tags", err)
		return
	}
	comments, err := h.queries.CountComments(ctx)
	if err != nil {
		writeInternalError(w, r, "failed to count comments", err)
		return
	}

	recent, err := h.queries.ListPosts(ctx, store.ListPostsParams{
		AuthorID: authorID, Limit: 5, Offset: 0,
	})
	if err != nil {
		writeInternalError(w, r, "failed to list recent posts", err)
		return
	}

	recentItems := make([]map[string]any, 0, len(recent))
	for _, p := range recent {
		item := map[string]any{
			"id":        p.ID,
			"title":     p.Title,
			"slug":      p.Slug,
			"status":    p.Status,
			"createdAt": p.CreatedAt,
		}
		if p.PublishedAt.Valid {
			item["publishedAt"] = p.PublishedAt.Time
		} else {
			item["publishedAt"] = nil
		}
		recentItems = append(recentItems, item)
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"stats": map[string]any{
			"posts": map[string]any{
				"total":     total,
				"published": published,
				"drafts":    drafts,
				"archived":  archived,
			},
			"categories": len(categories),
			"tags":       len(tags),
			"comments":   comments,
		},
		"recentPosts": recentItems,
	})
}
