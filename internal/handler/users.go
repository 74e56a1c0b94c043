// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lapcms/lapcms/internal/middleware"
	"github.com/lapcms/lapcms/internal/model"
	"github.com/lapcms/lapcms/internal/service"
	"github.com/lapcms/lapcms/internal/store"
)

// ListUsers handles GET /api/users. Admin only.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.queries.ListUsers(r.Context())
	if err != nil {
		writeInternalError(w, r, "failed to list users", err)
		return
	}

	items := make([]map[string]any, 0, len(users))
	for _, u := range users {
		items = append(items, userJSON(u))
	}
	writeSuccess(w, http.StatusOK, map[string]any{"users": items})
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Bio      string `json:"bio"`
	SiteName string `json:"siteName"`
}

// CreateUser handles POST /api/users. Admin only. Every new user gets a
// site provisioned with a fresh API key.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, site, err := h.users.Create(r.Context(), service.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
		Bio:      req.Bio,
		SiteName: req.SiteName,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			writeError(w, http.StatusConflict, "A user with this email already exists", "EMAIL_EXISTS")
			return
		}
		serviceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{
		"message": "User created",
		"user":    userJSON(user),
		"site":    siteJSON(site),
	})
}

// GetUser handles GET /api/users/{id}. Admin only. Includes the user's
// sites.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID", "INVALID_INPUT")
		return
	}

	user, err := h.queries.GetUserByID(r.Context(), id)
	if err != nil {
		if store.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "User not found", "NOT_FOUND")
			return
		}
		writeInternalError(w, r, "failed to get user", err)
		return
	}

	sites, err := h.queries.ListSitesByUser(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, "failed to list user sites", err)
		return
	}

	items := make([]map[string]any, 0, len(sites))
	for _, s := range sites {
		items = append(items, siteJSON(s))
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"user":  userJSON(user),
		"sites": items,
	})
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	Bio      *string `json:"bio"`
	IsActive *bool   `json:"isActive"`
}

// UpdateUser handles PUT /api/users/{id}. Admin only. Omitted fields keep
// their current values.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID", "INVALID_INPUT")
		return
	}

	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	existing, err := h.queries.GetUserByID(r.Context(), id)
	if err != nil {
		if store.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "User not found", "NOT_FOUND")
			return
		}
		writeInternalError(w, r, "failed to get user", err)
		return
	}

	in := service.UpdateUserInput{
		Name:     existing.Name,
		Email:    existing.Email,
		Role:     existing.Role,
		Bio:      existing.Bio,
		IsActive: existing.IsActive,
	}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Email != nil {
		in.Email = *req.Email
	}
	if req.Role != nil {
		in.Role = *req.Role
	}
	if req.Bio != nil {
		in.Bio = *req.Bio
	}
	if req.IsActive != nil {
		in.IsActive = *req.IsActive
	}

	user, err := h.users.Update(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			writeError(w, http.StatusConflict, "A user with this email already exists", "EMAIL_EXISTS")
			return
		}
		serviceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"message": "User updated",
		"user":    userJSON(user),
	})
}

// DeleteUser handles DELETE /api/users/{id}. Admin only. Self-deletion and
// deleting a user who still owns posts are both rejected.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.UserFromContext(r)

	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID", "INVALID_INPUT")
		return
	}

	if err := h.users.Delete(r.Context(), actor.ID, id); err != nil {
		switch {
		case errors.Is(err, service.ErrSelfDelete):
			writeError(w, http.StatusBadRequest, "You cannot delete your own account", "SELF_DELETE")
		case errors.Is(err, service.ErrUserHasPosts):
			writeError(w, http.StatusBadRequest, "User still owns posts", "USER_HAS_POSTS")
		default:
			serviceError(w, r, err)
		}
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"message": "User deleted"})
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UpdatePassword handles PUT /api/users/update/password: the requesting
// user changes their own password after proving the current one.
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r)

	var req updatePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.users.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, service.ErrBadPassword) {
			writeError(w, http.StatusUnauthorized, "Current password is incorrect", "INVALID_PASSWORD")
			return
		}
		serviceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"message": "Password updated"})
}

type updateSiteRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Domain      *string `json:"domain"`
}

// UpdateSite handles PUT /api/users/update-site: the requesting user edits
// their own site. A null or empty domain clears the restriction.
func (h *Handler) UpdateSite(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r)

	var req updateSiteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	existing, err := h.users.SiteFor(r.Context(), user.ID)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	in := service.UpdateSiteInput{
		Name:        existing.Name,
		Description: existing.Description,
		Domain:      req.Domain,
	}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Domain == nil && existing.Domain.Valid {
		domain := existing.Domain.String
		in.Domain = &domain
	}

	site, err := h.users.UpdateSite(r.Context(), user.ID, in)
	if err != nil {
		if errors.Is(err, service.ErrDomainExists) {
			writeError(w, http.StatusConflict, "This domain is already in use", "DOMAIN_EXISTS")
			return
		}
		serviceError(w, r, err)
		return
	}

	// Cached site lookups carry the old name and domain until evicted.
	if err := h.sites.Invalidate(r.Context(), site.ApiKey); err != nil {
		slog.Warn("failed to invalidate site cache", "error", err, "site_id", site.ID)
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"message": "Site updated",
		"site":    siteJSON(site),
	})
}

// RegenerateAPIKey handles PUT /api/users/regenerate-api-key. The old key
// stops working as soon as its cache entry is gone.
func (h *Handler) RegenerateAPIKey(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r)

	existing, err := h.users.SiteFor(r.Context(), user.ID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	oldKey := existing.ApiKey

	site, err := h.users.RegenerateAPIKey(r.Context(), user.ID)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	if err := h.sites.Invalidate(r.Context(), oldKey); err != nil {
		slog.Warn("failed to invalidate site cache", "error", err, "site_id", site.ID)
	}

	h.events.Record(r.Context(), model.EventLevelInfo, model.EventCategorySite,
		model.EventAPIKeyRegenerated, sql.NullInt64{Int64: user.ID, Valid: true}, r,
		map[string]string{"site": site.Name})

	writeSuccess(w, http.StatusOK, map[string]any{
		"message": "API key regenerated",
		"apiKey":  site.ApiKey,
	})
}

// Activities handles GET /api/users/activities: the requesting user's
// recent audit events.
func (h *Handler) Activities(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r)
	_, limit, _ := parsePagination(r, 20, 100)

	events, err := h.events.RecentByUser(r.Context(), user.ID, limit)
	if err != nil {
		writeInternalError(w, r, "failed to list activities", err)
		return
	}

	items := make([]map[string]any, 0, len(events))
	for _, e := range events {
		items = append(items, eventJSON(e))
	}
	writeSuccess(w, http.StatusOK, map[string]any{"activities": items})
}

func siteJSON(s store.Site) map[string]any {
	out := map[string]any{
		"id":          s.ID,
		"userId":      s.UserID,
		"name":        s.Name,
		"description": s.Description,
		"apiKey":      s.ApiKey,
		"isActive":    s.IsActive,
		"createdAt":   s.CreatedAt,
		"updatedAt":   s.UpdatedAt,
	}
	if s.Domain.Valid {
		out["domain"] = s.Domain.String
	} else {
		out["domain"] = nil
	}
	return out
}

func eventJSON(e store.Event) map[string]any {
	return map[string]any{
		"id":        e.ID,
		"level":     e.Level,
		"category":  e.Category,
		"message":   e.Message,
		"ipAddress": e.IpAddress,
		"url":       e.Url,
		"metadata":  e.Metadata,
		"createdAt": e.CreatedAt,
	}
}
