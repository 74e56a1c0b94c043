// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lapcms/lapcms/internal/auth"
	"github.com/lapcms/lapcms/internal/middleware"
	"github.com/lapcms/lapcms/internal/model"
	"github.com/lapcms/lapcms/internal/store"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login. Unknown email and wrong password
// both answer 401 but with distinct codes.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.queries.GetUserByEmail(r.Context(), email)
	if err != nil {
		if store.IsNotFound(err) {
			h.events.Record(r.Context(), model.EventLevelWarning, model.EventCategoryAuth,
				model.EventLoginFailed, sql.NullInt64{}, r, map[string]string{"email": email, "reason": "unknown_email"})
			writeError(w, http.StatusUnauthorized, "User not found", "USER_NOT_FOUND")
			return
		}
		writeInternalError(w, r, "login lookup failed", err)
		return
	}

	if !user.IsActive {
		writeError(w, http.StatusForbidden, "Account is disabled", "ACCOUNT_DISABLED")
		return
	}

	ok, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil {
		writeInternalError(w, r, "password verification failed", err)
		return
	}
	if !ok {
		h.events.Record(r.Context(), model.EventLevelWarning, model.EventCategoryAuth,
			model.EventLoginFailed, sql.NullInt64{Int64: user.ID, Valid: true}, r,
			map[string]string{"reason": "bad_password"})
		writeError(w, http.StatusUnauthorized, "Invalid password", "INVALID_PASSWORD")
		return
	}

	token, err := h.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		writeInternalError(w, r, "token generation failed", err)
		return
	}

	// Regenerate the session ID to prevent session fixation.
	if err := h.sessions.RenewToken(r.Context()); err != nil {
		writeInternalError(w, r, "session renewal failed", err)
		return
	}
	h.sessions.Put(r.Context(), SessionKeyUserID, user.ID)

	h.setAuthCookie(w, token)

	if err := h.queries.UpdateUserLastLogin(r.Context(), store.UpdateUserLastLoginParams{
		LastLoginAt: sql.NullTime{Time: time.Now().UTC(), Valid: true},
		ID:          user.ID,
	}); err != nil {
		slog.Warn("failed to record last login", "error", err, "user_id", user.ID)
	}

	h.events.Record(r.Context(), model.EventLevelInfo, model.EventCategoryAuth,
		model.EventLoginSuccess, sql.NullInt64{Int64: user.ID, Valid: true}, r, nil)

	writeSuccess(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
		"user":    userJSON(user),
	})
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if user, ok := middleware.UserFromContext(r); ok {
		h.events.Record(r.Context(), model.EventLevelInfo, model.EventCategoryAuth,
			model.EventLogoutSuccess, sql.NullInt64{Int64: user.ID, Valid: true}, r, nil)
	}

	if err := h.sessions.Destroy(r.Context()); err != nil {
		slog.Error("session destroy failed", "error", err)
	}
	h.clearAuthCookie(w)

	writeSuccess(w, http.StatusOK, map[string]any{"message": "Logged out"})
}

// Me handles GET /api/auth/me. Runs behind RequireAuth.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication token required", "TOKEN_MISSING")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"user": userJSON(user)})
}

// Refresh handles POST /api/auth/refresh: re-issues the JWT and cookie for
// an already authenticated user.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication token required", "TOKEN_MISSING")
		return
	}

	token, err := h.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		writeInternalError(w, r, "token generation failed", err)
		return
	}
	h.setAuthCookie(w, token)

	writeSuccess(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  userJSON(user),
	})
}

func (h *Handler) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.TokenLifetime.Seconds()),
		HttpOnly: true,
		Secure:   !h.cfg.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !h.cfg.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
	})
}

// userJSON shapes a user for API responses. The password hash never leaves
// the server.
func userJSON(u store.User) map[string]any {
	out := map[string]any{
		"id":        u.ID,
		"email":     u.Email,
		"name":      u.Name,
		"role":      u.Role,
		"bio":       u.Bio,
		"isActive":  u.IsActive,
		"createdAt": u.CreatedAt,
		"updatedAt": u.UpdatedAt,
	}
	if u.LastLoginAt.Valid {
		out["lastLoginAt"] = u.LastLoginAt.Time
	}
	return out
}
