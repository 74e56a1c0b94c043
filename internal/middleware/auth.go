// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/lapcms/lapcms/internal/auth"
	"github.com/lapcms/lapcms/internal/model"
	"github.com/lapcms/lapcms/internal/service"
	"github.com/lapcms/lapcms/internal/store"
)

// Auth guards the admin API with signed session tokens. The token travels
// in the auth cookie or, for non-browser clients, a Bearer header; the
// cookie wins when both are present.
type Auth struct {
	tokens  *auth.TokenManager
	queries *store.Queries
	events  *service.EventService
}

// NewAuth creates the auth middleware.
func NewAuth(tokens *auth.TokenManager, queries *store.Queries, events *service.EventService) *Auth {
	return &Auth{tokens: tokens, queries: queries, events: events}
}

// extractToken pulls the session token from the cookie, falling back to
// the Authorization header.
func extractToken(r *http.Request) string {
	if c, err := r.Cookie(auth.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return auth.ExtractBearerToken(r.Header.Get("Authorization"))
}

// RequireAuth rejects requests without a valid token: missing tokens get
// 401 TOKEN_MISSING, bad or expired ones 403 TOKEN_INVALID. The resolved
// user is attached to the request context.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := a.resolve(w, r, true)
		if !ok {
			return
		}
		ctx := context.WithValue(r.Context(), ContextKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth attaches the user when a valid token is present but never
// rejects the request.
func (a *Auth) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := a.resolve(w, r, false); ok {
			r = r.WithContext(context.WithValue(r.Context(), ContextKeyUser, user))
		}
		next.ServeHTTP(w, r)
	})
}

// resolve validates the request's token and loads its user. When required
// is true, failures write the error response; the bool reports whether a
// user was attached.
func (a *Auth) resolve(w http.ResponseWriter, r *http.Request, required bool) (store.User, bool) {
	token := extractToken(r)
	if token == "" {
		if required {
			a.events.Record(r.Context(), model.EventLevelWarning, model.EventCategoryAuth,
				model.EventTokenMissing, sql.NullInt64{}, r, nil)
			writeError(w, http.StatusUnauthorized, "Authentication token required", "TOKEN_MISSING")
		}
		return store.User{}, false
	}

	claims, err := a.tokens.VerifyToken(token)
	if err != nil {
		if required {
			a.events.Record(r.Context(), model.EventLevelWarning, model.EventCategoryAuth,
				model.EventTokenInvalid, sql.NullInt64{}, r, nil)
			writeError(w, http.StatusForbidden, "Invalid or expired token", "TOKEN_INVALID")
		}
		return store.User{}, false
	}

	user, err := a.queries.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		// A token for a deleted account is as good as a forged one.
		if required {
			writeError(w, http.StatusForbidden, "Invalid or expired token", "TOKEN_INVALID")
		}
		return store.User{}, false
	}
	if !user.IsActive {
		if required {
			writeError(w, http.StatusForbidden, "Account is disabled", "ACCOUNT_DISABLED")
		}
		return store.User{}, false
	}

	return user, true
}

// RequireAdmin layers the admin check on top of RequireAuth. It must run
// after RequireAuth in the chain.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r)
		if !ok || !user.IsAdmin() {
			writeError(w, http.StatusForbidden, "Admin access required", "ADMIN_REQUIRED")
			return
		}
		next.ServeHTTP(w, r)
	})
}
