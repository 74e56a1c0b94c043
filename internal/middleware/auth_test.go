// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lapcms/lapcms/internal/auth"
	"github.com/lapcms/lapcms/internal/service"
	"github.com/lapcms/lapcms/internal/store"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func testQueries(t *testing.T) *store.Queries {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)

	require.NoError(t, store.Migrate(db))
	return store.New(db)
}

func testAuth(t *testing.T, q *store.Queries) (*Auth, *auth.TokenManager) {
	t.Helper()
	tm := auth.NewTokenManager(testSecret, "")
	events := service.NewEventService(q, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewAuth(tm, q, events), tm
}

func activeUser(t *testing.T, q *store.Queries, email string) store.User {
	t.Helper()
	now := time.Now().UTC()
	u, err := q.CreateUser(context.Background(), store.CreateUserParams{
		Email: email, PasswordHash: "x", Name: "U", Role: "USER",
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return u
}

// okHandler records whether the chain reached it and echoes the context user.
func okHandler(reached *bool, gotUser *store.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*reached = true
		if u, ok := UserFromContext(r); ok && gotUser != nil {
			*gotUser = u
		}
		w.WriteHeader(http.StatusOK)
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestRequireAuth_MissingToken(t *testing.T) {
	q := testQueries(t)
	a, _ := testAuth(t, q)

	var reached bool
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	rec := httptest.NewRecorder()
	a.RequireAuth(okHandler(&reached, nil)).ServeHTTP(rec, req)

	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_MISSING", decodeError(t, rec).Code)

	// The rejection lands in the audit log.
	n, err := q.CountEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	q := testQueries(t)
	a, _ := testAuth(t, q)

	var reached bool
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	a.RequireAuth(okHandler(&reached, nil)).ServeHTTP(rec, req)

	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "TOKEN_INVALID", decodeError(t, rec).Code)
}

func TestRequireAuth_ValidCookie(t *testing.T) {
	q := testQueries(t)
	a, tm := testAuth(t, q)
	user := activeUser(t, q, "u@example.com")

	token, err := tm.GenerateToken(user.ID, user.Email)
	require.NoError(t, err)

	var reached bool
	var got store.User
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	rec := httptest.NewRecorder()
	a.RequireAuth(okHandler(&reached, &got)).ServeHTTP(rec, req)

	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.ID, got.ID)
}

func TestRequireAuth_BearerFallback(t *testing.T) {
	q := testQueries(t)
	a, tm := testAuth(t, q)
	user := activeUser(t, q, "u@example.com")

	token, err := tm.GenerateToken(user.ID, user.Email)
	require.NoError(t, err)

	var reached bool
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	a.RequireAuth(okHandler(&reached, nil)).ServeHTTP(rec, req)

	assert.True(t, reached)
}

func TestRequireAuth_DeletedUser(t *testing.T) {
	q := testQueries(t)
	a, tm := testAuth(t, q)
	user := activeUser(t, q, "gone@example.com")

	token, err := tm.GenerateToken(user.ID, user.Email)
	require.NoError(t, err)
	require.NoError(t, q.DeleteUser(context.Background(), user.ID))

	var reached bool
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	rec := httptest.NewRecorder()
	a.RequireAuth(okHandler(&reached, nil)).ServeHTTP(rec, req)

	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "TOKEN_INVALID", decodeError(t, rec).Code)
}

func TestRequireAuth_DisabledAccount(t *testing.T) {
	q := testQueries(t)
	a, tm := testAuth(t, q)
	user := activeUser(t, q, "off@example.com")

	_, err := q.UpdateUser(context.Background(), store.UpdateUserParams{
		Name: user.Name, Email: user.Email, Role: user.Role,
		IsActive: false, UpdatedAt: time.Now().UTC(), ID: user.ID,
	})
	require.NoError(t, err)

	token, err := tm.GenerateToken(user.ID, user.Email)
	require.NoError(t, err)

	var reached bool
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	rec := httptest.NewRecorder()
	a.RequireAuth(okHandler(&reached, nil)).ServeHTTP(rec, req)

	assert.False(t, reached)
	assert.Equal(t, "ACCOUNT_DISABLED", decodeError(t, rec).Code)
}

func TestOptionalAuth_NeverRejects(t *testing.T) {
	q := testQueries(t)
	a, _ := testAuth(t, q)

	var reached bool
	req := httptest.NewRequest(http.MethodGet, "/api/sdk/posts", nil)
	rec := httptest.NewRecorder()
	a.OptionalAuth(okHandler(&reached, nil)).ServeHTTP(rec, req)

	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	var reached bool
	next := okHandler(&reached, nil)

	// No user in context.
	rec := httptest.NewRecorder()
	RequireAdmin(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	assert.False(t, reached)
	assert.Equal(t, "ADMIN_REQUIRED", decodeError(t, rec).Code)

	// Plain user.
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req = req.WithContext(context.WithValue(req.Context(), ContextKeyUser, store.User{Role: "USER"}))
	rec = httptest.NewRecorder()
	RequireAdmin(next).ServeHTTP(rec, req)
	assert.False(t, reached)

	// Admin.
	req = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req = req.WithContext(context.WithValue(req.Context(), ContextKeyUser, store.User{Role: "ADMIN"}))
	rec = httptest.NewRecorder()
	RequireAdmin(next).ServeHTTP(rec, req)
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}
