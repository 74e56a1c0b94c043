// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/lapcms/lapcms/internal/auth"
	"github.com/lapcms/lapcms/internal/cache"
	"github.com/lapcms/lapcms/internal/config"
	"github.com/lapcms/lapcms/internal/middleware"
	"github.com/lapcms/lapcms/internal/service"
	"github.com/lapcms/lapcms/internal/store"
)

const testPassword = "sup3r-secret-pw"

// fakeUploader captures uploads instead of talking to an object store.
type fakeUploader struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeUploader) Upload(_ context.Context, key, _ string, body io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.keys = append(f.keys, key)
	f.mu.Unlock()
	return "https://cdn.test/" + key, nil
}

type testEnv struct {
	router  chi.Router
	queries *store.Queries
	tokens  *auth.TokenManager
	uploads *fakeUploader

	admin      store.User
	adminToken string
	user       store.User
	userToken  string
	userSite   store.Site
}

// newTestEnv wires the full handler stack against an in-memory database,
// with the routes laid out as the server registers them.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))

	queries := store.New(db)
	cfg := &config.Config{
		JWTSecret: "test-secret-key-32-bytes-long!!!",
		Env:       "development",
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenManager(cfg.JWTSecret, "lapcms")
	sessions := scs.New()

	backend := cache.NewMemoryCache(time.Minute, 100)
	t.Cleanup(func() { _ = backend.Close() })
	siteCache := cache.NewSiteCache(backend, queries, time.Minute)

	eventService := service.NewEventService(queries, logger)
	postService := service.NewPostService(queries)
	userService := service.NewUserService(db, queries)
	taxonomyService := service.NewTaxonomyService(queries)

	uploads := &fakeUploader{}

	h := New(Deps{
		Config:   cfg,
		DB:       db,
		Queries:  queries,
		Posts:    postService,
		Users:    userService,
		Taxonomy: taxonomyService,
		Events:   eventService,
		Tokens:   tokens,
		Sessions: sessions,
		Sites:    siteCache,
		Uploads:  uploads,
	})
	authmw := middleware.NewAuth(tokens, queries, eventService)
	siteResolver := middleware.NewSiteResolver(siteCache)

	r := chi.NewRouter()
	r.Use(sessions.LoadAndSave)
	r.Get("/health", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.With(authmw.OptionalAuth).Post("/logout", h.Logout)
			r.With(authmw.RequireAuth).Get("/me", h.Me)
			r.With(authmw.RequireAuth).Post("/refresh", h.Refresh)
		})
		r.Route("/posts", func(r chi.Router) {
			r.Use(authmw.RequireAuth)
			r.Get("/", h.ListPosts)
			r.Post("/", h.CreatePost)
			r.Get("/my", h.MyPosts)
			r.Get("/{id}", h.GetPost)
			r.Put("/{id}", h.UpdatePost)
			r.Delete("/{id}", h.DeletePost)
			r.Put("/{id}/publish", h.PublishPost)
			r.Put("/{id}/unpublish", h.UnpublishPost)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireAuth)
				r.Post("/", h.CreateCategory)
				r.Put("/{id}", h.UpdateCategory)
				r.Delete("/{id}", h.DeleteCategory)
			})
		})
		r.Route("/tags", func(r chi.Router) {
			r.Get("/", h.ListTags)
			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireAuth)
				r.Post("/", h.CreateTag)
				r.Put("/{id}", h.UpdateTag)
				r.Delete("/{id}", h.DeleteTag)
			})
		})
		r.Route("/users", func(r chi.Router) {
			r.Use(authmw.RequireAuth)
			r.Put("/update/password", h.UpdatePassword)
			r.Put("/update-site", h.UpdateSite)
			r.Put("/regenerate-api-key", h.RegenerateAPIKey)
			r.Get("/activities", h.Activities)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Get("/{id}", h.GetUser)
				r.Put("/{id}", h.UpdateUser)
				r.Delete("/{id}", h.DeleteUser)
			})
		})
		r.Route("/dashboard", func(r chi.Router) {
			r.Use(authmw.RequireAuth)
			r.Get("/stats", h.DashboardStats)
		})
		r.Route("/upload", func(r chi.Router) {
			r.Use(authmw.RequireAuth)
			r.Post("/upload-image", h.UploadImage)
			r.Post("/upload-image-editorjs", h.UploadImageEditorJS)
		})
		r.Route("/sdk", func(r chi.Router) {
			r.Get("/lap-cms.js", h.SDKScript)
			r.Options("/*", middleware.Preflight)
			r.Group(func(r chi.Router) {
				r.Use(siteResolver.RequireAPIKey)
				r.Use(middleware.DomainGate)
				r.Get("/posts", h.SDKPosts)
				r.Get("/posts/{slug}", h.SDKPostBySlug)
				r.Get("/search", h.SDKSearch)
			})
		})
	})

	env := &testEnv{
		router:  r,
		queries: queries,
		tokens:  tokens,
		uploads: uploads,
	}

	ctx := context.Background()
	admin, _, err := userService.Create(ctx, service.CreateUserInput{
		Email:    "admin@example.com",
		Password: testPassword,
		Name:     "Admin",
		Role:     "ADMIN",
	})
	require.NoError(t, err)
	env.admin = admin
	env.adminToken, err = tokens.GenerateToken(admin.ID, admin.Email)
	require.NoError(t, err)

	user, site, err := userService.Create(ctx, service.CreateUserInput{
		Email:    "writer@example.com",
		Password: testPassword,
		Name:     "Writer",
		Role:     "USER",
	})
	require.NoError(t, err)
	env.user = user
	env.userSite = site
	env.userToken, err = tokens.GenerateToken(user.ID, user.Email)
	require.NoError(t, err)

	return env
}

// do executes a JSON request against the test router. An empty token sends
// no credentials.
func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// body decodes a recorded JSON response.
func body(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

// createPost makes a post through the API and returns its response body.
func (env *testEnv) createPost(t *testing.T, token string, payload map[string]any) map[string]any {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/posts", token, payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return body(t, rec)["post"].(map[string]any)
}
