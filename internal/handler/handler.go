// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the HTTP handlers for the admin REST API and the
// public SDK surface.
package handler

import (
	"context"
	"database/sql"
	"io"

	"github.com/alexedwards/scs/v2"

	"github.com/lapcms/lapcms/internal/auth"
	"github.com/lapcms/lapcms/internal/cache"
	"github.com/lapcms/lapcms/internal/config"
	"github.com/lapcms/lapcms/internal/service"
	"github.com/lapcms/lapcms/internal/store"
)

// SessionKeyUserID is the session key for the authenticated user ID.
const SessionKeyUserID = "user_id"

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// Handler holds shared dependencies for all HTTP handlers.
type Handler struct {
	cfg      *config.Config
	queries  *store.Queries
	posts    *service.PostService
	users    *service.UserService
	taxonomy *service.TaxonomyService
	events   *service.EventService
	tokens   *auth.TokenManager
	sessions *scs.SessionManager
	sites    *cache.SiteCache
	uploads  Uploader
}

// Deps bundles the dependencies the handler needs.
type Deps struct {
	Config   *config.Config
	DB       *sql.DB
	Queries  *store.Queries
	Posts    *service.PostService
	Users    *service.UserService
	Taxonomy *service.TaxonomyService
	Events   *service.EventService
	Tokens   *auth.TokenManager
	Sessions *scs.SessionManager
	Sites    *cache.SiteCache
	Uploads  Uploader
}

// New creates the handler.
func New(d Deps) *Handler {
	return &Handler{
		cfg:      d.Config,
		queries:  d.Queries,
		posts:    d.Posts,
		users:    d.Users,
		taxonomy: d.Taxonomy,
		events:   d.Events,
		tokens:   d.Tokens,
		sessions: d.Sessions,
		sites:    d.Sites,
		uploads:  d.Uploads,
	}
}
