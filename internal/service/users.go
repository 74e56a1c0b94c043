// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lapcms/lapcms/internal/auth"
	"github.com/lapcms/lapcms/internal/model"
	"github.com/lapcms/lapcms/internal/store"
	"github.com/lapcms/lapcms/internal/util"
)

// UserService owns account management. Every new account is provisioned
// with a site carrying a fresh API key, so SDK access works immediately.
type UserService struct {
	db      *sql.DB
	queries *store.Queries
}

// NewUserService creates a UserService. The raw handle is kept so user
// plus site creation can run in one transaction.
func NewUserService(db *sql.DB, queries *store.Queries) *UserService {
	return &UserService{db: db, queries: queries}
}

// CreateUserInput is the request-shaped input for account creation.
type CreateUserInput struct {
	Email    string
	Password string
	Name     string
	Role     string
	Bio      string
	SiteName string
}

// Create provisions a user and their site atomically.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (store.User, store.Site, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)

	if in.Email == "" || in.Password == "" || in.Name == "" {
		return store.User{}, store.Site{}, fmt.Errorf("%w: email, password and name are required", ErrInvalidInput)
	}
	if in.Role == "" {
		in.Role = model.RoleUser
	}
	if !model.IsValidRole(in.Role) {
		return store.User{}, store.Site{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}

	if _, err := s.queries.GetUserByEmail(ctx, in.Email); err == nil {
		return store.User{}, store.Site{}, ErrEmailExists
	} else if !store.IsNotFound(err) {
		return store.User{}, store.Site{}, fmt.Errorf("checking email: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return store.User{}, store.Site{}, fmt.Errorf("hashing password: %w", err)
	}

	apiKey, err := model.GenerateAPIKey()
	if err != nil {
		return store.User{}, store.Site{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.User{}, store.Site{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)
	now := time.Now().UTC()

	user, err := qtx.CreateUser(ctx, store.CreateUserParams{
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Role:         in.Role,
		Bio:          in.Bio,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return store.User{}, store.Site{}, fmt.Errorf("creating user: %w", err)
	}

	siteName := in.SiteName
	if siteName == "" {
		siteName = in.Name + "'s Site"
	}
	site, err := qtx.CreateSite(ctx, store.CreateSiteParams{
		UserID:    user.ID,
		Name:      siteName,
		ApiKey:    apiKey,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return store.User{}, store.Site{}, fmt.Errorf("creating site: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return store.User{}, store.Site{}, fmt.Errorf("committing transaction: %w", err)
	}
	return user, site, nil
}

// UpdateUserInput is the request-shaped input for account updates.
type UpdateUserInput struct {
	Name     string
	Email    string
	Role     string
	Bio      string
	IsActive bool
}

// Update rewrites an account's profile fields.
func (s *UserService) Update(ctx context.Context, id int64, in UpdateUserInput) (store.User, error) {
	existing, err := s.get(ctx, id)
	if err != nil {
		return store.User{}, err
	}

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" {
		in.Email = existing.Email
	}
	if in.Name == "" {
		in.Name = existing.Name
	}
	if in.Role == "" {
		in.Role = existing.Role
	}
	if !model.IsValidRole(in.Role) {
		return store.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}

	if in.Email != existing.Email {
		if _, err := s.queries.GetUserByEmail(ctx, in.Email); err == nil {
			return store.User{}, ErrEmailExists
		} else if !store.IsNotFound(err) {
			return store.User{}, fmt.Errorf("checking email: %w", err)
		}
	}

	user, err := s.queries.UpdateUser(ctx, store.UpdateUserParams{
		Name:      in.Name,
		Email:     in.Email,
		Role:      in.Role,
		Bio:       in.Bio,
		IsActive:  in.IsActive,
		UpdatedAt: time.Now().UTC(),
		ID:        id,
	})
	if err != nil {
		return store.User{}, fmt.Errorf("updating user: %w", err)
	}
	return user, nil
}

// UpdatePassword replaces an account's password.
func (s *UserService) UpdatePassword(ctx context.Context, id int64, password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	if _, err := s.get(ctx, id); err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		PasswordHash: hash,
		UpdatedAt:    time.Now().UTC(),
		ID:           id,
	})
}

// ChangePassword replaces a user's own password after verifying the
// current one.
func (s *UserService) ChangePassword(ctx context.Context, id int64, current, next string) error {
	user, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	ok, err := auth.CheckPassword(current, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return ErrBadPassword
	}
	return s.UpdatePassword(ctx, id, next)
}

// Delete removes an account. Actors cannot delete themselves, and accounts
// that still own posts are blocked until their posts are reassigned or
// removed.
func (s *UserService) Delete(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return ErrSelfDelete
	}
	if _, err := s.get(ctx, id); err != nil {
		return err
	}

	n, err := s.queries.CountPosts(ctx, store.CountPostsParams{AuthorID: id})
	if err != nil {
		return fmt.Errorf("counting posts: %w", err)
	}
	if n > 0 {
		return ErrUserHasPosts
	}
	return s.queries.DeleteUser(ctx, id)
}

// UpdateSiteInput is the request-shaped input for site updates.
type UpdateSiteInput struct {
	Name        string
	Description string
	Domain      *string
}

// UpdateSite rewrites a user's site settings. An empty or nil domain
// clears the restriction so any origin is accepted.
func (s *UserService) UpdateSite(ctx context.Context, userID int64, in UpdateSiteInput) (store.Site, error) {
	site, err := s.siteFor(ctx, userID)
	if err != nil {
		return store.Site{}, err
	}

	if in.Name == "" {
		in.Name = site.Name
	}

	var domain sql.NullString
	if in.Domain != nil {
		domain = util.NullString(strings.ToLower(strings.TrimSpace(*in.Domain)))
	}

	if domain.Valid {
		other, err := s.queries.GetSiteByDomain(ctx, domain.String)
		if err == nil && other.ID != site.ID {
			return store.Site{}, ErrDomainExists
		} else if err != nil && !store.IsNotFound(err) {
			return store.Site{}, fmt.Errorf("checking domain: %w", err)
		}
	}

	updated, err := s.queries.UpdateSite(ctx, store.UpdateSiteParams{
		Name:        in.Name,
		Description: in.Description,
		Domain:      domain,
		UpdatedAt:   time.Now().UTC(),
		ID:          site.ID,
	})
	if err != nil {
		return store.Site{}, fmt.Errorf("updating site: %w", err)
	}
	return updated, nil
}

// RegenerateAPIKey rotates a user's site API key. The old key stops
// resolving as soon as the row is written.
func (s *UserService) RegenerateAPIKey(ctx context.Context, userID int64) (store.Site, error) {
	site, err := s.siteFor(ctx, userID)
	if err != nil {
		return store.Site{}, err
	}

	key, err := model.GenerateAPIKey()
	if err != nil {
		return store.Site{}, err
	}

	updated, err := s.queries.UpdateSiteAPIKey(ctx, store.UpdateSiteAPIKeyParams{
		ApiKey:    key,
		UpdatedAt: time.Now().UTC(),
		ID:        site.ID,
	})
	if err != nil {
		return store.Site{}, fmt.Errorf("rotating api key: %w", err)
	}
	return updated, nil
}

// SiteFor returns the site owned by a user.
func (s *UserService) SiteFor(ctx context.Context, userID int64) (store.Site, error) {
	return s.siteFor(ctx, userID)
}

func (s *UserService) siteFor(ctx context.Context, userID int64) (store.Site, error) {
	site, err := s.queries.GetSiteByUserID(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			return store.Site{}, ErrNotFound
		}
		return store.Site{}, fmt.Errorf("fetching site: %w", err)
	}
	return site, nil
}

func (s *UserService) get(ctx context.Context, id int64) (store.User, error) {
	user, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return store.User{}, ErrNotFound
		}
		return store.User{}, fmt.Errorf("fetching user: %w", err)
	}
	return user, nil
}
