// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lapcms/lapcms/internal/auth"
	"github.com/lapcms/lapcms/internal/model"
)

// Seed creates the initial admin and demo accounts if the users table is
// empty. Each account gets a site with a fresh API key, mirroring what
// user creation does at runtime. Safe to call on every startup.
func (q *Queries) Seed(ctx context.Context) error {
	n, err := q.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("seed: count users: %w", err)
	}
	if n > 0 {
		return nil
	}

	hash, err := auth.HashPassword("password")
	if err != nil {
		return fmt.Errorf("seed: hash password: %w", err)
	}

	now := time.Now().UTC()
	seeds := []struct {
		email string
		name  string
		role  string
	}{
		{"admin@example.com", "Admin", model.RoleAdmin},
		{"test@example.com", "Test User", model.RoleUser},
	}

	for _, s := range seeds {
		u, err := q.CreateUser(ctx, CreateUserParams{
			Email:        s.email,
			PasswordHash: hash,
			Name:         s.name,
			Role:         s.role,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("seed: create %s: %w", s.email, err)
		}

		key, err := model.GenerateAPIKey()
		if err != nil {
			return fmt.Errorf("seed: generate api key: %w", err)
		}
		if _, err := q.CreateSite(ctx, CreateSiteParams{
			UserID:    u.ID,
			Name:      s.name + "'s Site",
			ApiKey:    key,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("seed: create site for %s: %w", s.email, err)
		}
	}
	return nil
}

// IsNotFound reports whether err is the driver's no-rows sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
