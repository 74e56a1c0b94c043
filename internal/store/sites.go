// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const siteColumns = `id, user_id, name, description, domain, api_key, is_active, created_at, updated_at`

func scanSite(row *sql.Row) (Site, error) {
	var s Site
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Description, &s.Domain,
		&s.ApiKey, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// CreateSiteParams holds the fields for CreateSite.
type CreateSiteParams struct {
	UserID      int64
	Name        string
	Description string
	Domain      sql.NullString
	ApiKey      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateSite inserts a site and returns the created row.
func (q *Queries) CreateSite(ctx context.Context, arg CreateSiteParams) (Site, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO sites (user_id, name, description, domain, api_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING `+siteColumns,
		arg.UserID, arg.Name, arg.Description, arg.Domain, arg.ApiKey, arg.CreatedAt, arg.UpdatedAt)
	return scanSite(row)
}

// GetSiteByID fetches a site by primary key.
func (q *Queries) GetSiteByID(ctx context.Context, id int64) (Site, error) {
	return scanSite(q.db.QueryRowContext(ctx, `SELECT `+siteColumns+` FROM sites WHERE id = ?`, id))
}

// GetSiteByAPIKey fetches a site by its API key.
func (q *Queries) GetSiteByAPIKey(ctx context.Context, apiKey string) (Site, error) {
	return scanSite(q.db.QueryRowContext(ctx, `SELECT `+siteColumns+` FROM sites WHERE api_key = ?`, apiKey))
}

// GetSiteByDomain fetches a site by its configured domain.
func (q *Queries) GetSiteByDomain(ctx context.Context, domain string) (Site, error) {
	return scanSite(q.db.QueryRowContext(ctx, `SELECT `+siteColumns+` FROM sites WHERE domain = ?`, domain))
}

// GetSiteByUserID fetches the first site owned by a user. Business logic
// assumes a single site per user even though the schema allows many.
func (q *Queries) GetSiteByUserID(ctx context.Context, userID int64) (Site, error) {
	return scanSite(q.db.QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE user_id = ? ORDER BY created_at ASC LIMIT 1`, userID))
}

// ListSitesByUser returns all sites owned by a user, newest first.
func (q *Queries) ListSitesByUser(ctx context.Context, userID int64) ([]Site, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sites []Site
	for rows.Next() {
		var s Site
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Description, &s.Domain,
			&s.ApiKey, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

// UpdateSiteParams holds the fields for UpdateSite.
type UpdateSiteParams struct {
	Name        string
	Description string
	Domain      sql.NullString
	UpdatedAt   time.Time
	ID          int64
}

// UpdateSite updates a site's display fields and domain restriction.
func (q *Queries) UpdateSite(ctx context.Context, arg UpdateSiteParams) (Site, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE sites SET name = ?, description = ?, domain = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+siteColumns,
		arg.Name, arg.Description, arg.Domain, arg.UpdatedAt, arg.ID)
	return scanSite(row)
}

// UpdateSiteAPIKeyParams holds the fields for UpdateSiteAPIKey.
type UpdateSiteAPIKeyParams struct {
	ApiKey    string
	UpdatedAt time.Time
	ID        int64
}

// UpdateSiteAPIKey atomically replaces a site's API key. The UNIQUE
// constraint on api_key guarantees no two sites ever share a key.
func (q *Queries) UpdateSiteAPIKey(ctx context.Context, arg UpdateSiteAPIKeyParams) (Site, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE sites SET api_key = ?, updated_at = ? WHERE id = ?
		RETURNING `+siteColumns,
		arg.ApiKey, arg.UpdatedAt, arg.ID)
	return scanSite(row)
}

// SetSiteActiveParams holds the fields for SetSiteActive.
type SetSiteActiveParams struct {
	IsActive  bool
	UpdatedAt time.Time
	ID        int64
}

// SetSiteActive toggles a site's activation state.
func (q *Queries) SetSiteActive(ctx context.Context, arg SetSiteActiveParams) error {
	_, err := q.db.ExecContext(ctx, `UPDATE sites SET is_active = ?, updated_at = ? WHERE id = ?`,
		arg.IsActive, arg.UpdatedAt, arg.ID)
	return err
}

// DeleteSite removes a site row.
func (q *Queries) DeleteSite(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM sites WHERE id = ?`, id)
	return err
}
