// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const categoryColumns = `id, name, slug, description, created_at, updated_at`
const tagColumns = `id, name, slug, created_at, updated_at`

func scanCategory(row *sql.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanTag(row *sql.Row) (Tag, error) {
	var t Tag
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// CreateCategoryParams holds the fields for CreateCategory.
type CreateCategoryParams struct {
	Name        string
	Slug        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateCategory inserts a category and returns the created row.
func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+categoryColumns,
		arg.Name, arg.Slug, arg.Description, arg.CreatedAt, arg.UpdatedAt)
	return scanCategory(row)
}

// GetCategoryByID fetches a category by primary key.
func (q *Queries) GetCategoryByID(ctx context.Context, id int64) (Category, error) {
	return scanCategory(q.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
}

// GetCategoryBySlug fetches a category by slug.
func (q *Queries) GetCategoryBySlug(ctx context.Context, slug string) (Category, error) {
	return scanCategory(q.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE slug = ?`, slug))
}

// ListCategories returns all categories with their post counts, sorted
// by name.
func (q *Queries) ListCategories(ctx context.Context) ([]CategoryWithCount, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.slug, c.description, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM post_categories pc WHERE pc.category_id = c.id) AS post_count
		FROM categories c
		ORDER BY c.name ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cats []CategoryWithCount
	for rows.Next() {
		var c CategoryWithCount
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description,
			&c.CreatedAt, &c.UpdatedAt, &c.PostCount); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// UpdateCategoryParams holds the fields for UpdateCategory.
type UpdateCategoryParams struct {
	Name        string
	Slug        string
	Description string
	UpdatedAt   time.Time
	ID          int64
}

// UpdateCategory rewrites a category and returns the new row.
func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE categories SET name = ?, slug = ?, description = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+categoryColumns,
		arg.Name, arg.Slug, arg.Description, arg.UpdatedAt, arg.ID)
	return scanCategory(row)
}

// DeleteCategory removes a category row.
func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}

// CountPostsByCategory returns how many posts reference a category.
func (q *Queries) CountPostsByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post_categories WHERE category_id = ?`, categoryID).Scan(&n)
	return n, err
}

// CountCategoriesBySlugParams holds the fields for CountCategoriesBySlug.
type CountCategoriesBySlugParams struct {
	Slug      string
	ExcludeID int64
}

// CountCategoriesBySlug counts categories carrying a slug, excluding one ID.
func (q *Queries) CountCategoriesBySlug(ctx context.Context, arg CountCategoriesBySlugParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE slug = ? AND id != ?`, arg.Slug, arg.ExcludeID).Scan(&n)
	return n, err
}

// CreateTagParams holds the fields for CreateTag.
type CreateTagParams struct {
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateTag inserts a tag and returns the created row.
func (q *Queries) CreateTag(ctx context.Context, arg CreateTagParams) (Tag, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO tags (name, slug, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		RETURNING `+tagColumns,
		arg.Name, arg.Slug, arg.CreatedAt, arg.UpdatedAt)
	return scanTag(row)
}

// GetTagByID fetches a tag by primary key.
func (q *Queries) GetTagByID(ctx context.Context, id int64) (Tag, error) {
	return scanTag(q.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE id = ?`, id))
}

// GetTagBySlug fetches a tag by slug.
func (q *Queries) GetTagBySlug(ctx context.Context, slug string) (Tag, error) {
	return scanTag(q.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE slug = ?`, slug))
}

// ListTags returns all tags with their post counts, sorted by name.
func (q *Queries) ListTags(ctx context.Context) ([]TagWithCount, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.slug, t.created_at, t.updated_at,
			(SELECT COUNT(*) FROM post_tags pt WHERE pt.tag_id = t.id) AS post_count
		FROM tags t
		ORDER BY t.name ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tags []TagWithCount
	for rows.Next() {
		var t TagWithCount
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.UpdatedAt, &t.PostCount); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// UpdateTagParams holds the fields for UpdateTag.
type UpdateTagParams struct {
	Name      string
	Slug      string
	UpdatedAt time.Time
	ID        int64
}

// UpdateTag rewrites a tag and returns the new row.
func (q *Queries) UpdateTag(ctx context.Context, arg UpdateTagParams) (Tag, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE tags SET name = ?, slug = ?, updated_at = ? WHERE id = ?
		RETURNING `+tagColumns,
		arg.Name, arg.Slug, arg.UpdatedAt, arg.ID)
	return scanTag(row)
}

// DeleteTag removes a tag row.
func (q *Queries) DeleteTag(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	return err
}

// CountPostsByTag returns how many posts reference a tag.
func (q *Queries) CountPostsByTag(ctx context.Context, tagID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post_tags WHERE tag_id = ?`, tagID).Scan(&n)
	return n, err
}

// CountTagsBySlugParams holds the fields for CountTagsBySlug.
type CountTagsBySlugParams struct {
	Slug      string
	ExcludeID int64
}

// CountTagsBySlug counts tags carrying a slug, excluding one ID.
func (q *Queries) CountTagsBySlug(ctx context.Context, arg CountTagsBySlugParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tags WHERE slug = ? AND id != ?`, arg.Slug, arg.ExcludeID).Scan(&n)
	return n, err
}
