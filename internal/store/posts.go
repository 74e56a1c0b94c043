// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const postColumns = `id, title, slug, excerpt, content, type, status, featured_image, author_id,
	published_at, meta_title, meta_description, meta_keywords, canonical_url, og_title,
	og_description, og_image, twitter_title, twitter_description, no_index, no_follow,
	created_at, updated_at`

func scanPostRow(s interface{ Scan(...any) error }) (Post, error) {
	var p Post
	err := s.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.Type, &p.Status,
		&p.FeaturedImage, &p.AuthorID, &p.PublishedAt, &p.MetaTitle, &p.MetaDescription,
		&p.MetaKeywords, &p.CanonicalUrl, &p.OgTitle, &p.OgDescription, &p.OgImage,
		&p.TwitterTitle, &p.TwitterDescription, &p.NoIndex, &p.NoFollow,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func collectPosts(rows *sql.Rows) ([]Post, error) {
	defer func() { _ = rows.Close() }()
	var posts []Post
	for rows.Next() {
		p, err := scanPostRow(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CreatePostParams holds the fields for CreatePost.
type CreatePostParams struct {
	Title              string
	Slug               string
	Excerpt            string
	Content            sql.NullString
	Type               string
	Status             string
	FeaturedImage      string
	AuthorID           int64
	PublishedAt        sql.NullTime
	MetaTitle          string
	MetaDescription    string
	MetaKeywords       string
	CanonicalUrl       string
	OgTitle            string
	OgDescription      string
	OgImage            string
	TwitterTitle       string
	TwitterDescription string
	NoIndex            bool
	NoFollow           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CreatePost inserts a post and returns the created row.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO posts (title, slug, excerpt, content, type, status, featured_image, author_id,
			published_at, meta_title, meta_description, meta_keywords, canonical_url, og_title,
			og_description, og_image, twitter_title, twitter_description, no_index, no_follow,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+postColumns,
		arg.Title, arg.Slug, arg.Excerpt, arg.Content, arg.Type, arg.Status, arg.FeaturedImage,
		arg.AuthorID, arg.PublishedAt, arg.MetaTitle, arg.MetaDescription, arg.MetaKeywords,
		arg.CanonicalUrl, arg.OgTitle, arg.OgDescription, arg.OgImage, arg.TwitterTitle,
		arg.TwitterDescription, arg.NoIndex, arg.NoFollow, arg.CreatedAt, arg.UpdatedAt)
	return scanPostRow(row)
}

// GetPostByID fetches a post by primary key.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (Post, error) {
	return scanPostRow(q.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
}

// GetPostBySlug fetches a post by slug regardless of status.
func (q *Queries) GetPostBySlug(ctx context.Context, slug string) (Post, error) {
	return scanPostRow(q.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug))
}

// GetPublishedPostBySlug fetches a post by slug if it is publicly visible.
func (q *Queries) GetPublishedPostBySlug(ctx context.Context, slug string) (Post, error) {
	return scanPostRow(q.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE slug = ? AND status = 'PUBLISHED'`, slug))
}

// CountPostsBySlugParams holds the fields for CountPostsBySlug.
type CountPostsBySlugParams struct {
	Slug      string
	ExcludeID int64
}

// CountPostsBySlug counts posts carrying a slug, excluding one post ID.
// Pass ExcludeID 0 when creating.
func (q *Queries) CountPostsBySlug(ctx context.Context, arg CountPostsBySlugParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE slug = ? AND id != ?`, arg.Slug, arg.ExcludeID).Scan(&n)
	return n, err
}

// ListPostsParams holds the fields for ListPosts.
type ListPostsParams struct {
	Status   string // empty matches all statuses
	Type     string // empty matches all types
	AuthorID int64  // 0 matches all authors
	Limit    int64
	Offset   int64
}

// ListPosts returns admin-facing posts, newest first, with optional
// status, type and author filters.
func (q *Queries) ListPosts(ctx context.Context, arg ListPostsParams) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE (? = '' OR status = ?)
		  AND (? = '' OR type = ?)
		  AND (? = 0 OR author_id = ?)
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`,
		arg.Status, arg.Status, arg.Type, arg.Type, arg.AuthorID, arg.AuthorID,
		arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

// CountPostsParams mirrors the filters of ListPosts.
type CountPostsParams struct {
	Status   string
	Type     string
	AuthorID int64
}

// CountPosts returns the total matching ListPosts' filters, for paging.
func (q *Queries) CountPosts(ctx context.Context, arg CountPostsParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM posts
		WHERE (? = '' OR status = ?)
		  AND (? = '' OR type = ?)
		  AND (? = 0 OR author_id = ?)`,
		arg.Status, arg.Status, arg.Type, arg.Type, arg.AuthorID, arg.AuthorID).Scan(&n)
	return n, err
}

// ListPublishedPostsParams holds the fields for ListPublishedPosts.
type ListPublishedPostsParams struct {
	CategorySlug string // empty disables the category filter
	TagSlug      string // empty disables the tag filter
	Limit        int64
	Offset       int64
}

// ListPublishedPosts returns publicly visible posts ordered by publish
// date, optionally restricted to a category or tag slug.
func (q *Queries) ListPublishedPosts(ctx context.Context, arg ListPublishedPostsParams) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE status = 'PUBLISHED'
		  AND (? = '' OR id IN (
			SELECT pc.post_id FROM post_categories pc
			JOIN categories c ON c.id = pc.category_id WHERE c.slug = ?))
		  AND (? = '' OR id IN (
			SELECT pt.post_id FROM post_tags pt
			JOIN tags t ON t.id = pt.tag_id WHERE t.slug = ?))
		ORDER BY published_at DESC
		LIMIT ? OFFSET ?`,
		arg.CategorySlug, arg.CategorySlug, arg.TagSlug, arg.TagSlug, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

// CountPublishedPostsParams mirrors the filters of ListPublishedPosts.
type CountPublishedPostsParams struct {
	CategorySlug string
	TagSlug      string
}

// CountPublishedPosts returns the total matching ListPublishedPosts' filters.
func (q *Queries) CountPublishedPosts(ctx context.Context, arg CountPublishedPostsParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM posts
		WHERE status = 'PUBLISHED'
		  AND (? = '' OR id IN (
			SELECT pc.post_id FROM post_categories pc
			JOIN categories c ON c.id = pc.category_id WHERE c.slug = ?))
		  AND (? = '' OR id IN (
			SELECT pt.post_id FROM post_tags pt
			JOIN tags t ON t.id = pt.tag_id WHERE t.slug = ?))`,
		arg.CategorySlug, arg.CategorySlug, arg.TagSlug, arg.TagSlug).Scan(&n)
	return n, err
}

// SearchPublishedPostsParams holds the fields for SearchPublishedPosts.
type SearchPublishedPostsParams struct {
	Query  string
	Limit  int64
	Offset int64
}

// SearchPublishedPosts matches the query case-insensitively against
// title and excerpt of publicly visible posts.
func (q *Queries) SearchPublishedPosts(ctx context.Context, arg SearchPublishedPostsParams) ([]Post, error) {
	pattern := "%" + arg.Query + "%"
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE status = 'PUBLISHED'
		  AND (title LIKE ? COLLATE NOCASE OR excerpt LIKE ? COLLATE NOCASE)
		ORDER BY published_at DESC
		LIMIT ? OFFSET ?`,
		pattern, pattern, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

// CountSearchPublishedPosts counts the rows SearchPublishedPosts would
// match.
func (q *Queries) CountSearchPublishedPosts(ctx context.Context, query string) (int64, error) {
	pattern := "%" + query + "%"
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM posts
		WHERE status = 'PUBLISHED'
		  AND (title LIKE ? COLLATE NOCASE OR excerpt LIKE ? COLLATE NOCASE)`,
		pattern, pattern).Scan(&n)
	return n, err
}

// UpdatePostParams holds the fields for UpdatePost.
type UpdatePostParams struct {
	Title              string
	Slug               string
	Excerpt            string
	Content            sql.NullString
	Type               string
	Status             string
	FeaturedImage      string
	PublishedAt        sql.NullTime
	MetaTitle          string
	MetaDescription    string
	MetaKeywords       string
	CanonicalUrl       string
	OgTitle            string
	OgDescription      string
	OgImage            string
	TwitterTitle       string
	TwitterDescription string
	NoIndex            bool
	NoFollow           bool
	UpdatedAt          time.Time
	ID                 int64
}

// UpdatePost rewrites the mutable columns of a post and returns the new row.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE posts SET title = ?, slug = ?, excerpt = ?, content = ?, type = ?, status = ?,
			featured_image = ?, published_at = ?, meta_title = ?, meta_description = ?,
			meta_keywords = ?, canonical_url = ?, og_title = ?, og_description = ?,
			og_image = ?, twitter_title = ?, twitter_description = ?, no_index = ?,
			no_follow = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+postColumns,
		arg.Title, arg.Slug, arg.Excerpt, arg.Content, arg.Type, arg.Status, arg.FeaturedImage,
		arg.PublishedAt, arg.MetaTitle, arg.MetaDescription, arg.MetaKeywords, arg.CanonicalUrl,
		arg.OgTitle, arg.OgDescription, arg.OgImage, arg.TwitterTitle, arg.TwitterDescription,
		arg.NoIndex, arg.NoFollow, arg.UpdatedAt, arg.ID)
	return scanPostRow(row)
}

// UpdatePostStatusParams holds the fields for UpdatePostStatus.
type UpdatePostStatusParams struct {
	Status      string
	PublishedAt sql.NullTime
	UpdatedAt   time.Time
	ID          int64
}

// UpdatePostStatus moves a post through its lifecycle. Callers decide
// whether published_at is carried over or set; it is never cleared once
// a post has been published.
func (q *Queries) UpdatePostStatus(ctx context.Context, arg UpdatePostStatusParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE posts SET status = ?, published_at = ?, updated_at = ? WHERE id = ?
		RETURNING `+postColumns,
		arg.Status, arg.PublishedAt, arg.UpdatedAt, arg.ID)
	return scanPostRow(row)
}

// DeletePost removes a post. Join rows and comments cascade.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	return err
}

// SetPostCategories replaces the post's category set.
func (q *Queries) SetPostCategories(ctx context.Context, postID int64, categoryIDs []int64) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM post_categories WHERE post_id = ?`, postID); err != nil {
		return err
	}
	for _, id := range categoryIDs {
		if _, err := q.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO post_categories (post_id, category_id) VALUES (?, ?)`, postID, id); err != nil {
			return err
		}
	}
	return nil
}

// SetPostTags replaces the post's tag set.
func (q *Queries) SetPostTags(ctx context.Context, postID int64, tagIDs []int64) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = ?`, postID); err != nil {
		return err
	}
	for _, id := range tagIDs {
		if _, err := q.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO post_tags (post_id, tag_id) VALUES (?, ?)`, postID, id); err != nil {
			return err
		}
	}
	return nil
}

// GetPostCategories returns the categories attached to a post.
func (q *Queries) GetPostCategories(ctx context.Context, postID int64) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.slug, c.description, c.created_at, c.updated_at
		FROM categories c
		JOIN post_categories pc ON pc.category_id = c.id
		WHERE pc.post_id = ?
		ORDER BY c.name ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cats []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// GetPostTags returns the tags attached to a post.
func (q *Queries) GetPostTags(ctx context.Context, postID int64) ([]Tag, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.slug, t.created_at, t.updated_at
		FROM tags t
		JOIN post_tags pt ON pt.tag_id = t.id
		WHERE pt.post_id = ?
		ORDER BY t.name ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// CountPostsByStatus returns the number of posts in a given status.
func (q *Queries) CountPostsByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE status = ?`, status).Scan(&n)
	return n, err
}
