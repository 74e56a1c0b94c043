// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// User is a row in the users table.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Bio          string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  sql.NullTime
}

// IsAdmin returns true if the user has the ADMIN role.
func (u *User) IsAdmin() bool {
	return u.Role == "ADMIN"
}

// Site is a row in the sites table. A NULL domain means the site accepts
// requests from any origin.
type Site struct {
	ID          int64
	UserID      int64
	Name        string
	Description string
	Domain      sql.NullString
	ApiKey      string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Post is a row in the posts table. Content holds the serialized block
// structure produced by the editor, or NULL for an empty post.
type Post struct {
	ID                 int64
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

// Category is a row in the categories table.
type Category struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Tag is a row in the tags table.
type Tag struct {
	ID        int64
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment is a row in the comments table. Comments are read-only in this
// service; they are written by the public site and cascade-deleted with
// their post.
type Comment struct {
	ID        int64
	PostID    int64
	AuthorID  int64
	Content   string
	CreatedAt time.Time
}

// Event is a row in the events audit table.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	IpAddress string
	Url       string
	Metadata  string
	CreatedAt time.Time
}

// CategoryWithCount is a category joined with its referencing post count.
type CategoryWithCount struct {
	Category
	PostCount int64
}

// TagWithCount is a tag joined with its referencing post count.
type TagWithCount struct {
	Tag
	PostCount int64
}
