// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import "errors"

// Sentinel errors returned by the service layer. Handlers translate them
// into HTTP status codes and response codes.
var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrSlugExists    = errors.New("slug already exists")
	ErrEmailExists   = errors.New("email already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrCategoryInUse = errors.New("category is referenced by posts")
	ErrTagInUse      = errors.New("tag is referenced by posts")
	ErrSelfDelete    = errors.New("cannot delete own account")
	ErrUserHasPosts  = errors.New("user still owns posts")
	ErrDomainExists  = errors.New("domain already in use")
	ErrBadPassword   = errors.New("current password is incorrect")
)
