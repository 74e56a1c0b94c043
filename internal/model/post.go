// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Post statuses. Any status may transition to any other; publishedAt is
// assigned on the first transition to PUBLISHED and never cleared afterwards.
const (
	PostStatusDraft     = "DRAFT"
	PostStatusPublished = "PUBLISHED"
	PostStatusArchived  = "ARCHIVED"
)

// Post types.
const (
	PostTypePost = "POST"
	PostTypePage = "PAGE"
)

// IsValidPostStatus reports whether status is a known post status.
func IsValidPostStatus(status string) bool {
	switch status {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return true
	}
	return false
}

// IsValidPostType reports whether t is a known post type.
func IsValidPostType(t string) bool {
	return t == PostTypePost || t == PostTypePage
}
