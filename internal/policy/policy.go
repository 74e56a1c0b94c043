// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package policy is the single authorization table for the admin API.
// Handlers and services ask it questions; they never compare role
// strings themselves.
package policy

import "github.com/lapcms/lapcms/internal/model"

// Resources protected by the policy table.
const (
	ResourcePosts      = "posts"
	ResourceCategories = "categories"
	ResourceTags       = "tags"
	ResourceUsers      = "users"
	ResourceSites      = "sites"
	ResourceDashboard  = "dashboard"
	ResourceUploads    = "uploads"
)

// Actions on resources. ActionManageAny covers mutations on rows the
// actor does not own.
const (
	ActionCreate    = "create"
	ActionRead      = "read"
	ActionUpdate    = "update"
	ActionDelete    = "delete"
	ActionManageAny = "manage_any"
)

type rule struct {
	resource string
	action   string
}

// rules maps a role to the set of grants it holds. Admins additionally
// pass every check, so only USER grants are listed here.
var rules = map[string]map[rule]bool{
	model.RoleUser: {
		{ResourcePosts, ActionCreate}:      true,
		{ResourcePosts, ActionRead}:        true,
		{ResourcePosts, ActionUpdate}:      true, // ownership checked separately
		{ResourcePosts, ActionDelete}:      true, // ownership checked separately
		{ResourceCategories, ActionCreate}: true,
		{ResourceCategories, ActionRead}:   true,
		{ResourceCategories, ActionUpdate}: true,
		{ResourceCategories, ActionDelete}: true,
		{ResourceTags, ActionCreate}:       true,
		{ResourceTags, ActionRead}:         true,
		{ResourceTags, ActionUpdate}:       true,
		{ResourceTags, ActionDelete}:       true,
		{ResourceSites, ActionRead}:        true,
		{ResourceSites, ActionUpdate}:      true, // own site only
		{ResourceDashboard, ActionRead}:    true,
		{ResourceUploads, ActionCreate}:    true,
	},
}

// Allows reports whether a role may perform an action on a resource.
func Allows(role, resource, action string) bool {
	if role == model.RoleAdmin {
		return true
	}
	return rules[role][rule{resource, action}]
}

// CanManageOthers reports whether a role may mutate rows owned by other
// users, such as editing another author's post or administering accounts.
func CanManageOthers(role string) bool {
	return role == model.RoleAdmin
}
