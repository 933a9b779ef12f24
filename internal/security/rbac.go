// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package security

import (
	"strings"

	"kyctrust/internal/models"
)

// Resources and actions used by permission checks.
const (
	ResourceContent   = "content"
	ResourceReviews   = "reviews"
	ResourceUsers     = "users"
	ResourceAnalytics = "analytics"
	ResourceSecurity  = "security"
	ResourceSettings  = "settings"

	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionManage = "manage" // implies every action on the resource
)

// Permission pairs a resource with an allowed action.
type Permission struct {
	Resource string
	Action   string
}

// rolePermissions is the static permission table. Admin is absent on
// purpose: it implicitly holds every permission.
var rolePermissions = map[models.Role][]Permission{
	models.RoleEditor: {
		{ResourceContent, ActionManage},
		{ResourceReviews, ActionManage},
		{ResourceAnalytics, ActionRead},
		{ResourceUsers, ActionRead},
	},
	models.RoleViewer: {
		{ResourceContent, ActionRead},
		{ResourceReviews, ActionRead},
		{ResourceAnalytics, ActionRead},
		{ResourceUsers, ActionRead},
	},
}

// HasPermission reports whether the role may perform action on resource.
// A permission entry matches when its action equals the requested action
// or equals manage.
func HasPermission(role models.Role, resource, action string) bool {
	if role == models.RoleAdmin {
		return true
	}
	for _, p := range rolePermissions[role] {
		if p.Resource != resource {
			continue
		}
		if p.Action == action || p.Action == ActionManage {
			return true
		}
	}
	return false
}

// routePermission maps an API route prefix to the permission required to
// reach it. Longest prefix wins.
type routePermission struct {
	Prefix     string
	Permission Permission
}

var routePermissions = []routePermission{
	{"/api/admin/security", Permission{ResourceSecurity, ActionManage}},
	{"/api/admin/reviews", Permission{ResourceReviews, ActionUpdate}},
	{"/api/users", Permission{ResourceUsers, ActionManage}},
	{"/api/content", Permission{ResourceContent, ActionUpdate}},
	{"/api/analytics/daily", Permission{ResourceAnalytics, ActionRead}},
}

// RequiredPermission returns the permission guarding the given request
// path, or nil when the path is unguarded.
func RequiredPermission(path string) *Permission {
	var best *routePermission
	for i := range routePermissions {
		rp := &routePermissions[i]
		if !strings.HasPrefix(path, rp.Prefix) {
			continue
		}
		if best == nil || len(rp.Prefix) > len(best.Prefix) {
			best = rp
		}
	}
	if best == nil {
		return nil
	}
	p := best.Permission
	return &p
}
