// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "slices"

// # Permission Map

// Resources guarded by permission checks.
const (
	ResourceUsers   = "users"
	ResourceReports = "reports"
	ResourceContent = "content"
)

// Actions that can be granted on a resource.
const (
	ActionRead    = "read"
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionPublish = "publish"
	ActionExport  = "export"
)

// PermissionMap maps role → resource → allowed actions.
//
// It is the single source of truth for authorization. Guards consult it read-only and
// the client receives each role's entry as the "permissions" field of the user payload.
type PermissionMap map[UserRole]map[string][]string

// DefaultPermissions is the permission map the API server is wired with.
var DefaultPermissions = PermissionMap{
	RoleAdmin: {
		ResourceUsers:   {ActionRead, ActionCreate, ActionUpdate, ActionDelete},
		ResourceReports: {ActionRead, ActionExport},
		ResourceContent: {ActionRead, ActionCreate, ActionUpdate, ActionDelete, ActionPublish},
	},
	RoleEditor: {
		ResourceUsers:   {ActionRead},
		ResourceReports: {ActionRead, ActionExport},
		ResourceContent: {ActionRead, ActionCreate, ActionUpdate, ActionPublish},
	},
	RoleViewer: {
		ResourceReports: {ActionRead},
		ResourceContent: {ActionRead},
	},
}

// Allows reports whether role may perform action on resource.
// Unknown roles and resources are denied.
func (m PermissionMap) Allows(role UserRole, resource, action string) bool {
	resources, ok := m[role]
	if !ok {
		return false
	}
	return slices.Contains(resources[resource], action)
}

// For returns a deep copy of the resource → actions entry for role.
// It returns an empty, non-nil map for unknown roles so it always serialises as an object.
func (m PermissionMap) For(role UserRole) map[string][]string {
	out := make(map[string][]string, len(m[role]))
	for resource, actions := range m[role] {
		out[resource] = slices.Clone(actions)
	}
	return out
}
