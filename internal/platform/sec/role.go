// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "strings"

// # User Roles

// UserRole names the role a caller acts under. Role names are case-sensitive on the wire.
type UserRole string

const (
	// Unrestricted system access. Exempt from the session inactivity limit.
	RoleAdmin UserRole = "Admin"

	// Can create and publish content and export reports
	RoleEditor UserRole = "Editor"

	// Read-only access. Default role for self-registration.
	RoleViewer UserRole = "Viewer"
)

// roleDescriptions backs the role-selection catalogue, in display order.
var roleDescriptions = []struct {
	role        UserRole
	description string
}{
	{RoleAdmin, "Manages users, content and reports"},
	{RoleEditor, "Creates and publishes content, exports reports"},
	{RoleViewer, "Reads content and report summaries"},
}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	for _, known := range roleDescriptions {
		if known.role == r {
			return true
		}
	}
	return false
}

// Description returns the catalogue description for r, or an empty string.
func (r UserRole) Description() string {
	for _, known := range roleDescriptions {
		if known.role == r {
			return known.description
		}
	}
	return ""
}

// Roles returns every known role in display order.
func Roles() []UserRole {
	roles := make([]UserRole, 0, len(roleDescriptions))
	for _, known := range roleDescriptions {
		roles = append(roles, known.role)
	}
	return roles
}

// ParseRole resolves a role name case-insensitively. The second result is false for unknown names.
func ParseRole(name string) (UserRole, bool) {
	for _, known := range roleDescriptions {
		if strings.EqualFold(string(known.role), strings.TrimSpace(name)) {
			return known.role, true
		}
	}
	return "", false
}

// In reports whether r is a member of allowed.
func (r UserRole) In(allowed ...UserRole) bool {
	for _, candidate := range allowed {
		if candidate == r {
			return true
		}
	}
	return false
}
