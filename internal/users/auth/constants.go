// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"time"

	"github.com/taibuivan/portal/internal/platform/sec"
)

// # Authentication Constraints

const (
	// DefaultAccessTokenTTL is used when the service is built without an explicit lifetime.
	DefaultAccessTokenTTL = 24 * time.Hour

	// MinPasswordLength is the shortest accepted password at registration.
	MinPasswordLength = 8

	// MaxNameLength caps display names.
	MaxNameLength = 100

	// MaxEmailLength matches the users.account column width.
	MaxEmailLength = 254

	// DefaultRole is assigned when registration names no role.
	DefaultRole = sec.RoleViewer
)

// Roles a caller may pick for themselves at registration.
var selfServiceRoles = []sec.UserRole{sec.RoleEditor, sec.RoleViewer}

// # Client Messages

const (
	msgInvalidCredentials = "Invalid email or password"
	msgEmailTaken         = "Email is already registered"
	msgUnknownRole        = "Unknown role"
	msgRoleNotSelectable  = "Role cannot be self-assigned"
)
