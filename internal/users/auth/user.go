// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the portal's identity entry points.

It owns the User entity and the login, register, logout, me and roles use cases.
A successful login starts a server-side session (signed cookie) and issues a bearer
token; registration starts a session only.

# Architecture

  - Entity: User, plus Profile, the client-facing projection carrying the role's permissions.
  - Service: credential checks, session creation, token issuance.
  - Repository: UserRepository, implemented on PostgreSQL.
*/
package auth

import (
	"time"

	"github.com/taibuivan/portal/internal/platform/sec"
)

// # Domain Entities

// User represents a registered portal account.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	PasswordHash string       `json:"-"`
	Role         sec.UserRole `json:"role"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Profile is the user as returned to clients by login, register and me.
//
// Permissions is the role's entry in the server permission map. Token is only set on login.
type Profile struct {
	ID          string              `json:"id"`
	Email       string              `json:"email"`
	Name        string              `json:"name"`
	Role        sec.UserRole        `json:"role"`
	Permissions map[string][]string `json:"permissions"`
	Token       string              `json:"token,omitempty"`
}

// NewProfile projects user for the client using permissions.
func NewProfile(user *User, permissions sec.PermissionMap) *Profile {
	return &Profile{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Role:        user.Role,
		Permissions: permissions.For(user.Role),
	}
}

// RoleInfo describes one selectable role on the role-selection screen.
type RoleInfo struct {
	Role        sec.UserRole        `json:"role"`
	Description string              `json:"description"`
	Permissions map[string][]string `json:"permissions"`
	Current     bool                `json:"current"`
	SelfService bool                `json:"selfService"`
}

// # Field Identifiers

// Field names used in validation details.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldName     = "name"
	FieldRole     = "role"
)
