// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles user administration: listing accounts, changing roles and
removing accounts.

# Architecture

  - Domain: This package depends on the auth package for the User entity.
  - Security: Every endpoint sits behind a role or permission guard; the service
    additionally stops an administrator from demoting or deleting themselves.
*/
package account

import (
	"context"

	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/users/auth"
	"github.com/taibuivan/portal/pkg/pagination"
)

// # Query Filters

// Filter narrows List results. An empty Roles matches every role.
type Filter struct {
	Roles []sec.UserRole
}

// # Repository Contracts

// AccountRepository defines the persistence contract for user administration.
type AccountRepository interface {
	/*
		List returns one page of live accounts matching filter, newest first.

		Parameters:
		  - ctx: context.Context
		  - filter: Filter
		  - params: pagination.Params

		Returns:
		  - []*auth.User: The page
		  - int: Total number of matching live accounts
		  - error: Storage failures
	*/
	List(ctx context.Context, filter Filter, params pagination.Params) ([]*auth.User, int, error)

	/*
		FindByID retrieves a live account by its unique ID.

		Parameters:
		  - ctx: context.Context
		  - id: string (UUID)

		Returns:
		  - *auth.User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(ctx context.Context, id string) (*auth.User, error)

	/*
		UpdateRole replaces the role of a live account.

		Parameters:
		  - ctx: context.Context
		  - id: string
		  - role: sec.UserRole

		Returns:
		  - *auth.User: The updated account
		  - error: apperr.NotFound or storage failures
	*/
	UpdateRole(ctx context.Context, id string, role sec.UserRole) (*auth.User, error)

	/*
		SoftDelete flags an account as logically deleted.

		Parameters:
		  - ctx: context.Context
		  - id: string

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	SoftDelete(ctx context.Context, id string) error
}

// # Field Identifiers

const (
	FieldID   = "id"
	FieldRole = "role"
)
