// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract the auth flows need.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - ctx: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(ctx context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given normalised email.

		Parameters:
		  - ctx: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmail(ctx context.Context, email string) (*User, error)

	/*
		Create persists a brand-new user account.

		Parameters:
		  - ctx: context.Context
		  - user: *User

		Returns:
		  - error: apperr.Conflict on duplicate email, or persistence failures
	*/
	Create(ctx context.Context, user *User) error
}

// TokenIssuer generates bearer tokens for authenticated users.
type TokenIssuer interface {
	GenerateAccessToken(userID, name, email, role string, timeToLive time.Duration) (string, error)
}
