// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/portal/internal/platform/database/schema"
	"github.com/taibuivan/portal/internal/platform/dberr"
)

// # User Repository

// PostgresUserRepository implements [UserRepository] on users.account.
//
// Storage errors are mapped through [dberr.Wrap]: missing rows become NotFound and
// unique violations become Conflict.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

/*
Create persists a new user record into users.account.

Parameters:
  - ctx: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate email, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	table := schema.UserAccount
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		table.Table,
		table.ID, table.Email, table.Name, table.Password, table.Role, table.CreatedAt, table.UpdatedAt,
	)

	_, err := repository.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)

	return dberr.Wrap(err, "User")
}

// FindByEmail retrieves a live account by its normalised email.
func (repository *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return repository.findOne(ctx, schema.UserAccount.Email, email)
}

// FindByID retrieves a live account by ID.
func (repository *PostgresUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	return repository.findOne(ctx, schema.UserAccount.ID, id)
}

func (repository *PostgresUserRepository) findOne(ctx context.Context, column string, value string) (*User, error) {
	table := schema.UserAccount
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s IS NULL`,
		table.Select(), table.Table, column, table.DeletedAt,
	)

	user := &User{}
	if err := repository.pool.QueryRow(ctx, query, value).Scan(ScanTargets(user)...); err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	return user, nil
}

// ScanTargets returns the Scan destinations for a row selected with
// schema.UserAccount.Select().
func ScanTargets(user *User) []any {
	return []any{
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	}
}
