// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/database/schema"
	"github.com/taibuivan/portal/internal/platform/dberr"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/users/auth"
	"github.com/taibuivan/portal/pkg/pagination"
	"github.com/taibuivan/portal/pkg/slice"
)

// PostgresAccountRepository implements [AccountRepository] on users.account.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL implementation of the AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// # AccountRepository Methods

/*
List retrieves one page of live accounts matching filter and the total count.

Parameters:
  - ctx: context.Context
  - filter: Filter (roles become "role = ANY($1)")
  - params: pagination.Params

Returns:
  - []*auth.User: Page of accounts
  - int: Total live accounts
  - error: Database execution failure
*/
func (repository *PostgresAccountRepository) List(ctx context.Context, filter Filter, params pagination.Params) ([]*auth.User, int, error) {
	table := schema.UserAccount

	where := fmt.Sprintf(`%s IS NULL`, table.DeletedAt)
	var args []any
	if len(filter.Roles) > 0 {
		args = append(args, slice.Map(filter.Roles, func(role sec.UserRole) string { return string(role) }))
		where += fmt.Sprintf(` AND %s = ANY($1)`, table.Role)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, table.Table, where)
	var total int
	if err := repository.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("postgres_account_repo_count_failed: %w", err))
	}

	listQuery := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s
		ORDER BY %s DESC, %s
		LIMIT $%d OFFSET $%d`,
		table.Select(), table.Table, where, table.CreatedAt, table.ID, len(args)+1, len(args)+2,
	)

	rows, err := repository.pool.Query(ctx, listQuery, append(args, params.Limit, params.Offset())...)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("postgres_account_repo_list_failed: %w", err))
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*auth.User, error) {
		user := &auth.User{}
		return user, row.Scan(auth.ScanTargets(user)...)
	})
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("postgres_account_repo_scan_failed: %w", err))
	}

	return users, total, nil
}

// FindByID retrieves a live account.
func (repository *PostgresAccountRepository) FindByID(ctx context.Context, id string) (*auth.User, error) {
	table := schema.UserAccount
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s IS NULL`,
		table.Select(), table.Table, table.ID, table.DeletedAt,
	)

	user := &auth.User{}
	if err := repository.pool.QueryRow(ctx, query, id).Scan(auth.ScanTargets(user)...); err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	return user, nil
}

/*
UpdateRole sets the role of a live account and returns the updated row.

Parameters:
  - ctx: context.Context
  - id: string
  - role: sec.UserRole

Returns:
  - *auth.User: Updated account
  - error: apperr.NotFound or database execution failure
*/
func (repository *PostgresAccountRepository) UpdateRole(ctx context.Context, id string, role sec.UserRole) (*auth.User, error) {
	table := schema.UserAccount
	query := fmt.Sprintf(`
		UPDATE %s SET %s = $2, %s = $3
		WHERE %s = $1 AND %s IS NULL
		RETURNING %s`,
		table.Table, table.Role, table.UpdatedAt,
		table.ID, table.DeletedAt,
		table.Select(),
	)

	user := &auth.User{}
	if err := repository.pool.QueryRow(ctx, query, id, role, time.Now()).Scan(auth.ScanTargets(user)...); err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	return user, nil
}

// SoftDelete flags a live account as deleted.
func (repository *PostgresAccountRepository) SoftDelete(ctx context.Context, id string) error {
	table := schema.UserAccount
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1 AND %s IS NULL`,
		table.Table, table.DeletedAt, table.ID, table.DeletedAt,
	)

	tag, err := repository.pool.Exec(ctx, query, id, time.Now())
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}
