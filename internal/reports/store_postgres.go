// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reports

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/database/schema"
	"github.com/taibuivan/portal/internal/platform/sec"
)

// PostgresRoleCounter implements [RoleCounter] on users.account.
type PostgresRoleCounter struct {
	pool *pgxpool.Pool
}

// NewRoleCounter creates a PostgreSQL-backed RoleCounter.
func NewRoleCounter(pool *pgxpool.Pool) *PostgresRoleCounter {
	return &PostgresRoleCounter{pool: pool}
}

// CountByRole groups live accounts by role.
func (counter *PostgresRoleCounter) CountByRole(ctx context.Context) (map[sec.UserRole]int, error) {
	table := schema.UserAccount
	query := fmt.Sprintf(`SELECT %s, COUNT(*) FROM %s WHERE %s IS NULL GROUP BY %s`,
		table.Role, table.Table, table.DeletedAt, table.Role,
	)

	rows, err := counter.pool.Query(ctx, query)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("postgres_reports_count_failed: %w", err))
	}
	defer rows.Close()

	counts := make(map[sec.UserRole]int)
	for rows.Next() {
		var (
			role  sec.UserRole
			count int
		)
		if err := rows.Scan(&role, &count); err != nil {
			return nil, apperr.Internal(fmt.Errorf("postgres_reports_scan_failed: %w", err))
		}
		counts[role] = count
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(fmt.Errorf("postgres_reports_rows_failed: %w", err))
	}

	return counts, nil
}
