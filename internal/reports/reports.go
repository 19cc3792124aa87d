// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package reports serves account statistics: a JSON summary for any role holding
reports:read and a CSV export for roles holding reports:export.
*/
package reports

import (
	"context"
	"time"

	"github.com/taibuivan/portal/internal/platform/sec"
)

// RoleCount is the number of live accounts holding one role.
type RoleCount struct {
	Role  sec.UserRole `json:"role"`
	Count int          `json:"count"`
}

// Summary is the account breakdown returned by the summary endpoint.
type Summary struct {
	Total       int         `json:"total"`
	ByRole      []RoleCount `json:"byRole"`
	GeneratedAt time.Time   `json:"generatedAt"`
}

// RoleCounter counts live accounts per role.
type RoleCounter interface {
	CountByRole(ctx context.Context) (map[sec.UserRole]int, error)
}

// Service builds report data.
type Service struct {
	counter RoleCounter
	now     func() time.Time
}

// NewService constructs a reports [Service].
func NewService(counter RoleCounter) *Service {
	return &Service{counter: counter, now: time.Now}
}

// Summary returns counts for every known role, including roles with no accounts,
// in catalogue order.
func (service *Service) Summary(ctx context.Context) (*Summary, error) {
	counts, err := service.counter.CountByRole(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{GeneratedAt: service.now().UTC()}
	for _, role := range sec.Roles() {
		summary.ByRole = append(summary.ByRole, RoleCount{Role: role, Count: counts[role]})
		summary.Total += counts[role]
	}

	return summary, nil
}
