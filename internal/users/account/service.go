// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"log/slog"

	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/ctxutil"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/users/auth"
	"github.com/taibuivan/portal/pkg/pagination"
)

// Service implements the user administration use cases.
type Service struct {
	accounts AccountRepository
}

// NewService constructs a new account [Service].
func NewService(accounts AccountRepository) *Service {
	return &Service{accounts: accounts}
}

// List returns one page of accounts matching filter and the pagination metadata.
func (service *Service) List(ctx context.Context, filter Filter, params pagination.Params) ([]*auth.User, pagination.Meta, error) {
	users, total, err := service.accounts.List(ctx, filter, params)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return users, pagination.NewMeta(params.Page, params.Limit, total), nil
}

// Get returns a single account.
func (service *Service) Get(ctx context.Context, id string) (*auth.User, error) {
	return service.accounts.FindByID(ctx, id)
}

/*
ChangeRole assigns a new role to an account.

Description: Sessions and tokens already issued to the target keep their role
snapshot until they end; /api/auth/me reflects the change immediately.

Parameters:
  - ctx: context.Context
  - actor: *sec.Identity (the administrator)
  - id: string
  - requestedRole: string

Returns:
  - *auth.User: Updated account
  - error: ValidationError (unknown role), Forbidden (self change), NotFound
*/
func (service *Service) ChangeRole(ctx context.Context, actor *sec.Identity, id, requestedRole string) (*auth.User, error) {
	role, ok := sec.ParseRole(requestedRole)
	if !ok {
		return nil, apperr.ValidationError("Unknown role", apperr.FieldError{Field: FieldRole, Message: "Unknown role"})
	}

	if actor.ID == id {
		return nil, apperr.Forbidden("You cannot change your own role")
	}

	user, err := service.accounts.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "user_role_changed",
		slog.String("actor_id", actor.ID),
		slog.String("target_id", id),
		slog.String("role", string(role)),
	)

	return user, nil
}

// Delete removes an account. Callers cannot delete themselves.
func (service *Service) Delete(ctx context.Context, actor *sec.Identity, id string) error {
	if actor.ID == id {
		return apperr.Forbidden("You cannot delete your own account")
	}

	if err := service.accounts.SoftDelete(ctx, id); err != nil {
		return err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "user_deleted",
		slog.String("actor_id", actor.ID),
		slog.String("target_id", id),
	)

	return nil
}
