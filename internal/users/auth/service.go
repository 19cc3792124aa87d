// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/ctxutil"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/platform/validate"
	"github.com/taibuivan/portal/internal/session"
	"github.com/taibuivan/portal/pkg/uuid"
)

// # Service

// Service implements the authentication use cases.
type Service struct {
	users       UserRepository
	sessions    session.Store
	tokens      TokenIssuer
	permissions sec.PermissionMap
	tokenTTL    time.Duration
	now         func() time.Time
}

// Option customises a [Service].
type Option func(*Service)

// WithTokenTTL sets the bearer token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(service *Service) {
		if ttl > 0 {
			service.tokenTTL = ttl
		}
	}
}

// WithClock replaces time.Now, used for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(service *Service) {
		service.now = now
	}
}

// NewService constructs a new [Service] with its dependencies.
func NewService(
	users UserRepository,
	sessions session.Store,
	tokens TokenIssuer,
	permissions sec.PermissionMap,
	options ...Option,
) *Service {
	service := &Service{
		users:       users,
		sessions:    sessions,
		tokens:      tokens,
		permissions: permissions,
		tokenTTL:    DefaultAccessTokenTTL,
		now:         time.Now,
	}
	for _, option := range options {
		option(service)
	}
	return service
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string

	// PreviousSessionID is the session the caller arrived with, replaced on success.
	PreviousSessionID string
}

// LoginResult is a successfully established login.
type LoginResult struct {
	Profile   *Profile
	SessionID string
}

/*
Login validates credentials, starts a session and issues a bearer token.

Description: Unknown emails and wrong passwords yield the same 401 so that
accounts cannot be enumerated.

Parameters:
  - ctx: context.Context
  - input: LoginInput

Returns:
  - *LoginResult: Profile (with token) and the new session ID
  - error: apperr.Unauthorized or internal failures
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := service.users.FindByEmail(ctx, validate.NormalizeEmail(input.Email))
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, apperr.Unauthorized(msgInvalidCredentials)
		}
		return nil, err
	}

	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	token, err := service.tokens.GenerateAccessToken(user.ID, user.Name, user.Email, string(user.Role), service.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	sessionID, err := service.startSession(ctx, user, input.PreviousSessionID)
	if err != nil {
		return nil, err
	}

	profile := NewProfile(user, service.permissions)
	profile.Token = token

	return &LoginResult{Profile: profile, SessionID: sessionID}, nil
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     string

	PreviousSessionID string
}

/*
Register creates an account and starts a session for it. No bearer token is issued.

Description: The role defaults to Viewer. Admin can only be granted by another
Admin, so asking for it here is forbidden.

Parameters:
  - ctx: context.Context
  - input: RegisterInput (already field-validated by the handler)

Returns:
  - *LoginResult: Profile (without token) and the new session ID
  - error: ValidationError (unknown role), Forbidden (Admin), Conflict (email taken)
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	role, err := selfServiceRole(input.Role)
	if err != nil {
		return nil, err
	}

	email := validate.NormalizeEmail(input.Email)

	_, err = service.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperr.Conflict(msgEmailTaken)
	case !apperr.HasCode(err, apperr.CodeNotFound):
		return nil, err
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	now := service.now()
	user := &User{
		ID:           uuid.New(),
		Email:        email,
		Name:         validate.NormalizeName(input.Name),
		PasswordHash: hashedPassword,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := service.users.Create(ctx, user); err != nil {
		return nil, err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "user_registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	sessionID, err := service.startSession(ctx, user, input.PreviousSessionID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Profile: NewProfile(user, service.permissions), SessionID: sessionID}, nil
}

// selfServiceRole resolves the requested registration role.
func selfServiceRole(requested string) (sec.UserRole, error) {
	if requested == "" {
		return DefaultRole, nil
	}

	role, ok := sec.ParseRole(requested)
	if !ok {
		return "", apperr.ValidationError(msgUnknownRole, apperr.FieldError{Field: FieldRole, Message: msgUnknownRole})
	}

	if !role.In(selfServiceRoles...) {
		return "", apperr.Forbidden(msgRoleNotSelectable)
	}

	return role, nil
}

// # Session Lifecycle

// startSession replaces previousID (if any) with a fresh session for user.
func (service *Service) startSession(ctx context.Context, user *User, previousID string) (string, error) {
	if previousID != "" {
		if err := service.sessions.Destroy(ctx, previousID); err != nil {
			ctxutil.GetLogger(ctx).WarnContext(ctx, "previous_session_destroy_failed",
				slog.String("session_id", previousID),
				slog.Any("error", err),
			)
		}
	}

	now := service.now()
	record := &session.Record{
		ID:           uuid.New(),
		UserID:       user.ID,
		UserRole:     user.Role,
		UserName:     user.Name,
		UserEmail:    user.Email,
		LastActivity: now,
		CreatedAt:    now,
	}

	if err := service.sessions.Save(ctx, record); err != nil {
		return "", apperr.Internal(fmt.Errorf("auth_service_session_creation_failed: %w", err))
	}

	return record.ID, nil
}

/*
Logout destroys the session. Logging out without a session is a no-op.

Bearer tokens are stateless and stay valid until they expire.

Parameters:
  - ctx: context.Context
  - sessionID: string

Returns:
  - error: Store failures
*/
func (service *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := service.sessions.Destroy(ctx, sessionID); err != nil {
		return apperr.Internal(fmt.Errorf("auth_service_logout_failed: %w", err))
	}

	return nil
}

// # Queries

/*
Me returns the caller's current profile.

Description: The account is re-read so that role changes and deletions made after
the token or session was issued are visible. A vanished account is treated as
unauthenticated.

Parameters:
  - ctx: context.Context
  - identity: *sec.Identity (attached by RequireAuth)

Returns:
  - *Profile: Current projection
  - error: apperr.Unauthorized when the account no longer exists
*/
func (service *Service) Me(ctx context.Context, identity *sec.Identity) (*Profile, error) {
	user, err := service.users.FindByID(ctx, identity.ID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, apperr.Unauthorized("Authentication required")
		}
		return nil, err
	}

	return NewProfile(user, service.permissions), nil
}

// Roles returns the role catalogue, marking the caller's role when known.
func (service *Service) Roles(identity *sec.Identity) []RoleInfo {
	roles := sec.Roles()
	catalogue := make([]RoleInfo, 0, len(roles))

	for _, role := range roles {
		catalogue = append(catalogue, RoleInfo{
			Role:        role,
			Description: role.Description(),
			Permissions: service.permissions.For(role),
			Current:     identity != nil && identity.Role == role,
			SelfService: role.In(selfServiceRoles...),
		})
	}

	return catalogue
}
