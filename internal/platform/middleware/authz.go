// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"

	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/ctxutil"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/platform/respond"
)

// Guard names reported to the [DecisionRecorder].
const (
	GuardRequireAuth       = "require_auth"
	GuardRequireRole       = "require_role"
	GuardRequirePermission = "require_permission"
	GuardAttachIdentity    = "attach_identity"
	GuardInactivity        = "inactivity"
)

// Guard outcomes reported to the [DecisionRecorder].
const (
	OutcomeAllowed         = "allowed"
	OutcomeAnonymous       = "anonymous"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeForbidden       = "forbidden"
	OutcomeExpired         = "expired"
)

// Client-facing guard messages.
const (
	MessageAuthRequired           = "Authentication required"
	MessageInsufficientRole       = "Insufficient permissions"
	MessageInsufficientPermission = "Insufficient permissions for this action"
)

// DecisionRecorder receives guard outcomes, typically a Prometheus collector.
type DecisionRecorder interface {
	RecordDecision(guard, outcome string)
	RecordSessionExpired()
}

type noopRecorder struct{}

func (noopRecorder) RecordDecision(string, string) {}
func (noopRecorder) RecordSessionExpired()         {}

// Authorizer builds the authorization guards.
//
// # Usage
//
// Mount after [LoadSession] and [InactivityGuard]. Each guard resolves the caller with
// the shared [Resolver], short-circuits with a structured error, or attaches the
// identity to the context and calls through.
type Authorizer struct {
	resolver    *Resolver
	permissions sec.PermissionMap
	recorder    DecisionRecorder
}

// NewAuthorizer constructs an Authorizer. recorder may be nil.
func NewAuthorizer(verifier TokenVerifier, permissions sec.PermissionMap, recorder DecisionRecorder) *Authorizer {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Authorizer{
		resolver:    NewResolver(verifier),
		permissions: permissions,
		recorder:    recorder,
	}
}

// Resolver exposes the identity resolver shared by the guards.
func (authz *Authorizer) Resolver() *Resolver {
	return authz.resolver
}

// Permissions returns the permission map consulted by RequirePermission.
func (authz *Authorizer) Permissions() sec.PermissionMap {
	return authz.permissions
}

// RequireAuth blocks requests without a resolvable identity.
func (authz *Authorizer) RequireAuth(next http.Handler) http.Handler {
	return authz.guard(GuardRequireAuth, func(*sec.Identity) *apperr.AppError {
		return nil
	})(next)
}

// RequireRole blocks callers whose role is not in allowed.
//
// # Flow
//  1. No identity → 401.
//  2. Role not in allowed → 403.
//  3. Otherwise attach the identity and call through.
func (authz *Authorizer) RequireRole(allowed ...sec.UserRole) func(http.Handler) http.Handler {
	return authz.guard(GuardRequireRole, func(identity *sec.Identity) *apperr.AppError {
		if !identity.Role.In(allowed...) {
			return apperr.Forbidden(MessageInsufficientRole)
		}
		return nil
	})
}

// RequirePermission blocks callers whose role lacks action on resource in the permission map.
func (authz *Authorizer) RequirePermission(resource, action string) func(http.Handler) http.Handler {
	return authz.guard(GuardRequirePermission, func(identity *sec.Identity) *apperr.AppError {
		if !authz.permissions.Allows(identity.Role, resource, action) {
			return apperr.Forbidden(MessageInsufficientPermission)
		}
		return nil
	})
}

// AttachIdentity attaches the caller when one resolves and always calls through.
// It is used on routes whose behaviour only varies with the caller.
func (authz *Authorizer) AttachIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		identity, ok := authz.resolver.Resolve(request)
		if !ok {
			authz.recorder.RecordDecision(GuardAttachIdentity, OutcomeAnonymous)
			next.ServeHTTP(writer, request)
			return
		}

		authz.recorder.RecordDecision(GuardAttachIdentity, OutcomeAllowed)
		next.ServeHTTP(writer, attach(request, identity))
	})
}

// guard wraps a policy check with the common resolve → 401 → check → attach flow.
func (authz *Authorizer) guard(name string, check func(*sec.Identity) *apperr.AppError) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity, ok := authz.resolver.Resolve(request)
			if !ok {
				authz.recorder.RecordDecision(name, OutcomeUnauthenticated)
				respond.Error(writer, request, apperr.Unauthorized(MessageAuthRequired))
				return
			}

			if denied := check(identity); denied != nil {
				authz.recorder.RecordDecision(name, OutcomeForbidden)
				respond.Error(writer, request, denied)
				return
			}

			authz.recorder.RecordDecision(name, OutcomeAllowed)
			next.ServeHTTP(writer, attach(request, identity))
		})
	}
}

func attach(request *http.Request, identity *sec.Identity) *http.Request {
	noteUser(request.Context(), identity.ID)
	return request.WithContext(ctxutil.WithIdentity(request.Context(), identity))
}
