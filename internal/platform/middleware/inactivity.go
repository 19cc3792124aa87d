// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/constants"
	"github.com/taibuivan/portal/internal/platform/ctxutil"
	"github.com/taibuivan/portal/internal/platform/respond"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/session"
)

// InactivityOptions configures [InactivityGuard].
type InactivityOptions struct {
	// Timeout is the longest allowed gap between two requests. Defaults to 30 minutes.
	Timeout time.Duration

	// ExemptRoles never expire. Defaults to Admin.
	ExemptRoles []sec.UserRole

	// Resolver, when set, lets requests driven by a valid bearer token bypass the guard.
	Resolver *Resolver

	// Cookie, when set, is cleared on the client after an expiry.
	Cookie *session.CookieCodec

	// Skip, when set, exempts matching requests (such as login) from the check.
	Skip func(*http.Request) bool

	// Recorder receives expiry counts. Optional.
	Recorder DecisionRecorder

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// InactivityGuard enforces the idle limit on session-driven requests.
//
// # Flow
//  1. Skip requests without an authenticated session, sessions whose role is
//     exempt, requests matched by Skip, and requests driven by a bearer token.
//  2. If LastActivity is set and older than Timeout: destroy the session, respond
//     401 with code INACTIVITY_TIMEOUT.
//  3. Otherwise stamp LastActivity with now and save (last write wins), then proceed.
//
// Store failures are logged and never surfaced to the caller.
func InactivityGuard(store session.Store, options InactivityOptions) func(http.Handler) http.Handler {
	if options.Timeout <= 0 {
		options.Timeout = constants.DefaultInactivityTimeout
	}
	if options.ExemptRoles == nil {
		options.ExemptRoles = []sec.UserRole{sec.RoleAdmin}
	}
	if options.Recorder == nil {
		options.Recorder = noopRecorder{}
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			record := ctxutil.GetSession(request.Context())
			if !record.Authenticated() || record.UserRole.In(options.ExemptRoles...) {
				next.ServeHTTP(writer, request)
				return
			}

			if options.Skip != nil && options.Skip(request) {
				next.ServeHTTP(writer, request)
				return
			}

			if options.Resolver != nil && options.Resolver.tokenDriven(request) {
				next.ServeHTTP(writer, request)
				return
			}

			ctx := request.Context()
			logger := ctxutil.GetLogger(ctx)
			now := options.Now()

			if !record.LastActivity.IsZero() && now.Sub(record.LastActivity) > options.Timeout {
				if err := store.Destroy(ctx, record.ID); err != nil {
					logger.ErrorContext(ctx, "session_destroy_failed",
						slog.String("session_id", record.ID),
						slog.Any("error", err),
					)
				}
				if options.Cookie != nil {
					options.Cookie.Clear(writer)
				}

				logger.InfoContext(ctx, "inactivity_timeout",
					slog.String("user_id", record.UserID),
					slog.Duration("idle", now.Sub(record.LastActivity)),
				)
				options.Recorder.RecordDecision(GuardInactivity, OutcomeExpired)
				options.Recorder.RecordSessionExpired()

				respond.Error(writer, request, apperr.SessionExpired())
				return
			}

			record.LastActivity = now
			if err := store.Save(ctx, record); err != nil {
				logger.WarnContext(ctx, "session_touch_failed",
					slog.String("session_id", record.ID),
					slog.Any("error", err),
				)
			}

			options.Recorder.RecordDecision(GuardInactivity, OutcomeAllowed)
			next.ServeHTTP(writer, request)
		})
	}
}
