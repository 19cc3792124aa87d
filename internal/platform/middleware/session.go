// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/taibuivan/portal/internal/platform/ctxutil"
	"github.com/taibuivan/portal/internal/session"
)

// LoadSession reads the signed session cookie and attaches the live record to the
// request context. Requests without a valid cookie or record proceed without one.
//
// # Failure Handling
//
// A store outage is logged and the request continues as if no session existed, so
// bearer-token callers keep working while Redis is down.
func LoadSession(store session.Store, codec *session.CookieCodec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			sessionID, ok := codec.Read(request)
			if !ok {
				next.ServeHTTP(writer, request)
				return
			}

			record, err := store.Get(request.Context(), sessionID)
			switch {
			case errors.Is(err, session.ErrNotFound):
				codec.Clear(writer)
				next.ServeHTTP(writer, request)
				return
			case err != nil:
				ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "session_load_failed",
					slog.Any("error", err),
				)
				next.ServeHTTP(writer, request)
				return
			}

			ctx := ctxutil.WithSession(request.Context(), record)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}
