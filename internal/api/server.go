// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.

Request pipeline for /api routes:

	RequestID -> StructuredLogger -> Instrument -> Timeout -> RateLimit ->
	PanicRecovery -> CORS -> CleanPath -> LoadSession -> InactivityGuard -> route guards
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/config"
	"github.com/taibuivan/portal/internal/platform/constants"
	"github.com/taibuivan/portal/internal/platform/metrics"
	"github.com/taibuivan/portal/internal/platform/middleware"
	"github.com/taibuivan/portal/internal/platform/respond"
	"github.com/taibuivan/portal/internal/reports"
	"github.com/taibuivan/portal/internal/session"
	"github.com/taibuivan/portal/internal/users/account"
	"github.com/taibuivan/portal/internal/users/auth"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Dependencies

// Dependencies carries the cross-cutting components the middleware chain needs.
type Dependencies struct {
	Config     *config.Config
	Logger     *slog.Logger
	Sessions   session.Store
	Cookie     *session.CookieCodec
	Authorizer *middleware.Authorizer
	Metrics    *metrics.Metrics
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler. Always 200 while the process runs.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler. 200 only when Postgres and Redis answer.
	Readiness http.HandlerFunc

	// Auth handles login, registration, logout and the current-user profile.
	Auth *auth.Handler

	// Accounts handles user administration.
	Accounts *account.Handler

	// Reports serves role statistics and the CSV export.
	Reports *reports.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(ctx context.Context, deps Dependencies, h Handlers) *Server {
	cfg := deps.Config
	r := chi.NewRouter()

	// # Middleware Chain
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.Instrument(deps.Metrics))
	}
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(ctx, constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst))
	r.Use(middleware.PanicRecovery())
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	r.NotFound(func(writer http.ResponseWriter, request *http.Request) {
		respond.Error(writer, request, apperr.NotFound("Route"))
	})
	r.MethodNotAllowed(func(writer http.ResponseWriter, request *http.Request) {
		respond.Error(writer, request, apperr.MethodNotAllowed())
	})

	// # Infrastructure Endpoints
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	// # Application API
	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.LoadSession(deps.Sessions, deps.Cookie))
		api.Use(middleware.InactivityGuard(deps.Sessions, middleware.InactivityOptions{
			Timeout:  cfg.InactivityTimeout,
			Resolver: deps.Authorizer.Resolver(),
			Cookie:   deps.Cookie,
			Recorder: recorderOf(deps.Metrics),
			Skip:     credentialExchange,
		}))

		api.Mount("/auth", h.Auth.Routes())
		api.Mount("/users", h.Accounts.Routes())
		api.Mount("/reports", h.Reports.Routes())
	})

	return &Server{
		router: r,
		log:    deps.Logger,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// credentialExchange matches the endpoints that replace or end a session.
// A stale session must not block the user from logging in again.
func credentialExchange(request *http.Request) bool {
	if request.Method != http.MethodPost {
		return false
	}
	switch request.URL.Path {
	case "/api/auth/login", "/api/auth/register", "/api/auth/logout":
		return true
	}
	return false
}

// recorderOf avoids handing the guard a typed nil.
func recorderOf(m *metrics.Metrics) middleware.DecisionRecorder {
	if m == nil {
		return nil
	}
	return m
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
