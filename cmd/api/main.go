// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Portal HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis (session store).
//  5. Run database migrations (idempotent).
//  6. Wire authorization, domain services and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/portal/internal/api"
	"github.com/taibuivan/portal/internal/platform/config"
	"github.com/taibuivan/portal/internal/platform/constants"
	"github.com/taibuivan/portal/internal/platform/metrics"
	"github.com/taibuivan/portal/internal/platform/middleware"
	"github.com/taibuivan/portal/internal/platform/migration"
	pgstore "github.com/taibuivan/portal/internal/platform/postgres"
	redisstore "github.com/taibuivan/portal/internal/platform/redis"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/reports"
	"github.com/taibuivan/portal/internal/session"
	"github.com/taibuivan/portal/internal/users/account"
	"github.com/taibuivan/portal/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	log := newLogger(slog.LevelInfo)
	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Duration("inactivity_timeout", cfg.InactivityTimeout),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Security ───────────────────────────────────────────────────────
	tokenService, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize token service")

	sessions := session.NewRedisStore(rdb, cfg.SessionTTL)
	cookie := session.NewCookieCodec(cfg.SessionCookieName, cfg.SessionSecret, cfg.SessionCookieSecure, cfg.SessionTTL)
	collectors := metrics.New()
	authz := middleware.NewAuthorizer(tokenService, sec.DefaultPermissions, collectors)

	// ── 7. Health ─────────────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(
		api.HealthCheck{Name: "postgres", Check: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) }},
		api.HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }},
	)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	authService := auth.NewService(
		auth.NewUserRepository(pool),
		sessions,
		tokenService,
		sec.DefaultPermissions,
		auth.WithTokenTTL(cfg.AccessTokenTTL),
	)
	accountService := account.NewService(account.NewAccountRepository(pool))
	reportService := reports.NewService(reports.NewRoleCounter(pool))

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	server := api.NewServer(rootCtx, api.Dependencies{
		Config:     cfg,
		Logger:     log,
		Sessions:   sessions,
		Cookie:     cookie,
		Authorizer: authz,
		Metrics:    collectors,
	}, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService, authz, cookie),
		Accounts:  account.NewHandler(accountService, authz),
		Reports:   reports.NewHandler(reportService, authz),
	})

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	log.Info("shutting down server", slog.Duration("timeout", constants.ShutdownTimeout))

	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// newLogger builds the JSON logger every entry of which carries app=portal.
func newLogger(level slog.Level) *slog.Logger {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", "portal"))
	slog.SetDefault(log)
	return log
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// Only for startup wiring. After startup every error is returned and handled.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
