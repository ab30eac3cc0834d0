// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Libria HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Select the bearer-token resolver (session or jwt).
//  7. Wire HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
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

	"github.com/taibuivan/libria/internal/api"
	"github.com/taibuivan/libria/internal/catalog/author"
	"github.com/taibuivan/libria/internal/catalog/book"
	"github.com/taibuivan/libria/internal/catalog/category"
	"github.com/taibuivan/libria/internal/circulation"
	"github.com/taibuivan/libria/internal/platform/config"
	"github.com/taibuivan/libria/internal/platform/constants"
	"github.com/taibuivan/libria/internal/platform/mailer"
	"github.com/taibuivan/libria/internal/platform/middleware"
	"github.com/taibuivan/libria/internal/platform/migration"
	pgstore "github.com/taibuivan/libria/internal/platform/postgres"
	redisstore "github.com/taibuivan/libria/internal/platform/redis"
	"github.com/taibuivan/libria/internal/platform/sec"
	"github.com/taibuivan/libria/internal/social/rating"
	"github.com/taibuivan/libria/internal/users/account"
	"github.com/taibuivan/libria/internal/users/auth"
	"github.com/taibuivan/libria/internal/users/identity"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "libria"))
	slog.SetDefault(log)

	log.Info("[Libria] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "libria"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("auth_provider", cfg.AuthProvider),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
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

	// ── 6. Mailer ─────────────────────────────────────────────────────────
	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTP(mailer.Settings{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		mail = mailer.NewLog(log)
	}

	// ── 7. Users Domain ───────────────────────────────────────────────────
	userRepository := auth.NewPostgresUserRepository(pool)
	sessionRepository := auth.NewPostgresSessionRepository(pool)
	resetTokenRepository := auth.NewRedisResetTokenRepository(rdb)
	verifyTokenRepository := auth.NewRedisVerificationTokenRepository(rdb)

	authService := auth.NewService(
		userRepository, sessionRepository,
		resetTokenRepository, verifyTokenRepository,
		mail, log,
	)
	authHandler := auth.NewHandler(authService)

	accountService := account.NewService(account.NewPostgresRepository(pool), log)
	accountHandler := account.NewHandler(accountService)

	// ── 8. Bearer-Token Resolver ──────────────────────────────────────────
	// Both providers resolve tokens to the same principal shape, so the
	// rest of the system never knows which one is running.
	var resolver middleware.Resolver
	switch cfg.AuthProvider {
	case "jwt":
		jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
		must(log, err, "initialize jwt service")

		identityService := identity.NewService(jwtSvc, userRepository, log)
		resolver = func(r *http.Request, token string) (*sec.Principal, error) {
			return identityService.ResolveToken(r.Context(), token)
		}
	default:
		resolver = func(r *http.Request, token string) (*sec.Principal, error) {
			return authService.ResolveToken(r.Context(), token)
		}
	}

	// ── 9. Catalog, Circulation, Social ───────────────────────────────────
	bookHandler := book.NewHandler(book.NewService(book.NewPostgresRepository(pool), log))
	authorHandler := author.NewHandler(author.NewService(author.NewPostgresRepository(pool), log))
	categoryHandler := category.NewHandler(category.NewService(category.NewPostgresRepository(pool), log))

	policy := circulation.Policy{
		LoanPeriodDays:  cfg.LoanPeriodDays,
		MaxRenewals:     cfg.MaxRenewals,
		FinePerDayCents: cfg.FinePerDayCents,
	}
	circulationHandler := circulation.NewHandler(
		circulation.NewService(circulation.NewPostgresRepository(pool), policy, log),
	)

	ratingHandler := rating.NewHandler(rating.NewService(rating.NewPostgresRepository(pool), log))

	// ── 10. Health handlers (wired with real dependency checkers) ─────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 11. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:    liveness,
		Readiness:   readiness,
		Auth:        authHandler,
		Account:     accountHandler,
		Book:        bookHandler,
		Author:      authorHandler,
		Category:    categoryHandler,
		Circulation: circulationHandler,
		Rating:      ratingHandler,
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, resolver, handlers)

	// ── 12. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
