// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the KYC Trust API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kyctrust/internal/auth"
	"kyctrust/internal/cache"
	"kyctrust/internal/config"
	"kyctrust/internal/database"
	"kyctrust/internal/handlers"
	"kyctrust/internal/router"
	"kyctrust/internal/scheduler"
	"kyctrust/internal/security"
	"kyctrust/internal/session"
	"kyctrust/internal/store"
)

func main() {
	// Structured logger. Text output keeps local logs readable; the
	// container runtime captures the same stream in production.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Optional .env for local development. Missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the bootstrap admin and default site content (no-op if
	// users already exist).
	if cfg.IsDev() || cfg.DoSeed {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (Redis-compatible cache for published content).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	contentCache := cache.NewContentCache(valkeyClient, cache.DefaultContentTTL)

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	auditStore := store.NewAuditStore(db)
	settingStore := store.NewSettingStore(db)
	contentStore := store.NewContentStore(db, settingStore)
	reviewStore := store.NewReviewStore(db)
	analyticsStore := store.NewAnalyticsStore(db)

	// In non-development environments, mark session cookies as Secure
	// (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(db, auditStore, secureCookies)

	limiter := security.NewRateLimiter(db, auditStore, cfg.WhitelistedIPs())
	authService := auth.NewService(userStore, auditStore)

	// Create handler groups with their dependencies.
	h := router.Handlers{
		Auth:       handlers.NewAuth(authService, sessionStore, userStore, auditStore),
		Content:    handlers.NewContent(contentStore, contentCache, auditStore),
		Reviews:    handlers.NewReviews(reviewStore, analyticsStore, auditStore),
		Users:      handlers.NewUsers(userStore, auditStore),
		Analytics:  handlers.NewAnalytics(analyticsStore),
		Security:   handlers.NewSecurityAdmin(userStore, sessionStore, limiter, auditStore),
		DashUnlock: handlers.DashUnlock(cfg.DashUnlockCode, secureCookies),
	}

	// Set up the Chi router with all middleware and routes.
	r := router.New(sessionStore, userStore, limiter, cfg.DashUnlockCode, h)

	// Background jobs: scheduled publishing and expired-row cleanup.
	jobs := scheduler.New(contentStore, sessionStore, limiter, auditStore, contentCache)
	if err := jobs.Start(); err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	// Create the HTTP server with sensible timeouts.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	jobs.Stop()

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
