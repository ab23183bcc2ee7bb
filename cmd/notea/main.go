// Package main is the entry point for the notea server.
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

	"notea/internal/cache"
	"notea/internal/config"
	"notea/internal/database"
	"notea/internal/handlers"
	"notea/internal/middleware"
	"notea/internal/router"
	"notea/internal/session"
	"notea/internal/store"
	"notea/internal/workspace"
)

// sweepInterval is how often idle workspaces are looked for.
const sweepInterval = 5 * time.Minute

func main() {
	// Structured logger: text in development, JSON elsewhere.
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	if os.Getenv("APP_ENV") == "" || os.Getenv("APP_ENV") == "development" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"reorder_quiet_period", cfg.ReorderQuietPeriod,
		"workspace_idle_ttl", cfg.WorkspaceIdleTTL,
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

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions and the preview cache).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyAddr(), cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	categoryStore := store.NewCategoryStore(db)
	noteStore := store.NewNoteStore(db)

	previewCache := cache.NewPreviewCache(valkeyClient, cache.DefaultPreviewTTL)

	// Mounted category workspaces, one per signed-in user.
	workspaces := workspace.NewRegistry(categoryStore, workspace.Options{
		QuietPeriod:  cfg.ReorderQuietPeriod,
		WriteTimeout: cfg.ReorderWriteTimeout,
		IdleTTL:      cfg.WorkspaceIdleTTL,
		Logger:       logger.With("component", "workspace"),
	})
	workspaces.StartSweeper(sweepInterval)

	// Five login attempts per minute per client IP.
	loginLimiter := middleware.NewRateLimiter(middleware.RateLimitOptions{
		Limit:  5,
		Window: time.Minute,
	})
	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	defer stopLimiter()
	go loginLimiter.Run(limiterCtx)

	r := router.New(router.Deps{
		Sessions:     sessionStore,
		LoginLimiter: loginLimiter,
		SecureCookie: secureCookies,
		Health: handlers.NewHealth(map[string]handlers.Check{
			"postgres": db.PingContext,
			"valkey":   func(ctx context.Context) error { return valkeyClient.Ping(ctx).Err() },
		}),
		Auth:       handlers.NewAuth(sessionStore, userStore, workspaces),
		Categories: handlers.NewCategories(workspaces),
		Notes:      handlers.NewNotes(noteStore, workspaces, previewCache),
	})

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

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	// Requests have drained; write every pending category order.
	if err := workspaces.Shutdown(ctx); err != nil {
		slog.Error("workspace flush incomplete", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
