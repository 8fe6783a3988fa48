// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bluestem-events/bluestem/internal/cache"
	"github.com/bluestem-events/bluestem/internal/config"
	"github.com/bluestem-events/bluestem/internal/geoip"
	"github.com/bluestem-events/bluestem/internal/handler"
	"github.com/bluestem-events/bluestem/internal/integration"
	"github.com/bluestem-events/bluestem/internal/logging"
	"github.com/bluestem-events/bluestem/internal/middleware"
	"github.com/bluestem-events/bluestem/internal/model"
	"github.com/bluestem-events/bluestem/internal/session"
	"github.com/bluestem-events/bluestem/internal/store"
	"github.com/bluestem-events/bluestem/internal/task"
	"github.com/bluestem-events/bluestem/internal/version"
	"github.com/bluestem-events/bluestem/internal/workflow"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Bluestem Events - booking intake and marketing backend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLUESTEM_SECRET_KEY       Session/CSRF secret key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLUESTEM_DB_PATH          SQLite database path (default: ./data/bluestem.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLUESTEM_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLUESTEM_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLUESTEM_REDIS_URL        Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLUESTEM_EMAIL_API_KEY    Transactional email API key (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLUESTEM_CRM_API_KEY      CRM API key (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLUESTEM_OPENAI_API_KEY   OpenAI API key for lead briefs (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "\nIntegrations are enabled solely by the presence of their credentials.\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		info := version.Get()
		_, _ = fmt.Printf("bluestem %s (commit: %s, built: %s)\n", info.Version, info.GitCommit, info.BuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the events table
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	eventLogHandler := logging.NewEventLogHandler(textHandler, db)
	logger = slog.New(eventLogHandler)
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	queries := store.New(db)

	appCache := cache.New(cfg, logger)
	defer func() {
		if err := appCache.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		// Intake works fine without country annotation.
		slog.Warn("geoip database unavailable", "path", cfg.GeoIPDBPath, "error", err)
		geo, _ = geoip.Open("")
	}
	defer geo.Close()

	registry := integration.FromConfig(cfg, logger)
	orch := workflow.NewOrchestrator(queries, registry, logger)

	// Background task runner for scheduled nurture emails
	runner := task.NewRunner(queries, logger, task.DefaultConfig())
	runner.Register(model.TaskKindNurtureEmail, task.NurtureEmailHandler(registry.Email, logger))
	runnerCtx, cancelRunner := context.WithCancel(context.Background())
	defer cancelRunner()
	if err := runner.Start(runnerCtx); err != nil {
		return fmt.Errorf("starting task runner: %w", err)
	}
	defer runner.Stop()

	sessions := session.NewManager(queries, logger, cfg.IsDevelopment(), session.Bootstrap{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	})
	protection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	r := handler.NewRouter(handler.RouterConfig{
		DB:           db,
		Store:        queries,
		Cache:        appCache,
		Sessions:     sessions,
		Orchestrator: orch,
		Geo:          geo,
		Protection:   protection,
		Logger:       logger,
		SecretKey:    []byte(cfg.SecretKey),
		IsDev:        cfg.IsDevelopment(),
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
