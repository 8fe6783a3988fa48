// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

// Command bluestem-mcp runs the Model Context Protocol server over stdio,
// exposing the booking pipeline as tools for AI agents. It shares the
// SQLite database and integration configuration with the main server.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/bluestem-events/bluestem/internal/config"
	"github.com/bluestem-events/bluestem/internal/integration"
	"github.com/bluestem-events/bluestem/internal/mcp"
	"github.com/bluestem-events/bluestem/internal/store"
	"github.com/bluestem-events/bluestem/internal/version"
	"github.com/bluestem-events/bluestem/internal/workflow"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		info := version.Get()
		_, _ = fmt.Printf("bluestem-mcp %s (commit: %s, built: %s)\n", info.Version, info.GitCommit, info.BuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// stdout carries the MCP protocol, so logs must go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database connection", "error", err)
		}
	}()

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	queries := store.New(db)
	registry := integration.FromConfig(cfg, logger)
	orch := workflow.NewOrchestrator(queries, registry, logger)

	srv := mcp.NewServer(queries, registry, orch, logger)
	return srv.ServeStdio()
}
