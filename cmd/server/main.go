// Package main is the entry point for the watchlist API server.
//
// main stays minimal: load configuration, build the logger, ensure the data
// directory exists, and hand off to internal/server. All real logic lives
// in the internal packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"watchlist/internal/config"
	"watchlist/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required (try: openssl rand -hex 32)")
		os.Exit(1)
	}
	if cfg.TMDB.APIKey == "" {
		logger.Warn("TMDB_API_KEY not set — /movies/search will be unavailable")
	}
	if cfg.AdminToken == "" {
		logger.Info("ADMIN_TOKEN not set — admin endpoints disabled")
	}

	// The SQLite file lives under a directory that may not exist yet.
	if dbDir := filepath.Dir(cfg.DBPath); dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until shutdown (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
