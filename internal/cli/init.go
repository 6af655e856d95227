// Package cli consolidates the startup sequence shared by cmd/fintrack,
// cmd/fintrack-worker and cmd/recurring-worker.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/isagiyoichii/financial-tracker/internal/config"
	"github.com/isagiyoichii/financial-tracker/internal/log"
	"github.com/isagiyoichii/financial-tracker/internal/storage"
)

// Bootstrap loads the environment, configures logging, validates the
// configuration and opens the database. It exits the process on any
// failure; binaries cannot run without these.
func Bootstrap(component string) (config.Config, *storage.Repository, *slog.Logger) {
	// .env is for local development; missing files are fine.
	_ = godotenv.Load()

	log.Setup(os.Getenv("LOG_LEVEL"))
	logger := log.ForComponent(component)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}

	return *cfg, repo, logger
}
