package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"

	"github.com/maestriajurisp/leads-api/config"
	"github.com/maestriajurisp/leads-api/pkg/db"
	"github.com/maestriajurisp/leads-api/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migrations instead of applying pending ones")
	path := flag.String("path", "file://migrations", "migration source URL")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: "leads-api-migrate",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Database.WorkOffline {
		logger.Info("DB_WORK_OFFLINE is set, nothing to migrate")
		return
	}

	if *down > 0 {
		logger.Info("Rolling back database migrations",
			zap.String("database", maskDatabaseURL(cfg.Database.URL)),
			zap.Int("steps", *down))

		if err := db.RollbackMigrations(cfg.Database.URL, cfg.Database.CACertPath, *path, *down); err != nil {
			logger.Error("Failed to roll back migrations", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("Database rollback completed successfully")
		return
	}

	logger.Info("Starting database migrations",
		zap.String("database", maskDatabaseURL(cfg.Database.URL)))

	if err := db.RunMigrations(cfg.Database.URL, cfg.Database.CACertPath, *path); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Database migrations completed successfully")
}

// maskDatabaseURL hides the password of a connection URL for logging
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
