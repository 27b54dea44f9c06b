package main

import (
	"context"
	"os"

	"virtual-doctor-be/internal/config"
	"virtual-doctor-be/internal/pkg/logger"
	"virtual-doctor-be/pkg/database"

	"github.com/fatih/color"
)

func main() {
	cfg := config.Load()
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	ctx := context.Background()
	db, err := database.NewGormDBFromDSN(ctx, cfg.Database.Connection, database.ConnectOptions{
		Attempts:   cfg.Database.ConnectAttempts,
		RetryDelay: cfg.Database.RetryDelay,
	}, sysLogger)
	if err != nil {
		color.Red("✗ Failed to connect to database: %v", err)
		os.Exit(1)
	}

	color.Cyan("Running migrations...")
	if err := database.Migrate(ctx, db); err != nil {
		color.Red("✗ Migration failed: %v", err)
		sysLogger.Error("Migrate", "Migration failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	color.Green("✓ conversations table is up to date")
}
