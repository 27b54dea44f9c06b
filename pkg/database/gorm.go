package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	applogger "virtual-doctor-be/internal/pkg/logger"
	"virtual-doctor-be/pkg/retry"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const logModule = "Database"

type ConnectOptions struct {
	Attempts   int
	RetryDelay time.Duration
	Verbose    bool
}

func getLogger(verbose bool) logger.Interface {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  true,
		},
	)
}

func configureConnectionPool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return nil
}

func open(ctx context.Context, dsn string, verbose bool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         getLogger(verbose),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// NewGormDBFromDSN opens a postgres connection, retrying while the database is
// still coming up.
func NewGormDBFromDSN(ctx context.Context, dsn string, opts ConnectOptions, log applogger.ILogger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database connection string is empty")
	}

	policy := retry.Policy{
		MaxAttempts: opts.Attempts,
		Delay:       opts.RetryDelay,
		Retryable:   func(error) bool { return true },
		OnRetry: func(attempt int, err error, wait time.Duration) {
			log.Warn(logModule, "Database not reachable, retrying", map[string]interface{}{
				"attempt": attempt,
				"wait":    wait.String(),
				"error":   err.Error(),
			})
		},
	}

	db, err := retry.Do(ctx, policy, func(ctx context.Context, _ int) (*gorm.DB, error) {
		return open(ctx, dsn, opts.Verbose)
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := configureConnectionPool(db); err != nil {
		return nil, err
	}

	log.Info(logModule, "Database connected", nil)
	return db, nil
}
