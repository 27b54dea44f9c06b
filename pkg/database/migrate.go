package database

import (
	"context"
	"fmt"

	"virtual-doctor-be/internal/model"

	"gorm.io/gorm"
)

// setupSQL runs before AutoMigrate; gen_random_uuid needs pgcrypto on older servers.
var setupSQL = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
}

// Migrate creates or updates the conversations table and its session_id index.
func Migrate(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx)
	for _, sql := range setupSQL {
		if err := tx.Exec(sql).Error; err != nil {
			return fmt.Errorf("setup sql: %w", err)
		}
	}
	if err := tx.AutoMigrate(&model.Conversation{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
