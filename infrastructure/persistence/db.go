// Package persistence provides database storage implementations.
package persistence

import (
	"context"

	"github.com/helixml/shardrun/internal/database"
)

// AutoMigrate creates or updates the tables for all models.
func AutoMigrate(ctx context.Context, db database.Database) error {
	return db.Session(ctx).AutoMigrate(allModels()...)
}

func allModels() []any {
	return []any{
		&SubmissionModel{},
	}
}
