package data

import (
	"context"
	"database/sql"

	"github.com/leadgrid/leadgrid/internal/migrate"
)

// RunMigrations sets up the database schema by delegating to the migrate package.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate.Run(ctx, db)
}
