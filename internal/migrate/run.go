// Package migrate applies the embedded SQL schema migrations.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Run applies all embedded SQL migrations in lexical order. It is safe to
// call multiple times; applied versions are recorded in schema_migrations.
func Run(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		if applyErr := applyMigration(ctx, db, f); applyErr != nil {
			return applyErr
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, file string) error {
	version := strings.TrimSuffix(file, ".sql")

	var exists bool
	if err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check migration %s: %w", file, err)
	}
	if exists {
		return nil
	}

	sqlBytes, err := migrationsFS.ReadFile("migrations/" + file)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", file, err)
	}

	logger := slog.Default().With("component", "migrations")
	logger.InfoContext(ctx, "applying migration", "version", version)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			logger.ErrorContext(ctx, "rollback failed", "err", rerr, "migration_file", file)
		}
	}()

	if _, execErr := tx.ExecContext(ctx, string(sqlBytes)); execErr != nil {
		return fmt.Errorf("exec migration %s: %w", file, execErr)
	}
	if _, insErr := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version) VALUES ($1)`, version,
	); insErr != nil {
		return fmt.Errorf("record migration %s: %w", file, insErr)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("commit migration %s: %w", file, commitErr)
	}
	return nil
}
