package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"feature-voting-backend/migrations"
)

// Migrate applies the embedded schema through the pgx pool.
// Safe to call multiple times - uses IF NOT EXISTS.
func (db *PostgresDB) Migrate(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}
	stmts, err := migrations.Up()
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}
	for _, stmt := range stmts {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	log.Info().Int("files", len(stmts)).Msg("[DATABASE] Schema applied")
	return nil
}

// CreateSchema applies the up migrations over a database/sql handle (cmd/migrate).
func CreateSchema(ctx context.Context, sqlDB *sql.DB) error {
	stmts, err := migrations.Up()
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}
	for _, stmt := range stmts {
		if _, err := sqlDB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", ClassifyError(err))
		}
	}
	return nil
}

// DropSchema applies the down migrations.
func DropSchema(ctx context.Context, sqlDB *sql.DB) error {
	stmts, err := migrations.Down()
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}
	for _, stmt := range stmts {
		if _, err := sqlDB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
	}
	return nil
}
