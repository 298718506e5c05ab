package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// gooseRun is a seam for tests.
var gooseRun = func(ctx context.Context, command string, db *sql.DB, dir string) error {
	return goose.RunContext(ctx, command, db, dir)
}

// Migrate runs a goose command ("up", "down", "status", ...) against db using
// the embedded SQL migrations.
func Migrate(ctx context.Context, db *sql.DB, command string) error {
	switch command {
	case "up", "down", "status", "version", "redo", "reset":
	default:
		return fmt.Errorf("db: unsupported migrate command %q", command)
	}

	goose.SetBaseFS(migrationFS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("db: goose dialect: %w", err)
	}

	if err := gooseRun(ctx, command, db, "migrations"); err != nil {
		return fmt.Errorf("db: migrate %s: %w", command, err)
	}
	return nil
}
