// Package db ships the PostgreSQL schema as embedded goose migrations.
package db

import (
	"context"
	"database/sql"
	"embed"

	goose "github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MigrationsDir is the directory goose reads inside the embedded filesystem.
const MigrationsDir = "migrations"

// Migrate applies every pending migration to a PostgreSQL database.
func Migrate(ctx context.Context, conn *sql.DB) error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, conn, MigrationsDir)
}
