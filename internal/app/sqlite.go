package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver for database/sql

	"github.com/dreamjorge/StockStreamDB/config"
	"github.com/dreamjorge/StockStreamDB/internal/storage"
)

// InitSQLite opens (creating if needed) the SQLite file at cfg.SQLite.Path and
// ensures the price_samples table exists.
//
// A single connection is used; SQLite serializes writers anyway and this keeps
// busy errors away from batch upserts.
func InitSQLite(cfg config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", cfg.SQLite.Path)
	db, err := sqlOpener("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := storage.MigrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
	}
	return db, nil
}
