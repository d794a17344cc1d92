package app

import (
	"context"
	"database/sql"
	"fmt"

	schema "github.com/dreamjorge/StockStreamDB/db"
	"github.com/dreamjorge/StockStreamDB/config"
	"github.com/dreamjorge/StockStreamDB/internal/logger"
	"github.com/dreamjorge/StockStreamDB/internal/storage"
)

// migratePostgres applies the embedded goose migrations; overridden in tests.
var migratePostgres = schema.Migrate

// OpenRepository builds the PriceRepository selected by cfg.Store.Driver.
//
// Returns the repository and a close function releasing its connection pool
// (a no-op for the memory store).
func OpenRepository(ctx context.Context, cfg config.Config) (storage.PriceRepository, func(), error) {
	noop := func() {}

	switch cfg.Store.Driver {
	case config.DriverPostgres, "":
		db, err := postgresOpener(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := migratePostgres(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to migrate postgres: %w", err)
		}
		logger.L().Info().Str("driver", config.DriverPostgres).Str("host", cfg.Postgres.Host).Str("db", cfg.Postgres.DBName).Msg("store ready")
		return storage.NewPostgresRepository(db), closer(db), nil

	case config.DriverSQLite:
		db, err := InitSQLite(cfg)
		if err != nil {
			return nil, nil, err
		}
		logger.L().Info().Str("driver", config.DriverSQLite).Str("path", cfg.SQLite.Path).Msg("store ready")
		return storage.NewSQLiteRepository(db), closer(db), nil

	case config.DriverMemory:
		logger.L().Warn().Str("driver", config.DriverMemory).Msg("store ready; data is lost on exit")
		return storage.NewMemoryRepository(), noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func closer(db *sql.DB) func() {
	return func() { _ = db.Close() }
}
