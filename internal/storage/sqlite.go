package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dreamjorge/StockStreamDB/internal/domain/models"
)

var sqliteDialect = dialect{
	name: "sqlite",
	// ?NNN binds by index, so reused or reordered $n placeholders keep their meaning.
	rebind:     func(q string) string { return strings.ReplaceAll(q, "$", "?") },
	encodeDate: func(d time.Time) any { return d.Format(models.DateLayout) },
	isDuplicate: func(err error) bool {
		var se *sqlite.Error
		if !errors.As(err, &se) {
			return false
		}
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	},
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS price_samples (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	instrument_id TEXT    NOT NULL,
	name          TEXT,
	industry      TEXT,
	sector        TEXT,
	date          TEXT    NOT NULL,
	open          REAL,
	high          REAL,
	low           REAL,
	close         REAL    NOT NULL,
	volume        INTEGER CHECK (volume >= 0),
	market_cap    REAL,
	pe_ratio      REAL,
	updated_at    TEXT    NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (instrument_id, date)
);
CREATE INDEX IF NOT EXISTS idx_price_samples_date ON price_samples(date);
`

// NewSQLiteRepository returns a PriceRepository backed by an embedded SQLite file.
// Call MigrateSQLite once on the handle before use.
func NewSQLiteRepository(db *sql.DB, opts ...Option) PriceRepository {
	return &sqlRepository{db: db, dialect: sqliteDialect, opts: buildOptions(opts)}
}

// MigrateSQLite creates the price_samples table if it does not exist.
func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, sqliteSchema)
	return err
}
