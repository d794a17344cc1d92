package storage

import (
	"database/sql"
	"errors"
	"time"

	pq "github.com/lib/pq"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

var postgresDialect = dialect{
	name:       "postgres",
	rebind:     func(q string) string { return q },
	encodeDate: func(d time.Time) any { return d },
	isDuplicate: func(err error) bool {
		var pqErr *pq.Error
		return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
	},
}

// NewPostgresRepository returns a PriceRepository backed by PostgreSQL (lib/pq).
// The schema is owned by the goose migrations in db/migrations.
func NewPostgresRepository(db *sql.DB, opts ...Option) PriceRepository {
	return &sqlRepository{db: db, dialect: postgresDialect, opts: buildOptions(opts)}
}
