package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dreamjorge/StockStreamDB/internal/domain/models"
)

// dialect captures the few differences between the relational backends.
type dialect struct {
	name string
	// rebind rewrites $n placeholders into the driver's syntax.
	rebind func(query string) string
	// encodeDate converts a calendar date into a driver argument.
	encodeDate  func(time.Time) any
	isDuplicate func(error) bool
}

// sqlRepository implements PriceRepository over database/sql.
type sqlRepository struct {
	db      *sql.DB
	dialect dialect
	opts    options
}

const sampleColumns = `instrument_id, date, open, high, low, close, volume, market_cap, pe_ratio, name, industry, sector`

const insertSQL = `INSERT INTO price_samples (` + sampleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// Every scalar field takes the incoming value, absent ones included, so a stored row
// always equals the last sample written for its key.
const upsertSQL = insertSQL + `
		ON CONFLICT (instrument_id, date)
		DO UPDATE SET open = EXCLUDED.open,
					  high = EXCLUDED.high,
					  low = EXCLUDED.low,
					  close = EXCLUDED.close,
					  volume = EXCLUDED.volume,
					  market_cap = EXCLUDED.market_cap,
					  pe_ratio = EXCLUDED.pe_ratio,
					  name = EXCLUDED.name,
					  industry = EXCLUDED.industry,
					  sector = EXCLUDED.sector,
					  updated_at = CURRENT_TIMESTAMP`

func (r *sqlRepository) q(query string) string {
	return r.dialect.rebind(query)
}

func (r *sqlRepository) sampleArgs(s models.PriceSample) []any {
	return []any{
		models.NormalizeInstrument(s.Instrument),
		r.dialect.encodeDate(models.DateOf(s.Date)),
		s.Open, s.High, s.Low, s.Close, s.Volume,
		s.MarketCap, s.PERatio, s.Name, s.Industry, s.Sector,
	}
}

// Upsert writes a single sample in its own statement.
func (r *sqlRepository) Upsert(ctx context.Context, s models.PriceSample) error {
	if _, err := r.db.ExecContext(ctx, r.q(upsertSQL), r.sampleArgs(s)...); err != nil {
		return fmt.Errorf("upsert %s@%s: %w", s.Instrument, s.Date.Format(models.DateLayout), err)
	}
	return nil
}

// UpsertBatch upserts every sample in one transaction; any failure rolls back the whole batch.
func (r *sqlRepository) UpsertBatch(ctx context.Context, samples []models.PriceSample) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, r.q(upsertSQL))
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	for _, s := range samples {
		if _, err := stmt.ExecContext(ctx, r.sampleArgs(s)...); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return 0, fmt.Errorf("upsert %s@%s: %w", s.Instrument, s.Date.Format(models.DateLayout), err)
		}
	}

	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(samples), nil
}

// Insert writes a sample only if its key is free.
func (r *sqlRepository) Insert(ctx context.Context, s models.PriceSample) error {
	_, err := r.db.ExecContext(ctx, r.q(insertSQL), r.sampleArgs(s)...)
	if err != nil && r.dialect.isDuplicate(err) {
		return &DuplicateKeyError{Instrument: models.NormalizeInstrument(s.Instrument), Date: models.DateOf(s.Date), Err: err}
	}
	return err
}

func (r *sqlRepository) Get(ctx context.Context, instrument string, date time.Time) (*models.PriceSample, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+sampleColumns+` FROM price_samples WHERE instrument_id = $1 AND date = $2`),
		models.NormalizeInstrument(instrument), r.dialect.encodeDate(models.DateOf(date)))

	s, err := scanSample(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sqlRepository) GetRange(ctx context.Context, instrument string, start, end time.Time) ([]models.PriceSample, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT `+sampleColumns+`
		FROM price_samples
		WHERE instrument_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC`),
		models.NormalizeInstrument(instrument),
		r.dialect.encodeDate(models.DateOf(start)),
		r.dialect.encodeDate(models.DateOf(end)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.PriceSample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sqlRepository) Exists(ctx context.Context, instrument string, period models.Period) (bool, error) {
	rng, err := period.Resolve(r.opts.now())
	if err != nil {
		return false, err
	}

	var exists bool
	err = r.db.QueryRowContext(ctx, r.q(`SELECT EXISTS(SELECT 1 FROM price_samples WHERE instrument_id = $1 AND date >= $2 AND date <= $3)`),
		models.NormalizeInstrument(instrument),
		r.dialect.encodeDate(rng.Start),
		r.dialect.encodeDate(rng.End),
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *sqlRepository) LatestDate(ctx context.Context, instrument string) (*time.Time, error) {
	var raw any
	err := r.db.QueryRowContext(ctx, r.q(`SELECT MAX(date) FROM price_samples WHERE instrument_id = $1`),
		models.NormalizeInstrument(instrument)).Scan(&raw)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	d, err := decodeDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *sqlRepository) Update(ctx context.Context, instrument string, date time.Time, patch models.SamplePatch) (bool, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Open != nil {
		set("open", *patch.Open)
	}
	if patch.High != nil {
		set("high", *patch.High)
	}
	if patch.Low != nil {
		set("low", *patch.Low)
	}
	if patch.Close != nil {
		set("close", *patch.Close)
	}
	if patch.Volume != nil {
		set("volume", *patch.Volume)
	}
	if patch.MarketCap != nil {
		set("market_cap", *patch.MarketCap)
	}
	if patch.PERatio != nil {
		set("pe_ratio", *patch.PERatio)
	}
	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Industry != nil {
		set("industry", *patch.Industry)
	}
	if patch.Sector != nil {
		set("sector", *patch.Sector)
	}
	if len(sets) == 0 {
		return false, errors.New("empty patch")
	}

	args = append(args, models.NormalizeInstrument(instrument), r.dialect.encodeDate(models.DateOf(date)))
	query := fmt.Sprintf(`UPDATE price_samples SET %s, updated_at = CURRENT_TIMESTAMP WHERE instrument_id = $%d AND date = $%d`,
		strings.Join(sets, ", "), len(args)-1, len(args))

	res, err := r.db.ExecContext(ctx, r.q(query), args...)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (r *sqlRepository) Delete(ctx context.Context, instrument string, date *time.Time) (bool, error) {
	var (
		res sql.Result
		err error
	)
	id := models.NormalizeInstrument(instrument)
	if date != nil {
		res, err = r.db.ExecContext(ctx, r.q(`DELETE FROM price_samples WHERE instrument_id = $1 AND date = $2`),
			id, r.dialect.encodeDate(models.DateOf(*date)))
	} else {
		res, err = r.db.ExecContext(ctx, r.q(`DELETE FROM price_samples WHERE instrument_id = $1`), id)
	}
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (r *sqlRepository) Instruments(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT instrument_id FROM price_samples ORDER BY instrument_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *sqlRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSample(sc scanner) (models.PriceSample, error) {
	var (
		s       models.PriceSample
		rawDate any
	)
	err := sc.Scan(
		&s.Instrument, &rawDate,
		&s.Open, &s.High, &s.Low, &s.Close, &s.Volume,
		&s.MarketCap, &s.PERatio, &s.Name, &s.Industry, &s.Sector,
	)
	if err != nil {
		return s, err
	}
	s.Date, err = decodeDate(rawDate)
	return s, err
}

// decodeDate accepts what drivers hand back for a date column: time.Time (lib/pq)
// or ISO text (sqlite).
func decodeDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return models.DateOf(d), nil
	case string:
		return parseDateText(d)
	case []byte:
		return parseDateText(string(d))
	default:
		return time.Time{}, fmt.Errorf("unsupported date value %T", v)
	}
}

func parseDateText(s string) (time.Time, error) {
	if len(s) >= len(models.DateLayout) {
		s = s[:len(models.DateLayout)]
	}
	return models.ParseDate(s)
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
