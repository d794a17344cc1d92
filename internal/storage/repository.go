package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/dreamjorge/StockStreamDB/internal/domain/models"
)

// PriceRepository is the durable store of price samples keyed by (instrument, date).
//
// The uniqueness of (instrument, date) is enforced by every implementation itself;
// callers never need to pre-check before writing.
type PriceRepository interface {
	// Upsert inserts s or overwrites the stored sample for the same key. Idempotent.
	Upsert(ctx context.Context, s models.PriceSample) error
	// UpsertBatch upserts all samples in one transaction and returns how many were written.
	UpsertBatch(ctx context.Context, samples []models.PriceSample) (int, error)
	// Insert is the strict path: it fails with *DuplicateKeyError when the key is taken.
	Insert(ctx context.Context, s models.PriceSample) error
	// Get returns nil, nil when the sample does not exist.
	Get(ctx context.Context, instrument string, date time.Time) (*models.PriceSample, error)
	// GetRange returns samples in [start, end] ascending by date.
	GetRange(ctx context.Context, instrument string, start, end time.Time) ([]models.PriceSample, error)
	// Exists reports whether at least one sample falls inside the resolved period.
	Exists(ctx context.Context, instrument string, period models.Period) (bool, error)
	// LatestDate returns nil when the instrument has no samples.
	LatestDate(ctx context.Context, instrument string) (*time.Time, error)
	// Update applies patch to one sample; false when nothing matched.
	Update(ctx context.Context, instrument string, date time.Time, patch models.SamplePatch) (bool, error)
	// Delete removes one sample when date is set, else every sample of the instrument; false when nothing matched.
	Delete(ctx context.Context, instrument string, date *time.Time) (bool, error)
	// Instruments lists instruments with at least one sample, sorted.
	Instruments(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// DuplicateKeyError is returned by Insert when (instrument, date) already exists.
type DuplicateKeyError struct {
	Instrument string
	Date       time.Time
	Err        error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("sample %s@%s already exists", e.Instrument, e.Date.Format(models.DateLayout))
}

func (e *DuplicateKeyError) Unwrap() error { return e.Err }

// Option configures a repository.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used to resolve period tokens in Exists.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
