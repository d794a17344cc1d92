// Package fetcher retrieves historical daily bars from a market-data provider and
// normalizes them into canonical price samples.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/dreamjorge/StockStreamDB/internal/domain/models"
	"github.com/dreamjorge/StockStreamDB/internal/logger"
)

const (
	DefaultMaxAttempts = 3
	DefaultDelay       = 2 * time.Second
)

// RawRow is one provider row before normalization. Any cell may be absent.
type RawRow struct {
	Date   time.Time
	Open   null.Float
	High   null.Float
	Low    null.Float
	Close  null.Float
	Volume null.Int
}

// RawSeries is the provider's answer for one instrument and range.
type RawSeries struct {
	Instrument string
	Rows       []RawRow
}

// Provider is the external market-data source.
//
// Implementations must classify failures: *TransientFetchError for retry-worthy faults,
// *PermanentFetchError for everything a retry cannot fix.
type Provider interface {
	History(ctx context.Context, instrument string, r models.DateRange) (*RawSeries, error)
}

// Fetcher applies the retry policy around a Provider.
type Fetcher struct {
	provider    Provider
	maxAttempts int
	delay       time.Duration
	now         func() time.Time
	log         *zerolog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMaxAttempts bounds the total number of provider calls per Fetch (minimum 1).
func WithMaxAttempts(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithDelay sets the fixed pause between attempts.
func WithDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.delay = d
		}
	}
}

// WithClock overrides the clock used to resolve period tokens.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}

// WithLogger sets the logger used for attempt and outcome logs.
func WithLogger(l *zerolog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

// New builds a Fetcher with 3 attempts and a 2s delay unless overridden.
func New(p Provider, opts ...Option) *Fetcher {
	f := &Fetcher{
		provider:    p,
		maxAttempts: DefaultMaxAttempts,
		delay:       DefaultDelay,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = logger.L()
	}
	return f
}

// MaxAttempts returns the configured attempt limit.
func (f *Fetcher) MaxAttempts() int { return f.maxAttempts }

// Fetch resolves period, calls the provider with bounded retries and returns ascending samples.
//
// Outcomes:
//   - samples, nil: data found.
//   - nil, nil: no data (permanent failure or empty history). Not an error.
//   - nil, *FetchExhaustedError: every attempt failed transiently.
//   - nil, ctx.Err(): the caller gave up.
func (f *Fetcher) Fetch(ctx context.Context, instrument string, period models.Period) ([]models.PriceSample, error) {
	instrument = models.NormalizeInstrument(instrument)
	rng, err := period.Resolve(f.now())
	if err != nil {
		return nil, err
	}

	var (
		series   *RawSeries
		attempts int
		lastErr  error
	)

	backoff := retry.WithMaxRetries(uint64(f.maxAttempts-1), retry.NewConstant(f.delay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		s, err := f.provider.History(ctx, instrument, rng)
		if err == nil {
			series = s
			return nil
		}
		lastErr = err
		if IsTransient(err) {
			f.log.Warn().
				Str("instrument", instrument).
				Str("period", string(period)).
				Int("attempt", attempts).
				Int("max_attempts", f.maxAttempts).
				Err(err).
				Msg("provider call failed, will retry")
			return retry.RetryableError(err)
		}
		return err
	})

	switch {
	case err == nil:
	case IsPermanent(err):
		f.log.Warn().Str("instrument", instrument).Str("period", string(period)).Err(err).Msg("no data from provider")
		return nil, nil
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return nil, err
	case IsTransient(err):
		return nil, &FetchExhaustedError{Instrument: instrument, Period: string(period), Attempts: attempts, Err: lastErr}
	default:
		return nil, fmt.Errorf("fetch %s/%s: %w", instrument, period, err)
	}

	out := Normalize(instrument, series)
	if len(out) == 0 {
		f.log.Info().Str("instrument", instrument).Str("period", string(period)).Msg("provider returned no history")
		return nil, nil
	}
	f.log.Debug().Str("instrument", instrument).Str("period", string(period)).Int("samples", len(out)).Int("attempts", attempts).Msg("fetch done")
	return out, nil
}

// Normalize converts raw provider rows into canonical samples: ascending by date,
// one per calendar date (the last row for a date wins), rows without a close dropped.
func Normalize(instrument string, series *RawSeries) []models.PriceSample {
	if series == nil || len(series.Rows) == 0 {
		return nil
	}

	byDate := make(map[time.Time]models.PriceSample, len(series.Rows))
	for _, row := range series.Rows {
		if !row.Close.Valid {
			continue
		}
		d := models.DateOf(row.Date)
		byDate[d] = models.PriceSample{
			Instrument: instrument,
			Date:       d,
			Open:       row.Open,
			High:       row.High,
			Low:        row.Low,
			Close:      row.Close.Float64,
			Volume:     row.Volume,
		}
	}

	out := make([]models.PriceSample, 0, len(byDate))
	for _, s := range byDate {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
