package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dreamjorge/StockStreamDB/internal/aggregate"
	"github.com/dreamjorge/StockStreamDB/internal/domain/models"
	"github.com/dreamjorge/StockStreamDB/internal/logger"
	"github.com/dreamjorge/StockStreamDB/internal/storage"
)

var (
	ErrEmptyInstrument = errors.New("instrument is required")
	ErrInvalidRange    = errors.New("start date must not be after end date")
	ErrEmptyPatch      = errors.New("patch has no fields to update")
	ErrMissingDate     = errors.New("sample date is required")
)

// FetchState is the terminal state of one fetch-and-store run.
type FetchState string

const (
	StateSkipped FetchState = "skipped"
	StateDone    FetchState = "done"
	StateFailed  FetchState = "failed"
)

// FetchResult reports what a fetch-and-store run did.
type FetchResult struct {
	Instrument string
	Period     models.Period
	State      FetchState
	Written    int
}

// SampleFetcher is the slice of the fetcher the service depends on.
type SampleFetcher interface {
	Fetch(ctx context.Context, instrument string, period models.Period) ([]models.PriceSample, error)
}

// PriceService coordinates the fetcher, the repository and the aggregator.
// It holds no state of its own besides the in-flight fetch registry.
type PriceService interface {
	CheckExists(ctx context.Context, instrument string, period models.Period) (bool, error)
	FetchAndStore(ctx context.Context, instrument string, period models.Period) (FetchResult, error)
	Refresh(ctx context.Context, instrument string, period models.Period) (FetchResult, error)
	GetAggregated(ctx context.Context, instrument string, start, end time.Time, g models.Granularity) ([]models.AggregatedPoint, error)
	GetRange(ctx context.Context, instrument string, start, end time.Time) ([]models.PriceSample, error)
	GetSample(ctx context.Context, instrument string, date time.Time) (*models.PriceSample, error)
	CreateSample(ctx context.Context, sample models.PriceSample) error
	UpdateSample(ctx context.Context, instrument string, date time.Time, patch models.SamplePatch) (bool, error)
	DeleteSamples(ctx context.Context, instrument string, date *time.Time) (bool, error)
	Instruments(ctx context.Context) ([]string, error)
	LatestDate(ctx context.Context, instrument string) (*time.Time, error)
	Import(ctx context.Context, samples []models.PriceSample) (int, error)
}

type priceService struct {
	repo    storage.PriceRepository
	fetcher SampleFetcher
	flights singleflight.Group
	runs    keyedLock
}

// NewPriceService wires a repository and a fetcher into a PriceService.
func NewPriceService(repo storage.PriceRepository, f SampleFetcher) PriceService {
	return &priceService{repo: repo, fetcher: f}
}

func (s *priceService) CheckExists(ctx context.Context, instrument string, period models.Period) (bool, error) {
	id := models.NormalizeInstrument(instrument)
	if id == "" {
		return false, ErrEmptyInstrument
	}
	return s.repo.Exists(ctx, id, period)
}

// FetchAndStore skips the provider when the period is already covered, otherwise fetches
// and writes the whole result in one batch. Concurrent calls for the same instrument and
// period share a single run.
func (s *priceService) FetchAndStore(ctx context.Context, instrument string, period models.Period) (FetchResult, error) {
	return s.fetchShared(ctx, instrument, period, false)
}

// Refresh always calls the provider and re-upserts the fetched window.
func (s *priceService) Refresh(ctx context.Context, instrument string, period models.Period) (FetchResult, error) {
	return s.fetchShared(ctx, instrument, period, true)
}

func (s *priceService) fetchShared(ctx context.Context, instrument string, period models.Period, force bool) (FetchResult, error) {
	id := models.NormalizeInstrument(instrument)
	res := FetchResult{Instrument: id, Period: period, State: StateFailed}
	if id == "" {
		return res, ErrEmptyInstrument
	}
	if _, err := models.ParsePeriod(string(period)); err != nil {
		return res, err
	}

	runKey := id + "|" + string(period)
	flightKey := runKey
	if force {
		flightKey += "|force"
	}

	// The shared run must outlive any single waiter; each waiter still honors its own context.
	// Forced and unforced flights for one key take turns on the run lock, so the provider
	// sees at most one request per instrument and period.
	runCtx := context.WithoutCancel(ctx)
	ch := s.flights.DoChan(flightKey, func() (any, error) {
		release := s.runs.acquire(runKey)
		defer release()
		return s.fetchAndStore(runCtx, id, period, force)
	})

	select {
	case <-ctx.Done():
		return res, ctx.Err()
	case r := <-ch:
		out, _ := r.Val.(FetchResult)
		if r.Err != nil {
			return res, r.Err
		}
		return out, nil
	}
}

func (s *priceService) fetchAndStore(ctx context.Context, id string, period models.Period, force bool) (FetchResult, error) {
	res := FetchResult{Instrument: id, Period: period, State: StateFailed}
	start := time.Now()
	log := logger.L().With().Str("instrument", id).Str("period", string(period)).Bool("force", force).Logger()

	if !force {
		exists, err := s.repo.Exists(ctx, id, period)
		if err != nil {
			log.Error().Err(err).Msg("existence check failed")
			return res, fmt.Errorf("check exists %s/%s: %w", id, period, err)
		}
		if exists {
			res.State = StateSkipped
			log.Info().Str("state", string(res.State)).Msg("data already stored, fetch skipped")
			return res, nil
		}
	}

	samples, err := s.fetcher.Fetch(ctx, id, period)
	if err != nil {
		log.Error().Err(err).Str("state", string(StateFailed)).Msg("fetch failed")
		return res, err
	}
	if len(samples) == 0 {
		res.State = StateDone
		log.Info().Str("state", string(res.State)).Int("written", 0).Msg("no data for instrument")
		return res, nil
	}

	written, err := s.repo.UpsertBatch(ctx, samples)
	if err != nil {
		log.Error().Err(err).Str("state", string(StateFailed)).Msg("store failed")
		return res, fmt.Errorf("store %s/%s: %w", id, period, err)
	}

	res.State = StateDone
	res.Written = written
	log.Info().Str("state", string(res.State)).Int("written", written).Dur("elapsed", time.Since(start)).Msg("fetch and store done")
	return res, nil
}

// GetAggregated reads [start, end] from the repository and resamples it. An empty
// range yields *aggregate.NoDataError.
func (s *priceService) GetAggregated(ctx context.Context, instrument string, start, end time.Time, g models.Granularity) ([]models.AggregatedPoint, error) {
	id := models.NormalizeInstrument(instrument)
	if id == "" {
		return nil, ErrEmptyInstrument
	}
	rng := models.DateRange{Start: models.DateOf(start), End: models.DateOf(end)}
	if rng.Start.After(rng.End) {
		return nil, ErrInvalidRange
	}
	// reject unsupported granularities before touching storage
	if _, err := aggregate.BucketStart(rng.Start, g); err != nil {
		return nil, err
	}

	samples, err := s.repo.GetRange(ctx, id, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}
	return aggregate.Aggregate(id, rng, samples, g)
}

func (s *priceService) GetRange(ctx context.Context, instrument string, start, end time.Time) ([]models.PriceSample, error) {
	id := models.NormalizeInstrument(instrument)
	if id == "" {
		return nil, ErrEmptyInstrument
	}
	if models.DateOf(start).After(models.DateOf(end)) {
		return nil, ErrInvalidRange
	}
	return s.repo.GetRange(ctx, id, start, end)
}

func (s *priceService) GetSample(ctx context.Context, instrument string, date time.Time) (*models.PriceSample, error) {
	id := models.NormalizeInstrument(instrument)
	if id == "" {
		return nil, ErrEmptyInstrument
	}
	return s.repo.Get(ctx, id, date)
}

// CreateSample stores a new sample and never overwrites: an existing (instrument, date)
// returns *storage.DuplicateKeyError.
func (s *priceService) CreateSample(ctx context.Context, sample models.PriceSample) error {
	sample.Instrument = models.NormalizeInstrument(sample.Instrument)
	if sample.Instrument == "" {
		return ErrEmptyInstrument
	}
	if sample.Date.IsZero() {
		return ErrMissingDate
	}
	sample.Date = models.DateOf(sample.Date)

	if err := s.repo.Insert(ctx, sample); err != nil {
		return err
	}
	logger.L().Info().Str("instrument", sample.Instrument).Str("date", sample.Date.Format(models.DateLayout)).Msg("sample created")
	return nil
}

func (s *priceService) UpdateSample(ctx context.Context, instrument string, date time.Time, patch models.SamplePatch) (bool, error) {
	id := models.NormalizeInstrument(instrument)
	if id == "" {
		return false, ErrEmptyInstrument
	}
	if patch.IsEmpty() {
		return false, ErrEmptyPatch
	}
	return s.repo.Update(ctx, id, date, patch)
}

func (s *priceService) DeleteSamples(ctx context.Context, instrument string, date *time.Time) (bool, error) {
	id := models.NormalizeInstrument(instrument)
	if id == "" {
		return false, ErrEmptyInstrument
	}
	deleted, err := s.repo.Delete(ctx, id, date)
	if err != nil {
		return false, err
	}
	ev := logger.L().Info().Str("instrument", id).Bool("deleted", deleted)
	if date != nil {
		ev = ev.Str("date", date.Format(models.DateLayout))
	}
	ev.Msg("delete samples")
	return deleted, nil
}

func (s *priceService) Instruments(ctx context.Context) ([]string, error) {
	return s.repo.Instruments(ctx)
}

func (s *priceService) LatestDate(ctx context.Context, instrument string) (*time.Time, error) {
	id := models.NormalizeInstrument(instrument)
	if id == "" {
		return nil, ErrEmptyInstrument
	}
	return s.repo.LatestDate(ctx, id)
}

// Import upserts externally sourced samples (CSV backfill) as one batch.
func (s *priceService) Import(ctx context.Context, samples []models.PriceSample) (int, error) {
	return s.repo.UpsertBatch(ctx, samples)
}

// keyedLock is a set of mutexes created on demand and dropped when unused.
type keyedLock struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedLock) acquire(key string) (release func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
