package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dreamjorge/StockStreamDB/internal/domain/models"
)

type memKey struct {
	instrument string
	date       time.Time
}

// memoryRepository keeps samples in a map; used for tests and STORE_DRIVER=memory.
type memoryRepository struct {
	mu      sync.RWMutex
	samples map[memKey]models.PriceSample
	opts    options
}

// NewMemoryRepository returns an empty in-process PriceRepository.
func NewMemoryRepository(opts ...Option) PriceRepository {
	return &memoryRepository{samples: make(map[memKey]models.PriceSample), opts: buildOptions(opts)}
}

func keyOf(instrument string, date time.Time) memKey {
	return memKey{instrument: models.NormalizeInstrument(instrument), date: models.DateOf(date)}
}

func normalized(s models.PriceSample) models.PriceSample {
	s.Instrument = models.NormalizeInstrument(s.Instrument)
	s.Date = models.DateOf(s.Date)
	return s
}

func (m *memoryRepository) upsertLocked(s models.PriceSample) {
	s = normalized(s)
	m.samples[keyOf(s.Instrument, s.Date)] = s
}

func (m *memoryRepository) Upsert(_ context.Context, s models.PriceSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertLocked(s)
	return nil
}

func (m *memoryRepository) UpsertBatch(ctx context.Context, samples []models.PriceSample) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range samples {
		m.upsertLocked(s)
	}
	return len(samples), nil
}

func (m *memoryRepository) Insert(_ context.Context, s models.PriceSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s = normalized(s)
	k := keyOf(s.Instrument, s.Date)
	if _, ok := m.samples[k]; ok {
		return &DuplicateKeyError{Instrument: s.Instrument, Date: s.Date}
	}
	m.samples[k] = s
	return nil
}

func (m *memoryRepository) Get(_ context.Context, instrument string, date time.Time) (*models.PriceSample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.samples[keyOf(instrument, date)]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memoryRepository) GetRange(_ context.Context, instrument string, start, end time.Time) ([]models.PriceSample, error) {
	id := models.NormalizeInstrument(instrument)
	rng := models.DateRange{Start: models.DateOf(start), End: models.DateOf(end)}

	m.mu.RLock()
	var out []models.PriceSample
	for k, s := range m.samples {
		if k.instrument == id && rng.Contains(k.date) {
			out = append(out, s)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memoryRepository) Exists(_ context.Context, instrument string, period models.Period) (bool, error) {
	rng, err := period.Resolve(m.opts.now())
	if err != nil {
		return false, err
	}
	id := models.NormalizeInstrument(instrument)

	m.mu.RLock()
	defer m.mu.RUnlock()
	for k := range m.samples {
		if k.instrument == id && rng.Contains(k.date) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepository) LatestDate(_ context.Context, instrument string) (*time.Time, error) {
	id := models.NormalizeInstrument(instrument)

	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *time.Time
	for k := range m.samples {
		if k.instrument != id {
			continue
		}
		if latest == nil || k.date.After(*latest) {
			d := k.date
			latest = &d
		}
	}
	return latest, nil
}

func (m *memoryRepository) Update(_ context.Context, instrument string, date time.Time, patch models.SamplePatch) (bool, error) {
	if patch.IsEmpty() {
		return false, errors.New("empty patch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := keyOf(instrument, date)
	s, ok := m.samples[k]
	if !ok {
		return false, nil
	}
	m.samples[k] = patch.Apply(s)
	return true, nil
}

func (m *memoryRepository) Delete(_ context.Context, instrument string, date *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if date != nil {
		k := keyOf(instrument, *date)
		if _, ok := m.samples[k]; !ok {
			return false, nil
		}
		delete(m.samples, k)
		return true, nil
	}

	id := models.NormalizeInstrument(instrument)
	deleted := false
	for k := range m.samples {
		if k.instrument == id {
			delete(m.samples, k)
			deleted = true
		}
	}
	return deleted, nil
}

func (m *memoryRepository) Instruments(_ context.Context) ([]string, error) {
	m.mu.RLock()
	seen := make(map[string]struct{})
	for k := range m.samples {
		seen[k.instrument] = struct{}{}
	}
	m.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memoryRepository) Ping(context.Context) error { return nil }
