package storage

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/guregu/null/v6"

	"github.com/dreamjorge/StockStreamDB/internal/domain/models"
)

type repoFactory func(t *testing.T, opts ...Option) PriceRepository

var contractNow = func() time.Time { return time.Date(2023, 1, 31, 18, 0, 0, 0, time.UTC) }

func d(y int, m time.Month, day int) time.Time { return time.Date(y, m, day, 0, 0, 0, 0, time.UTC) }

func sample(id string, date time.Time, close float64) models.PriceSample {
	return models.PriceSample{
		Instrument: id,
		Date:       date,
		Open:       null.FloatFrom(close - 1),
		High:       null.FloatFrom(close + 1),
		Low:        null.FloatFrom(close - 2),
		Close:      close,
		Volume:     null.IntFrom(1000),
	}
}

// runRepositoryContract checks the behavior every PriceRepository variant must share.
func runRepositoryContract(t *testing.T, newRepo repoFactory) {
	ctx := context.Background()

	t.Run("upsert is idempotent", func(t *testing.T) {
		repo := newRepo(t)
		s := sample("AAPL", d(2023, 1, 2), 150)
		for i := 0; i < 2; i++ {
			if err := repo.Upsert(ctx, s); err != nil {
				t.Fatalf("upsert %d: %v", i, err)
			}
		}
		got, err := repo.GetRange(ctx, "AAPL", d(2023, 1, 1), d(2023, 1, 31))
		if err != nil {
			t.Fatalf("range: %v", err)
		}
		if len(got) != 1 || !reflect.DeepEqual(got[0], s) {
			t.Fatalf("want exactly %+v, got %+v", s, got)
		}
	})

	t.Run("upsert overwrites prices and keeps one row per date", func(t *testing.T) {
		repo := newRepo(t)
		_ = repo.Upsert(ctx, sample("AAPL", d(2023, 1, 2), 150))
		updated := sample("aapl", d(2023, 1, 2), 155)
		updated.Volume = null.Int{}
		if err := repo.Upsert(ctx, updated); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		got, _ := repo.GetRange(ctx, "AAPL", d(2023, 1, 2), d(2023, 1, 2))
		if len(got) != 1 {
			t.Fatalf("duplicate rows: %+v", got)
		}
		if got[0].Close != 155 || got[0].Volume.Valid {
			t.Fatalf("scalar fields not overwritten: %+v", got[0])
		}
	})

	t.Run("upsert replaces every field including absent ones", func(t *testing.T) {
		repo := newRepo(t)
		s := sample("MSFT", d(2023, 1, 3), 240)
		s.Name = null.StringFrom("Microsoft")
		s.Sector = null.StringFrom("Technology")
		s.MarketCap = null.FloatFrom(1.8e12)
		_ = repo.Upsert(ctx, s)

		next := sample("MSFT", d(2023, 1, 3), 241)
		if _, err := repo.UpsertBatch(ctx, []models.PriceSample{next}); err != nil {
			t.Fatalf("upsert batch: %v", err)
		}
		got, err := repo.Get(ctx, "MSFT", d(2023, 1, 3))
		if err != nil || got == nil {
			t.Fatalf("get: %v %v", got, err)
		}
		if !reflect.DeepEqual(*got, next) {
			t.Fatalf("stored row must equal the last write:\n got  %+v\n want %+v", *got, next)
		}
	})

	t.Run("batch upsert and ordered range", func(t *testing.T) {
		repo := newRepo(t)
		batch := []models.PriceSample{
			sample("AAPL", d(2023, 1, 4), 3),
			sample("AAPL", d(2023, 1, 2), 1),
			sample("AAPL", d(2023, 1, 3), 2),
			sample("MSFT", d(2023, 1, 3), 9),
		}
		n, err := repo.UpsertBatch(ctx, batch)
		if err != nil || n != 4 {
			t.Fatalf("batch: n=%d err=%v", n, err)
		}
		got, _ := repo.GetRange(ctx, "AAPL", d(2023, 1, 2), d(2023, 1, 3))
		if len(got) != 2 || got[0].Close != 1 || got[1].Close != 2 {
			t.Fatalf("range must be inclusive and ascending: %+v", got)
		}
		n, err = repo.UpsertBatch(ctx, nil)
		if err != nil || n != 0 {
			t.Fatalf("empty batch: n=%d err=%v", n, err)
		}
	})

	t.Run("strict insert rejects duplicates", func(t *testing.T) {
		repo := newRepo(t)
		s := sample("AAPL", d(2023, 1, 2), 150)
		if err := repo.Insert(ctx, s); err != nil {
			t.Fatalf("first insert: %v", err)
		}
		err := repo.Insert(ctx, s)
		var dup *DuplicateKeyError
		if !errors.As(err, &dup) {
			t.Fatalf("want DuplicateKeyError, got %v", err)
		}
		if dup.Instrument != "AAPL" {
			t.Fatalf("instrument=%q", dup.Instrument)
		}
	})

	t.Run("get missing returns nil", func(t *testing.T) {
		repo := newRepo(t)
		got, err := repo.Get(ctx, "NOPE", d(2023, 1, 2))
		if err != nil || got != nil {
			t.Fatalf("want nil,nil got %v %v", got, err)
		}
	})

	t.Run("exists resolves the period", func(t *testing.T) {
		repo := newRepo(t, WithClock(contractNow))
		_ = repo.Upsert(ctx, sample("AAPL", d(2022, 6, 1), 100))

		ok, err := repo.Exists(ctx, "AAPL", models.Period1M)
		if err != nil || ok {
			t.Fatalf("1mo: ok=%v err=%v", ok, err)
		}
		ok, err = repo.Exists(ctx, "aapl", models.Period1Y)
		if err != nil || !ok {
			t.Fatalf("1y: ok=%v err=%v", ok, err)
		}
		if _, err := repo.Exists(ctx, "AAPL", models.Period("bad")); err == nil {
			t.Fatalf("expected error for bad period")
		}
	})

	t.Run("latest date", func(t *testing.T) {
		repo := newRepo(t)
		latest, err := repo.LatestDate(ctx, "AAPL")
		if err != nil || latest != nil {
			t.Fatalf("empty: %v %v", latest, err)
		}
		_, _ = repo.UpsertBatch(ctx, []models.PriceSample{sample("AAPL", d(2023, 1, 2), 1), sample("AAPL", d(2023, 1, 9), 2)})
		latest, err = repo.LatestDate(ctx, "AAPL")
		if err != nil || latest == nil || !latest.Equal(d(2023, 1, 9)) {
			t.Fatalf("latest=%v err=%v", latest, err)
		}
	})

	t.Run("update applies patch", func(t *testing.T) {
		repo := newRepo(t)
		_ = repo.Upsert(ctx, sample("AAPL", d(2023, 1, 2), 150))
		c := 151.5
		name := "Apple"
		ok, err := repo.Update(ctx, "AAPL", d(2023, 1, 2), models.SamplePatch{Close: &c, Name: &name})
		if err != nil || !ok {
			t.Fatalf("update: ok=%v err=%v", ok, err)
		}
		got, _ := repo.Get(ctx, "AAPL", d(2023, 1, 2))
		if got.Close != 151.5 || got.Name.String != "Apple" || got.Open.Float64 != 149 {
			t.Fatalf("unexpected %+v", got)
		}
		ok, err = repo.Update(ctx, "AAPL", d(2020, 1, 1), models.SamplePatch{Close: &c})
		if err != nil || ok {
			t.Fatalf("missing row: ok=%v err=%v", ok, err)
		}
		if _, err := repo.Update(ctx, "AAPL", d(2023, 1, 2), models.SamplePatch{}); err == nil {
			t.Fatalf("expected error for empty patch")
		}
	})

	t.Run("delete one and all", func(t *testing.T) {
		repo := newRepo(t)
		_, _ = repo.UpsertBatch(ctx, []models.PriceSample{
			sample("AAPL", d(2023, 1, 2), 1), sample("AAPL", d(2023, 1, 3), 2), sample("MSFT", d(2023, 1, 3), 3),
		})
		one := d(2023, 1, 2)
		ok, err := repo.Delete(ctx, "AAPL", &one)
		if err != nil || !ok {
			t.Fatalf("delete one: ok=%v err=%v", ok, err)
		}
		ok, _ = repo.Delete(ctx, "AAPL", &one)
		if ok {
			t.Fatalf("second delete must report false")
		}
		ok, err = repo.Delete(ctx, "AAPL", nil)
		if err != nil || !ok {
			t.Fatalf("delete all: ok=%v err=%v", ok, err)
		}
		ok, _ = repo.Delete(ctx, "AAPL", nil)
		if ok {
			t.Fatalf("delete all on empty must report false")
		}
		ids, _ := repo.Instruments(ctx)
		if !reflect.DeepEqual(ids, []string{"MSFT"}) {
			t.Fatalf("instruments=%v", ids)
		}
	})

	t.Run("concurrent upserts never duplicate", func(t *testing.T) {
		repo := newRepo(t)
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = repo.Upsert(ctx, sample("AAPL", d(2023, 1, 2), float64(100+i)))
			}(i)
		}
		wg.Wait()
		got, _ := repo.GetRange(ctx, "AAPL", d(2023, 1, 1), d(2023, 1, 31))
		if len(got) != 1 {
			t.Fatalf("want one row, got %d", len(got))
		}
	})

	t.Run("ping", func(t *testing.T) {
		if err := newRepo(t).Ping(ctx); err != nil {
			t.Fatalf("ping: %v", err)
		}
	})
}

func TestMemoryRepository_Contract(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T, opts ...Option) PriceRepository {
		return NewMemoryRepository(opts...)
	})
}
