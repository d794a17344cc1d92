package fetcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/guregu/null/v6"

	"github.com/dreamjorge/StockStreamDB/internal/domain/models"
)

// scriptedProvider returns the queued results in order, repeating the last one.
type scriptedProvider struct {
	mu      sync.Mutex
	results []result
	calls   int
	ranges  []models.DateRange
}

type result struct {
	series *RawSeries
	err    error
}

func (p *scriptedProvider) History(_ context.Context, instrument string, r models.DateRange) (*RawSeries, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ranges = append(p.ranges, r)
	idx := p.calls
	if idx >= len(p.results) {
		idx = len(p.results) - 1
	}
	p.calls++
	return p.results[idx].series, p.results[idx].err
}

var fixedNow = func() time.Time { return time.Date(2023, 2, 1, 12, 0, 0, 0, time.UTC) }

func newTestFetcher(p Provider, attempts int) *Fetcher {
	return New(p, WithMaxAttempts(attempts), WithDelay(time.Millisecond), WithClock(fixedNow))
}

func okSeries() *RawSeries {
	return &RawSeries{Instrument: "AAPL", Rows: []RawRow{
		{Date: time.Date(2023, 1, 2, 14, 30, 0, 0, time.UTC), Open: null.FloatFrom(150), Close: null.FloatFrom(152), Volume: null.IntFrom(100)},
		{Date: time.Date(2023, 1, 1, 14, 30, 0, 0, time.UTC), Open: null.FloatFrom(149), Close: null.FloatFrom(150)},
	}}
}

func TestFetch_RetryThenSuccess(t *testing.T) {
	p := &scriptedProvider{results: []result{
		{err: Transient(0, errors.New("connection reset"))},
		{series: okSeries()},
	}}
	out, err := newTestFetcher(p, 3).Fetch(context.Background(), "aapl", models.Period1M)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if p.calls != 2 {
		t.Fatalf("provider calls=%d want 2", p.calls)
	}
	if len(out) != 2 {
		t.Fatalf("samples=%d want 2", len(out))
	}
	if !out[0].Date.Before(out[1].Date) {
		t.Fatalf("samples not ascending: %v %v", out[0].Date, out[1].Date)
	}
	if out[0].Instrument != "AAPL" {
		t.Fatalf("instrument not normalized: %q", out[0].Instrument)
	}
	if out[0].Volume.Valid {
		t.Fatalf("missing volume must stay absent, got %v", out[0].Volume)
	}
	if !out[1].Volume.Valid || out[1].Volume.Int64 != 100 {
		t.Fatalf("volume lost: %+v", out[1].Volume)
	}
}

func TestFetch_RetryExhaustion(t *testing.T) {
	p := &scriptedProvider{results: []result{{err: Transient(503, errors.New("unavailable"))}}}
	out, err := newTestFetcher(p, 2).Fetch(context.Background(), "AAPL", models.Period1M)
	if out != nil {
		t.Fatalf("expected no samples, got %d", len(out))
	}
	var ex *FetchExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("want FetchExhaustedError, got %v", err)
	}
	if ex.Attempts != 2 || p.calls != 2 {
		t.Fatalf("attempts=%d calls=%d, want 2/2", ex.Attempts, p.calls)
	}
	if !IsTransient(ex) {
		t.Fatalf("exhausted error should wrap the last transient error")
	}
}

func TestFetch_PermanentIsNoData(t *testing.T) {
	cases := []struct {
		name string
		res  result
	}{
		{name: "malformed", res: result{err: Permanent("decode response", errors.New("unexpected EOF"))}},
		{name: "no history", res: result{err: Permanent("no history", nil)}},
		{name: "empty series", res: result{series: &RawSeries{Instrument: "DEAD"}}},
		{name: "rows without close", res: result{series: &RawSeries{Rows: []RawRow{{Date: fixedNow(), Open: null.FloatFrom(1)}}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &scriptedProvider{results: []result{tc.res}}
			out, err := newTestFetcher(p, 3).Fetch(context.Background(), "DEAD", models.Period1Y)
			if err != nil || out != nil {
				t.Fatalf("want nil,nil got out=%v err=%v", out, err)
			}
			if p.calls != 1 {
				t.Fatalf("permanent failures must not be retried, calls=%d", p.calls)
			}
		})
	}
}

func TestFetch_ResolvesPeriodBeforeCalling(t *testing.T) {
	p := &scriptedProvider{results: []result{{series: okSeries()}}}
	if _, err := newTestFetcher(p, 1).Fetch(context.Background(), "AAPL", models.Period1M); err != nil {
		t.Fatalf("err: %v", err)
	}
	r := p.ranges[0]
	if r.Start.Format(models.DateLayout) != "2023-01-01" || r.End.Format(models.DateLayout) != "2023-02-01" {
		t.Fatalf("unexpected range %s", r)
	}
}

func TestFetch_InvalidPeriod(t *testing.T) {
	p := &scriptedProvider{results: []result{{series: okSeries()}}}
	if _, err := newTestFetcher(p, 1).Fetch(context.Background(), "AAPL", models.Period("2w")); err == nil {
		t.Fatalf("expected error")
	}
	if p.calls != 0 {
		t.Fatalf("provider must not be called for an invalid period")
	}
}

func TestFetch_ContextCanceled(t *testing.T) {
	p := &scriptedProvider{results: []result{{err: Transient(0, errors.New("timeout"))}}}
	f := New(p, WithMaxAttempts(5), WithDelay(time.Hour), WithClock(fixedNow))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.Fetch(ctx, "AAPL", models.Period1M)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
	var ex *FetchExhaustedError
	if errors.As(err, &ex) {
		t.Fatalf("cancellation must not be reported as exhaustion")
	}
}

func TestFetch_UnclassifiedErrorPropagates(t *testing.T) {
	p := &scriptedProvider{results: []result{{err: errors.New("weird")}}}
	_, err := newTestFetcher(p, 3).Fetch(context.Background(), "AAPL", models.Period1M)
	if err == nil || p.calls != 1 {
		t.Fatalf("err=%v calls=%d", err, p.calls)
	}
}

func TestNormalize_DedupesByDate(t *testing.T) {
	d := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	out := Normalize("AAPL", &RawSeries{Rows: []RawRow{
		{Date: d, Close: null.FloatFrom(1)},
		{Date: d.Add(2 * time.Hour), Close: null.FloatFrom(2)},
	}})
	if len(out) != 1 || out[0].Close != 2 {
		t.Fatalf("want single sample with last close, got %+v", out)
	}
}

func TestDefaults(t *testing.T) {
	f := New(&scriptedProvider{}, WithMaxAttempts(0), WithDelay(0))
	if f.MaxAttempts() != DefaultMaxAttempts || f.delay != DefaultDelay {
		t.Fatalf("defaults not applied: %d %v", f.MaxAttempts(), f.delay)
	}
}
