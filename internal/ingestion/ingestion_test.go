package ingestion

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dreamjorge/StockStreamDB/internal/domain/models"
	"github.com/dreamjorge/StockStreamDB/internal/service"
)

type fakeTickerFetcher struct {
	mu       sync.Mutex
	seen     []string
	forced   int
	results  map[string]service.FetchResult
	failWith map[string]error
}

func (f *fakeTickerFetcher) run(id string, force bool) (service.FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, id)
	if force {
		f.forced++
	}
	if err := f.failWith[id]; err != nil {
		return service.FetchResult{Instrument: id, State: service.StateFailed}, err
	}
	if r, ok := f.results[id]; ok {
		return r, nil
	}
	return service.FetchResult{Instrument: id, State: service.StateDone, Written: 1}, nil
}

func (f *fakeTickerFetcher) FetchAndStore(_ context.Context, id string, _ models.Period) (service.FetchResult, error) {
	return f.run(id, false)
}

func (f *fakeTickerFetcher) Refresh(_ context.Context, id string, _ models.Period) (service.FetchResult, error) {
	return f.run(id, true)
}

func TestProcessTickers_TableDriven(t *testing.T) {
	cases := []struct {
		name        string
		tickers     []string
		parallel    int
		force       bool
		results     map[string]service.FetchResult
		failWith    map[string]error
		wantErr     bool
		wantSeen    int
		wantSummary Summary
	}{
		{
			name:        "dedupes and counts",
			tickers:     []string{"aapl", "AAPL ", "msft", ""},
			parallel:    2,
			results:     map[string]service.FetchResult{"MSFT": {Instrument: "MSFT", State: service.StateSkipped}},
			wantSeen:    2,
			wantSummary: Summary{Tickers: 2, Done: 1, Skipped: 1, Written: 1},
		},
		{
			name:        "force uses refresh",
			tickers:     []string{"AAPL", "MSFT", "GOOG"},
			force:       true,
			wantSeen:    3,
			wantSummary: Summary{Tickers: 3, Done: 3, Written: 3},
		},
		{
			name:     "error propagates",
			tickers:  []string{"AAPL"},
			parallel: 1,
			failWith: map[string]error{"AAPL": errors.New("provider down")},
			wantErr:  true,
			wantSeen: 1,
		},
		{
			name:    "no tickers",
			tickers: []string{" ", ""},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeTickerFetcher{results: tc.results, failWith: tc.failWith}
			sum, err := ProcessTickers(context.Background(), f, tc.tickers, models.Period1M, tc.parallel, tc.force)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected err: %v", err)
				}
				if sum != tc.wantSummary {
					t.Fatalf("summary=%+v want %+v", sum, tc.wantSummary)
				}
			}
			if len(f.seen) != tc.wantSeen {
				t.Fatalf("seen=%v want %d", f.seen, tc.wantSeen)
			}
			if tc.force && f.forced != len(f.seen) {
				t.Fatalf("force must route through Refresh: forced=%d seen=%d", f.forced, len(f.seen))
			}
		})
	}
}
