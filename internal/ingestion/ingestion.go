package ingestion

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dreamjorge/StockStreamDB/internal/domain/models"
	"github.com/dreamjorge/StockStreamDB/internal/logger"
	"github.com/dreamjorge/StockStreamDB/internal/service"
)

const maxParallel = 8

// TickerFetcher is the part of service.PriceService the runner drives.
type TickerFetcher interface {
	FetchAndStore(ctx context.Context, instrument string, period models.Period) (service.FetchResult, error)
	Refresh(ctx context.Context, instrument string, period models.Period) (service.FetchResult, error)
}

// Summary aggregates the outcome of a multi-ticker run.
type Summary struct {
	Tickers int
	Skipped int
	Done    int
	Written int
}

// ProcessTickers fetches and stores every ticker for the given period.
//
// Parameters:
//   - tickers: instruments to process; blanks and duplicates are ignored.
//   - parallel: concurrency limit (0 = min(NumCPU, 8), clamped to 1..8).
//   - force: refetch even when the period is already stored.
//
// Behavior:
//   - Runs tickers concurrently under a semaphore.
//   - If any ticker returns an error, cancels the rest and returns that error.
func ProcessTickers(ctx context.Context, svc TickerFetcher, tickers []string, period models.Period, parallel int, force bool) (Summary, error) {
	tickers = dedupe(tickers)
	if len(tickers) == 0 {
		return Summary{}, fmt.Errorf("no tickers to process")
	}

	limit := maxParallel
	if parallel > 0 {
		if parallel < limit {
			limit = parallel
		}
	} else if c := runtime.NumCPU(); c < limit {
		limit = c
	}

	logger.L().Info().Int("tickers", len(tickers)).Str("period", string(period)).Int("max_parallel", limit).Bool("force", force).Msg("ingestion start")

	var (
		mu      sync.Mutex
		summary = Summary{Tickers: len(tickers)}
	)

	// errgroup will cancel siblings on first error.
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, limit)

	for i, ticker := range tickers {
		idx, id := i, ticker
		select {
		case sem <- struct{}{}:
		case <-gctx.Done():
			return summary, g.Wait()
		}

		g.Go(func() error {
			defer func() { <-sem }()
			start := time.Now()

			run := svc.FetchAndStore
			if force {
				run = svc.Refresh
			}
			res, err := run(gctx, id, period)
			if err != nil {
				logger.L().Error().Str("instrument", id).Dur("elapsed", time.Since(start)).Err(err).Msg("ticker failed")
				return fmt.Errorf("ticker %s: %w", id, err)
			}

			mu.Lock()
			switch res.State {
			case service.StateSkipped:
				summary.Skipped++
			case service.StateDone:
				summary.Done++
				summary.Written += res.Written
			}
			mu.Unlock()

			logger.L().Info().Int("idx", idx+1).Int("total", len(tickers)).Str("instrument", id).
				Str("state", string(res.State)).Int("written", res.Written).Dur("elapsed", time.Since(start)).Msg("ticker done")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

func dedupe(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		id := models.NormalizeInstrument(t)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
