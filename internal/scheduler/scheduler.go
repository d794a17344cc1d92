// Package scheduler refreshes a watchlist of instruments on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dreamjorge/StockStreamDB/internal/domain/models"
	"github.com/dreamjorge/StockStreamDB/internal/ingestion"
	"github.com/dreamjorge/StockStreamDB/internal/logger"
)

// Service is what a scheduled run needs from the orchestrator.
type Service interface {
	ingestion.TickerFetcher
	LatestDate(ctx context.Context, instrument string) (*time.Time, error)
}

// Config describes the watchlist job.
type Config struct {
	Spec     string // five-field cron expression, e.g. "30 22 * * 1-5"
	Tickers  []string
	Period   models.Period
	Parallel int
}

// Scheduler owns the cron runner and the watchlist job.
type Scheduler struct {
	cron *cron.Cron
	svc  Service
	cfg  Config
	ctx  context.Context

	mu      sync.Mutex
	lastRun ingestion.Summary
	lastErr error
}

// New builds a Scheduler. Overlapping runs are skipped, never queued.
func New(ctx context.Context, svc Service, cfg Config) *Scheduler {
	l := cronLogger{}
	return &Scheduler{
		cron: cron.New(cron.WithLogger(l), cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l))),
		svc:  svc,
		cfg:  cfg,
		ctx:  ctx,
	}
}

// Register adds the watchlist job under cfg.Spec.
func (s *Scheduler) Register() error {
	if len(s.cfg.Tickers) == 0 {
		return fmt.Errorf("watchlist is empty")
	}
	if _, err := s.cron.AddFunc(s.cfg.Spec, s.RunNow); err != nil {
		return fmt.Errorf("register watchlist job %q: %w", s.cfg.Spec, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.L().Info().Str("spec", s.cfg.Spec).Strs("tickers", s.cfg.Tickers).Msg("scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	logger.L().Info().Msg("scheduler stopped")
}

// RunNow executes the watchlist job immediately.
//
// Runs always refresh: the look-back window usually overlaps stored data, and an
// existence check would skip the newest bar.
func (s *Scheduler) RunNow() {
	start := time.Now()
	sum, err := ingestion.ProcessTickers(s.ctx, s.svc, s.cfg.Tickers, s.cfg.Period, s.cfg.Parallel, true)

	s.mu.Lock()
	s.lastRun, s.lastErr = sum, err
	s.mu.Unlock()

	if err != nil {
		logger.L().Error().Err(err).Dur("elapsed", time.Since(start)).Msg("watchlist refresh failed")
		return
	}

	for _, id := range s.cfg.Tickers {
		latest, err := s.svc.LatestDate(s.ctx, id)
		if err != nil {
			logger.L().Warn().Str("instrument", id).Err(err).Msg("latest date lookup failed")
			continue
		}
		ev := logger.L().Debug().Str("instrument", models.NormalizeInstrument(id))
		if latest != nil {
			ev = ev.Str("latest", latest.Format(models.DateLayout))
		}
		ev.Msg("watchlist instrument up to date")
	}

	logger.L().Info().Int("tickers", sum.Tickers).Int("done", sum.Done).Int("skipped", sum.Skipped).
		Int("written", sum.Written).Dur("elapsed", time.Since(start)).Msg("watchlist refresh done")
}

// LastRun returns the summary and error of the most recent run.
func (s *Scheduler) LastRun() (ingestion.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

// cronLogger routes robfig/cron's logging through zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.L().Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.L().Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
