package app

import (
	"github.com/dreamjorge/StockStreamDB/config"
	"github.com/dreamjorge/StockStreamDB/internal/fetcher"
	"github.com/dreamjorge/StockStreamDB/internal/fetcher/yahoo"
	"github.com/dreamjorge/StockStreamDB/internal/logger"
	"github.com/dreamjorge/StockStreamDB/internal/service"
	"github.com/dreamjorge/StockStreamDB/internal/storage"
)

// NewFetcher builds the provider client and wraps it in the retry policy from cfg.Fetcher.
func NewFetcher(cfg config.Config) *fetcher.Fetcher {
	provider := yahoo.New(
		yahoo.WithBaseURL(cfg.Fetcher.BaseURL),
		yahoo.WithTimeout(cfg.Fetcher.Timeout),
	)
	return fetcher.New(provider,
		fetcher.WithMaxAttempts(cfg.Fetcher.MaxAttempts),
		fetcher.WithDelay(cfg.Fetcher.RetryDelay),
		fetcher.WithLogger(logger.Component("fetcher")),
	)
}

// NewPriceService wires repo and the configured fetcher into the orchestrator.
func NewPriceService(cfg config.Config, repo storage.PriceRepository) service.PriceService {
	return service.NewPriceService(repo, NewFetcher(cfg))
}
