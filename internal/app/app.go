package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/dreamjorge/StockStreamDB/config"
	"github.com/dreamjorge/StockStreamDB/internal/api"
	"github.com/dreamjorge/StockStreamDB/internal/service"
	"github.com/dreamjorge/StockStreamDB/internal/storage"
)

// Container holds the long-lived dependencies shared by the API and the CLI modes.
type Container struct {
	Repo    storage.PriceRepository
	Service service.PriceService
	Cache   *redis.Client

	closeRepo func()
}

// Close releases the cache client and the store connection pool.
func (c *Container) Close() {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.closeRepo != nil {
		c.closeRepo()
	}
}

// Build opens the configured store and assembles the price service. The Redis
// cache is only connected when withCache is set (API mode).
func Build(ctx context.Context, cfg config.Config, withCache bool) (*Container, error) {
	repo, closeRepo, err := OpenRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Repo:      repo,
		Service:   NewPriceService(cfg, repo),
		closeRepo: closeRepo,
	}
	if withCache {
		c.Cache = InitRedis(ctx, cfg.Cache)
	}
	return c, nil
}

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Opens the store selected by STORE_DRIVER (see OpenRepository).
//   - Builds the fetcher, the price service and the optional Redis cache.
//   - Configures the Gin router with all API routes.
//   - Registers health and readiness probes (store, and cache when enabled).
func InitializeApp() (*gin.Engine, func(), error) {
	cfg := config.AppConfig
	ctx := context.Background()

	c, err := Build(ctx, cfg, true)
	if err != nil {
		return nil, nil, err
	}

	router := NewRouter(cfg, c)
	return router, c.Close, nil
}

// NewRouter mounts the API and the health probes for an assembled Container.
func NewRouter(cfg config.Config, c *Container) *gin.Engine {
	handler := api.NewHandler(c.Service)
	router := api.NewRouter(handler, api.RouterOptions{
		Cache:          c.Cache,
		CacheTTL:       cfg.Cache.TTL,
		RateLimit:      cfg.Server.RateLimit,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	checks := map[string]api.Check{"store": c.Repo.Ping}
	if c.Cache != nil {
		checks["cache"] = func(ctx context.Context) error { return c.Cache.Ping(ctx).Err() }
	}
	api.NewHealthHandler(checks).Register(router)

	return router
}
