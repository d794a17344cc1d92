package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/dreamjorge/StockStreamDB/internal/middleware"
)

const defaultRequestTimeout = 10 * time.Second

// RouterOptions tunes the middleware stack. The zero value is usable: no cache,
// default rate limit and a 10s request timeout.
type RouterOptions struct {
	Cache          *redis.Client
	CacheTTL       time.Duration
	RateLimit      int
	RequestTimeout time.Duration
}

// NewRouter creates a Gin engine with the middleware stack and the v1 routes.
//
// Responsibilities:
//   - Registers global middlewares (RequestID, Logger, Recovery, ErrorHandler, RateLimiter).
//   - Bounds every request with a timeout.
//   - Mounts Swagger docs (/swagger/*any).
//   - Configures API v1 routes; reads are cached and writes invalidate the instrument's cache.
//
// Health and readiness endpoints are registered by the caller (see HealthHandler).
func NewRouter(handler *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
		middleware.RateLimiter(opts.RateLimit, time.Minute),
	)

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	cache := middleware.ResponseCache(opts.Cache, opts.CacheTTL)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/instruments", cache, handler.ListInstruments)

		inst := v1.Group("/instruments/:instrument", cache)
		inst.POST("/fetch", handler.FetchInstrument)
		inst.GET("/exists", handler.CheckExists)
		inst.GET("/aggregate", handler.GetAggregate)
		inst.GET("/prices", handler.GetPrices)
		inst.POST("/prices", handler.CreateSample)
		inst.GET("/prices/:date", handler.GetSample)
		inst.PATCH("/prices/:date", handler.UpdateSample)
		inst.DELETE("/prices/:date", handler.DeleteSample)
		inst.DELETE("", handler.DeleteInstrument)
	}

	return router
}
