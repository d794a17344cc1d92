package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/dreamjorge/StockStreamDB/internal/domain/models"
	"github.com/dreamjorge/StockStreamDB/internal/logger"
)

const (
	cacheKeyPrefix = "cache:GET"
	// CacheHeader reports HIT or MISS on cached routes.
	CacheHeader = "X-Cache"
)

// ResponseCache caches successful GET responses in Redis for ttl and drops an
// instrument's cached reads after any successful write to it.
//
// Behavior:
//   - nil client: pass-through.
//   - GET: serve from cache on hit; on miss, record the body and store 2xx responses.
//   - other methods: after a 2xx response, delete the instrument's cached entries.
//   - Redis failures never fail the request; they are logged and the handler runs.
func ResponseCache(client *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			c.Next()
			return
		}

		instrument := models.NormalizeInstrument(c.Param("instrument"))
		ctx := c.Request.Context()

		if c.Request.Method != http.MethodGet {
			c.Next()
			if s := c.Writer.Status(); s >= 200 && s < 300 {
				InvalidateInstrument(ctx, client, instrument)
			}
			return
		}

		key := cacheKey(instrument, c.Request.URL.Path, c.Request.URL.RawQuery)
		if cached, err := client.Get(ctx, key).Bytes(); err == nil {
			c.Header(CacheHeader, "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			c.Abort()
			return
		} else if err != redis.Nil {
			logger.L().Warn().Err(err).Str("key", key).Msg("cache read failed")
		}

		recorder := &responseRecorder{
			ResponseWriter: c.Writer,
			status:         http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = recorder
		c.Header(CacheHeader, "MISS")

		c.Next()

		if recorder.status >= 200 && recorder.status < 300 && recorder.body.Len() > 0 {
			if err := client.Set(ctx, key, recorder.body.Bytes(), ttl).Err(); err != nil {
				logger.L().Warn().Err(err).Str("key", key).Msg("cache write failed")
			}
		}
	}
}

// InvalidateInstrument deletes cached reads for one instrument and for the instrument list.
func InvalidateInstrument(ctx context.Context, client *redis.Client, instrument string) {
	if client == nil {
		return
	}
	patterns := []string{fmt.Sprintf("%s:%s:*", cacheKeyPrefix, instrument)}
	if instrument != "" {
		patterns = append(patterns, fmt.Sprintf("%s::*", cacheKeyPrefix))
	}
	for _, pattern := range patterns {
		iter := client.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			if err := client.Del(ctx, iter.Val()).Err(); err != nil {
				logger.L().Warn().Err(err).Str("key", iter.Val()).Msg("cache invalidation failed")
			}
		}
		if err := iter.Err(); err != nil {
			logger.L().Warn().Err(err).Str("pattern", pattern).Msg("cache scan failed")
		}
	}
}

// cacheKey uses the concrete request path so every path parameter is part of the key.
// The normalized instrument leads so that invalidation can match by prefix.
func cacheKey(instrument, path, rawQuery string) string {
	return fmt.Sprintf("%s:%s:%s?%s", cacheKeyPrefix, instrument, path, rawQuery)
}

type responseRecorder struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if len(data) > 0 {
		r.body.Write(data)
	}
	return r.ResponseWriter.Write(data)
}
