package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"vibeshop.com/app/internal/config"
)

// NewRateStore picks the Redis store when a client is given, otherwise an
// in-process store that only limits a single instance.
func NewRateStore(cfg config.RateLimitConfig, client redis.UniversalClient) (limiter.Store, error) {
	opts := limiter.StoreOptions{
		Prefix:          cfg.Prefix,
		MaxRetry:        3,
		CleanUpInterval: time.Minute,
	}
	if opts.Prefix == "" {
		opts.Prefix = "vibeshop:ratelimit"
	}
	if client == nil {
		return memory.NewStoreWithOptions(opts), nil
	}
	store, err := sredis.NewStoreWithOptions(client, opts)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis store: %w", err)
	}
	return store, nil
}

// NewRedisClient returns nil when no address is configured.
func NewRedisClient(cfg config.RateLimitConfig) redis.UniversalClient {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// RateLimit limits one route group per client IP. Only POSTs count so a
// visitor can always load the form again.
func RateLimit(store limiter.Store, name string, limit int64, period time.Duration, onLimit gin.HandlerFunc) gin.HandlerFunc {
	l := limiter.New(store, limiter.Rate{Limit: limit, Period: period})
	opts := []mgin.Option{
		mgin.WithKeyGetter(func(c *gin.Context) string { return name + ":" + c.ClientIP() }),
	}
	if onLimit != nil {
		opts = append(opts, mgin.WithLimitReachedHandler(mgin.LimitReachedHandler(onLimit)))
	}
	mw := mgin.NewMiddleware(l, opts...)
	return func(c *gin.Context) {
		if c.Request.Method != "POST" {
			c.Next()
			return
		}
		mw(c)
	}
}
