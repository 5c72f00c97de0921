package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/anonto42/bsg-marketplace/backend/pkg/logger"
)

// RateLimit allows at most limit requests per client IP within window, using
// a Redis counter keyed by prefix and IP. A nil client or a Redis failure
// lets the request through.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, prefix string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rdb == nil || limit <= 0 {
				return next(c)
			}

			ctx := c.Request().Context()
			key := fmt.Sprintf("ratelimit:%s:%s", prefix, c.RealIP())

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				logger.Warn("rate limit check skipped", "key", key, "error", err)
				return next(c)
			}
			if count == 1 {
				rdb.Expire(ctx, key, window)
			}

			if count > int64(limit) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests, please try again later")
			}
			return next(c)
		}
	}
}
