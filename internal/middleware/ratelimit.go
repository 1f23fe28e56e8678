package middleware

import (
	"fmt"
	"net/http"

	logpkg "github.com/benvon/vizflow/internal/logger"
	"github.com/benvon/vizflow/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const rateLimitPrefix = "vizflow_ratelimit"

// NewRateLimitStore returns a Redis-backed limiter store, or an in-process one when client is nil
func NewRateLimitStore(client *redis.Client) (limiter.Store, error) {
	if client == nil {
		return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix}), nil
	}
	store, err := redisstore.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: rateLimitPrefix})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
	}
	return store, nil
}

// RateLimit limits requests per client IP with ulule/limiter. rate uses the "<n>-<S|M|H|D>" format.
func RateLimit(store limiter.Store, rate string, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", rate, err)
	}
	instance := limiter.New(store, parsed)

	mw := stdlibmw.NewMiddleware(instance,
		stdlibmw.WithKeyGetter(request.ClientIP),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, r, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded, slow down", logger)
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("rate_limit_store_error",
				zap.String("error", logpkg.SanitizeError(err)),
				zap.String("request_id", request.ID(r.Context())),
			)
			writeError(w, r, http.StatusServiceUnavailable, "Service Unavailable", "Rate limiter unavailable", logger)
		}),
	)
	return mw.Handler, nil
}
