package middleware

import (
	"net/http"

	logpkg "github.com/benvon/vizflow/internal/logger"
	"github.com/benvon/vizflow/internal/request"
	"go.uber.org/zap"
)

// Audit logs rejected requests (auth failures and rate limiting) at warn level
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			var event string
			switch wrapped.statusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				event = "security_event"
			case http.StatusTooManyRequests:
				event = "rate_limit_violation"
			default:
				return
			}
			logger.Warn(event,
				zap.Int("status_code", wrapped.statusCode),
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), 64)),
				zap.String("request_id", request.ID(r.Context())),
			)
		})
	}
}
