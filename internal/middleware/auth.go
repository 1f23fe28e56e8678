package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/benvon/vizflow/internal/models"
	"github.com/benvon/vizflow/internal/request"
	"go.uber.org/zap"
)

// TokenVerifier checks a bearer token and returns its claims
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.JWTClaims, error)
}

// Auth requires a valid bearer token and stores its claims in the request context.
// Preflight requests pass through so CORS can answer them.
func Auth(verifier TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, r, http.StatusUnauthorized, "Unauthorized", "Missing Authorization header", logger)
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				writeError(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid Authorization header format", logger)
				return
			}

			claims, err := verifier.Verify(r.Context(), strings.TrimSpace(token))
			if err != nil {
				logger.Debug("token_verification_failed",
					zap.Error(err),
					zap.String("request_id", request.ID(r.Context())),
				)
				writeError(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token", logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithClaims(r.Context(), claims)))
		})
	}
}
