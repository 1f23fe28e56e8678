package request

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/benvon/vizflow/internal/models"
)

type contextKey string

const (
	claimsContextKey    contextKey = "claims"
	requestIDContextKey contextKey = "request_id"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// ClaimsContextKey returns the context key used for token claims. Exposed for tests that inject non-claim values.
func ClaimsContextKey() contextKey { return claimsContextKey }

// ClientIP extracts the client IP from the request, respecting X-Forwarded-For and X-Real-IP.
// The port is stripped from RemoteAddr so rate limit keys are per host.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// WithClaims returns a context with verified token claims attached.
func WithClaims(ctx context.Context, claims *models.JWTClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext returns the claims from the request context, or nil when the request is anonymous.
func ClaimsFromContext(r *http.Request) *models.JWTClaims {
	c, _ := r.Context().Value(claimsContextKey).(*models.JWTClaims)
	return c
}

// WithID returns a context carrying the request id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// ID returns the request id, or "" when none was assigned.
func ID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
