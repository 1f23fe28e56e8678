package middleware

import (
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds handlers when no timeout is configured
const DefaultRequestTimeout = 45 * time.Second

const timeoutBody = `{"success":false,"error":"Service Unavailable","message":"Request timed out"}`

// Timeout bounds handler execution. Handlers see the deadline on their context.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, timeoutBody)
	}
}
