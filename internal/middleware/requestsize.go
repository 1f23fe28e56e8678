package middleware

import (
	"net/http"
)

// DefaultMaxRequestSize caps request bodies at 1MB
const DefaultMaxRequestSize int64 = 1 << 20

// MaxRequestSize rejects oversized declared bodies and caps streamed ones
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeError(w, r, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Request body too large", nil)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
