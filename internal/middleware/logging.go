package middleware

import (
	"net/http"
	"time"

	logpkg "github.com/benvon/vizflow/internal/logger"
	"github.com/benvon/vizflow/internal/request"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxRequestIDLength = 128

// RequestID assigns every request an id, reusing a sane inbound X-Request-ID
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := logpkg.SanitizeString(r.Header.Get(request.RequestIDHeader), maxRequestIDLength)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		w.Header().Set(request.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(request.WithID(r.Context(), id)))
	})
}

// Logging logs one line per request
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.Int("status_code", wrapped.statusCode),
				zap.Int("bytes", wrapped.bytes),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("request_id", request.ID(r.Context())),
			}
			if claims := request.ClaimsFromContext(r); claims != nil {
				fields = append(fields, zap.String("subject", logpkg.SanitizeString(claims.Sub, 128)))
			}
			if wrapped.statusCode >= http.StatusInternalServerError {
				logger.Warn("http_request", fields...)
				return
			}
			logger.Info("http_request", fields...)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	bytes       int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Flush lets streaming handlers work through the wrapper
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
