package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
	"time"

	logpkg "github.com/benvon/vizflow/internal/logger"
	"github.com/benvon/vizflow/internal/request"
	"go.uber.org/zap"
)

// ErrorResponse is the error envelope shared with the handlers
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler recovers panics and answers with a 500 envelope
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					// details stay server-side
					logger.Error("panic_recovered",
						zap.Any("error", err),
						zap.String("path", logpkg.SanitizePath(r.URL.Path)),
						zap.String("method", r.Method),
						zap.String("request_id", request.ID(r.Context())),
						zap.ByteString("stack", debug.Stack()),
					)
					writeError(w, r, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred", logger)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// writeError sends an error JSON envelope
func writeError(w http.ResponseWriter, r *http.Request, status int, errorType, message string, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := ErrorResponse{
		Success:   false,
		Error:     errorType,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      logpkg.SanitizePath(r.URL.Path),
		RequestID: request.ID(r.Context()),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil && logger != nil {
		logger.Error("failed_to_encode_error_response",
			zap.Error(err),
			zap.Int("status_code", status),
			zap.String("path", logpkg.SanitizePath(r.URL.Path)),
		)
	}
}
