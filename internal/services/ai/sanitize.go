package ai

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

type contextKey string

const requestIDContextKey contextKey = "request_id"

// WithRequestID returns a context carrying the request id for advisor logs
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// ExtractRequestID extracts a request ID from context if available
func ExtractRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDContextKey).(string); ok {
		return id
	}
	return ""
}

const (
	// MaxPreviewLength is the maximum length for preview strings in logs
	MaxPreviewLength = 200
	// MaxDebugContentLength bounds full-content debug logs
	MaxDebugContentLength = 10000
	// RedactedValue is the value used to replace sensitive data
	RedactedValue = "[REDACTED]"
)

// SanitizeAPIKey sanitizes an API key for logging
func SanitizeAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return RedactedValue
	}
	return apiKey[:4] + RedactedValue + apiKey[len(apiKey)-4:]
}

// SanitizePrompt creates a safe preview of a prompt for logging
func SanitizePrompt(prompt string, fullLog bool) string {
	return sanitizeStringForLogging(prompt, previewLimit(fullLog))
}

// SanitizeResponse creates a safe preview of a response for logging
func SanitizeResponse(response string, fullLog bool) string {
	return sanitizeStringForLogging(response, previewLimit(fullLog))
}

func previewLimit(fullLog bool) int {
	if fullLog {
		return MaxDebugContentLength
	}
	return MaxPreviewLength
}

// sanitizeStringForLogging removes control characters, validates UTF-8, and truncates
func sanitizeStringForLogging(s string, maxLen int) string {
	if s == "" {
		return ""
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			builder.WriteRune(r)
		}
	}
	s = builder.String()

	if len(s) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}

// NormalizeTitle folds a task title into the key used for duplicate suggest detection
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}
