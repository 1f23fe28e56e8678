package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength is the maximum length for URL paths in logs
	MaxPathLength = 500
	// MaxErrorMessageLength is the maximum length for error messages in logs
	MaxErrorMessageLength = 1000
	// MaxGeneralStringLength is the maximum length for general strings in logs
	MaxGeneralStringLength = 2000
)

// SanitizePath makes a URL path safe to log
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeString strips control characters, repairs UTF-8 and truncates to maxLength
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' {
			builder.WriteRune(r)
		}
	}
	s = builder.String()
	if len(s) > maxLength {
		cut := maxLength
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}

// SanitizeError makes an error message safe to log
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}
