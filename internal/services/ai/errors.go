package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
)

var (
	// ErrRateLimited indicates the API rate limit was exceeded
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded indicates the API quota was exceeded
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrMalformedResponse indicates the model answered with something that could not be parsed
	ErrMalformedResponse = errors.New("malformed model response")
	// ErrEmptyResponse indicates the model answered with no content
	ErrEmptyResponse = errors.New("empty model response")
	// ErrNoProvider indicates the advisor has no backend configured
	ErrNoProvider = errors.New("no AI provider configured")
)

// APIError represents an error from the AI provider API
type APIError struct {
	Message     string
	Type        string
	Code        string
	StatusCode  int
	IsPermanent bool // quota exhaustion, not a transient limit
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

// IsRateLimitError checks if an error is a transient rate limit error
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests && !IsQuotaError(apiErr)
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

// IsQuotaError checks if an error is a quota exhaustion error
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}

	errStr := err.Error()
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.IsPermanent || apiErr.Code == "insufficient_quota" {
			return true
		}
		errStr = apiErr.Message
	}

	errStr = strings.ToLower(errStr)
	return strings.Contains(errStr, "insufficient_quota") ||
		strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "billing")
}

// ExtractAPIError extracts API error details from an SDK error. Returns nil for
// errors that did not come back from the API.
func ExtractAPIError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var sdkErr *openai.Error
	if errors.As(err, &sdkErr) {
		apiErr = &APIError{
			StatusCode: sdkErr.StatusCode,
			Message:    sdkErr.Message,
			Type:       sdkErr.Type,
			Code:       sdkErr.Code,
		}
		if apiErr.Message == "" {
			apiErr.Message = err.Error()
		}
		if apiErr.Code == "insufficient_quota" || apiErr.Code == "RESOURCE_EXHAUSTED" {
			apiErr.IsPermanent = true
		}
		return apiErr
	}

	// Some gateways only surface the status in the message text
	errStr := err.Error()
	if !strings.Contains(errStr, "429") {
		return nil
	}
	apiErr = &APIError{
		StatusCode: http.StatusTooManyRequests,
		Message:    errStr,
		Type:       "rate_limit_error",
	}
	if jsonStart := strings.Index(errStr, "{"); jsonStart != -1 {
		jsonStr := errStr[jsonStart:]
		if jsonEnd := strings.LastIndex(jsonStr, "}"); jsonEnd != -1 {
			var errorData struct {
				Message string `json:"message"`
				Type    string `json:"type"`
				Code    string `json:"code"`
			}
			if json.Unmarshal([]byte(jsonStr[:jsonEnd+1]), &errorData) == nil {
				apiErr.Message = errorData.Message
				apiErr.Type = errorData.Type
				apiErr.Code = errorData.Code
				apiErr.IsPermanent = errorData.Code == "insufficient_quota"
			}
		}
	}
	return apiErr
}

// Classify names the failure kind of an advisor error for logs and metrics
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoProvider):
		return "no_provider"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case IsQuotaError(err):
		return "quota_exceeded"
	case IsRateLimitError(err):
		return "rate_limited"
	}
	if ExtractAPIError(err) != nil {
		return "api_error"
	}
	return "transport_error"
}
