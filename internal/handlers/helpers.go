package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/benvon/vizflow/internal/validation"
)

const maxErrorMessageLength = 200

// respondJSON sends a success envelope
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage caps client-facing error text
func sanitizeErrorMessage(message string) string {
	runes := []rune(message)
	if len(runes) > maxErrorMessageLength {
		return string(runes[:maxErrorMessageLength]) + "..."
	}
	return message
}

// respondJSONError sends an error envelope
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the error response itself and reports whether the caller may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
				fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}
	if err := validation.Struct(dst); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+err.Error())
		return false
	}
	return true
}

// queryLimit parses ?limit=, returning def when absent
func queryLimit(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	return n, nil
}
