package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
)

const healthCheckTimeout = 5 * time.Second

// Pinger is a dependency that can report its own health
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// HealthCheck calls f
func (f PingFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

// HealthChecker handles health and version requests
type HealthChecker struct {
	checks  map[string]Pinger
	version string
	store   interface{ Len() int }
}

// NewHealthChecker creates a health checker. Only configured dependencies should be registered.
func NewHealthChecker(version string, store interface{ Len() int }) *HealthChecker {
	return &HealthChecker{checks: make(map[string]Pinger), version: version, store: store}
}

// Register adds a named dependency to the extended check
func (h *HealthChecker) Register(name string, p Pinger) {
	h.checks[name] = p
}

// RegisterRoutes registers /healthz and /version on the root router
func (h *HealthChecker) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/version", h.Version).Methods("GET")
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Tasks     *int              `json:"tasks,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles /healthz. ?mode=extended pings every registered dependency.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	statusCode := http.StatusOK

	if r.URL.Query().Get("mode") == "extended" {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		response.Checks = make(map[string]string, len(names))
		for _, name := range names {
			if err := h.checks[name].HealthCheck(ctx); err != nil {
				response.Status = "unhealthy"
				response.Checks[name] = "unhealthy: " + sanitizeErrorMessage(err.Error())
				continue
			}
			response.Checks[name] = "healthy"
		}
		if h.store != nil {
			n := h.store.Len()
			response.Tasks = &n
		}
		if response.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// Version reports the build version
func (h *HealthChecker) Version(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"version": h.version})
}
