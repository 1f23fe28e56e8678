package handlers

import (
	"net/http"

	"github.com/benvon/vizflow/internal/store"
	"github.com/gorilla/mux"
)

// DashboardHandler serves the derived views
type DashboardHandler struct {
	store *store.Store
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(s *store.Store) *DashboardHandler {
	return &DashboardHandler{store: s}
}

// RegisterRoutes registers /dashboard and /board on the API router
func (h *DashboardHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/dashboard", h.Dashboard).Methods("GET")
	r.HandleFunc("/board", h.Board).Methods("GET")
}

// Dashboard returns the statistics over the current tasks
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Stats())
}

// Board returns the tasks grouped into pipeline columns
func (h *DashboardHandler) Board(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Board())
}
