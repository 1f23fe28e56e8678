package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/vizflow/internal/database"
	"github.com/benvon/vizflow/internal/models"
	"github.com/benvon/vizflow/internal/request"
	"github.com/benvon/vizflow/internal/services/ai"
	"github.com/benvon/vizflow/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AIHandler serves the advisor endpoints
type AIHandler struct {
	advisor  *ai.Advisor
	reports  *ai.ReportService
	inflight *ai.InFlight
	logger   *zap.Logger
}

// NewAIHandler creates a new AI handler
func NewAIHandler(advisor *ai.Advisor, reports *ai.ReportService, logger *zap.Logger) *AIHandler {
	return &AIHandler{
		advisor:  advisor,
		reports:  reports,
		inflight: ai.NewInFlight(),
		logger:   logger,
	}
}

// RegisterRoutes registers AI routes. The router should already carry the /ai prefix.
func (h *AIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/suggest", h.Suggest).Methods("POST")
	r.HandleFunc("/reports", h.GenerateReport).Methods("POST")
	r.HandleFunc("/reports", h.ReportHistory).Methods("GET")
	r.HandleFunc("/reports/latest", h.LatestReport).Methods("GET")
}

// SuggestRequest is the draft the user wants help with
type SuggestRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Tags        []string `json:"tags,omitempty" validate:"max=50,dive,max=50"`
}

// SuggestResponse carries the suggestion and a draft task pre-filled from it
type SuggestResponse struct {
	Suggestion models.Suggestion `json:"suggestion"`
	Fallback   bool              `json:"fallback"`
	Draft      models.Task       `json:"draft"`
}

// GenerateReportResponse acknowledges an accepted report request
type GenerateReportResponse struct {
	ReportID string `json:"report_id"`
	Status   string `json:"status"`
}

// Suggest asks the advisor to break a task down. The same title cannot be in flight twice.
func (h *AIHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	title := validation.SanitizeText(req.Title)
	if title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required for AI assist")
		return
	}
	description := validation.SanitizeText(req.Description)

	key := "suggest:" + ai.NormalizeTitle(title)
	if !h.inflight.TryAcquire(key) {
		message := "A suggestion for this title is already being generated"
		if started, ok := h.inflight.Since(key); ok {
			message = fmt.Sprintf("%s (started %s ago)", message, time.Since(started).Round(time.Second))
		}
		respondJSONError(w, http.StatusConflict, "Conflict", message)
		return
	}
	defer h.inflight.Release(key)

	ctx := ai.WithRequestID(r.Context(), request.ID(r.Context()))
	result := h.advisor.Suggest(ctx, title, description)

	draft := models.NewDraft(title, description)
	draft.Tags = models.MergeTags(req.Tags)
	draft.ApplySuggestion(result.Suggestion)

	respondJSON(w, http.StatusOK, SuggestResponse{
		Suggestion: result.Suggestion,
		Fallback:   result.Fallback,
		Draft:      draft,
	})
}

// GenerateReport starts an asynchronous weekly report
func (h *AIHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	ctx := ai.WithRequestID(r.Context(), request.ID(r.Context()))
	id, err := h.reports.Generate(ctx)
	if errors.Is(err, ai.ErrReportInFlight) {
		respondJSONError(w, http.StatusConflict, "Conflict", "A report is already being generated")
		return
	}
	if err != nil {
		h.logger.Error("report_generate_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to start report generation")
		return
	}
	respondJSON(w, http.StatusAccepted, GenerateReportResponse{ReportID: id, Status: "generating"})
}

// LatestReport returns whether a report is in flight and the most recent result
func (h *AIHandler) LatestReport(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.reports.Status())
}

// ReportHistory lists archived reports, newest first
func (h *AIHandler) ReportHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, database.DefaultHistoryLimit)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	reports, err := h.reports.History(r.Context(), limit)
	if err != nil {
		h.logger.Error("report_history_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load report history")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"reports": reports, "count": len(reports)})
}
