package database

import (
	"context"
	"sync"

	"github.com/benvon/vizflow/internal/models"
)

// MemoryReportArchive keeps reports in process memory. Used when no database is configured.
type MemoryReportArchive struct {
	mu      sync.RWMutex
	reports []models.WeeklyReport
	max     int
}

// NewMemoryReportArchive creates an archive holding at most max reports (oldest evicted first)
func NewMemoryReportArchive(max int) *MemoryReportArchive {
	if max <= 0 {
		max = MaxHistoryLimit
	}
	return &MemoryReportArchive{max: max}
}

// Save appends a report, ignoring ids that are already stored
func (a *MemoryReportArchive) Save(_ context.Context, report *models.WeeklyReport) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.reports {
		if a.reports[i].ID == report.ID {
			return nil
		}
	}
	a.reports = append(a.reports, *report)
	if len(a.reports) > a.max {
		a.reports = a.reports[len(a.reports)-a.max:]
	}
	return nil
}

// List returns the most recent reports, newest first
func (a *MemoryReportArchive) List(_ context.Context, limit int) ([]models.WeeklyReport, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	limit = clampLimit(limit)
	out := make([]models.WeeklyReport, 0, limit)
	for i := len(a.reports) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, a.reports[i])
	}
	return out, nil
}
