package database

import (
	"context"

	"github.com/benvon/vizflow/internal/models"
)

// DefaultHistoryLimit is used when callers ask for a non-positive number of reports
const DefaultHistoryLimit = 20

// MaxHistoryLimit caps a single history read
const MaxHistoryLimit = 100

// ReportArchive stores generated weekly reports, newest first on read
type ReportArchive interface {
	Save(ctx context.Context, report *models.WeeklyReport) error
	List(ctx context.Context, limit int) ([]models.WeeklyReport, error)
}

// Ensure concrete types implement the interfaces
var (
	_ ReportArchive = (*ReportRepository)(nil)
	_ ReportArchive = (*MemoryReportArchive)(nil)
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
