package database

import (
	"context"
	"fmt"

	"github.com/benvon/vizflow/internal/models"
)

// ReportRepository persists weekly reports in PostgreSQL
type ReportRepository struct {
	db *DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save inserts a report. Saving the same id twice keeps the first copy.
func (r *ReportRepository) Save(ctx context.Context, report *models.WeeklyReport) error {
	query := `
		INSERT INTO weekly_reports (id, content, fallback, total_tasks, completed_tasks, in_progress_tasks, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		report.ID,
		report.Content,
		report.Fallback,
		report.TotalTasks,
		report.CompletedTasks,
		report.InProgressTasks,
		report.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	return nil
}

// List returns the most recent reports, newest first
func (r *ReportRepository) List(ctx context.Context, limit int) ([]models.WeeklyReport, error) {
	query := `
		SELECT id, content, fallback, total_tasks, completed_tasks, in_progress_tasks, generated_at
		FROM weekly_reports
		ORDER BY generated_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	reports := make([]models.WeeklyReport, 0)
	for rows.Next() {
		var rep models.WeeklyReport
		if err := rows.Scan(
			&rep.ID,
			&rep.Content,
			&rep.Fallback,
			&rep.TotalTasks,
			&rep.CompletedTasks,
			&rep.InProgressTasks,
			&rep.GeneratedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return reports, nil
}
