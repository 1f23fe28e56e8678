package ai

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benvon/vizflow/internal/database"
	"github.com/benvon/vizflow/internal/models"
	"go.uber.org/zap"
)

const reportKey = "weekly_report"

// ErrReportInFlight is returned when a report is already being generated
var ErrReportInFlight = errors.New("report generation already in progress")

// TaskSource supplies the task snapshot a report is written from
type TaskSource func() []models.Task

// ReportStatus is the state of the report call site
type ReportStatus struct {
	InFlight  bool                 `json:"in_flight"`
	StartedAt *time.Time           `json:"started_at,omitempty"`
	PendingID string               `json:"pending_id,omitempty"`
	Latest    *models.WeeklyReport `json:"latest,omitempty"`
}

// ReportService runs weekly report generation in the background, one at a time
type ReportService struct {
	advisor  *Advisor
	tasks    TaskSource
	archive  database.ReportArchive
	inflight *InFlight
	logger   *zap.Logger

	wg      sync.WaitGroup
	mu      sync.RWMutex
	latest  *models.WeeklyReport
	pending string
}

// NewReportService creates a report service. archive may be nil.
func NewReportService(advisor *Advisor, tasks TaskSource, archive database.ReportArchive, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		advisor:  advisor,
		tasks:    tasks,
		archive:  archive,
		inflight: NewInFlight(),
		logger:   logger,
	}
}

// Generate snapshots the tasks and starts writing a report. It returns the id the
// finished report will carry, or ErrReportInFlight.
func (s *ReportService) Generate(ctx context.Context) (string, error) {
	id := models.NewID()

	s.mu.Lock()
	if !s.inflight.TryAcquire(reportKey) {
		s.mu.Unlock()
		return "", ErrReportInFlight
	}
	s.pending = id
	s.mu.Unlock()

	snapshot := s.tasks()
	requestID := ExtractRequestID(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(id, requestID, snapshot)
	}()

	s.logger.Info("report_generation_started", zap.String("report_id", id), zap.Int("task_count", len(snapshot)))
	return id, nil
}

// run is detached from the request context so a client going away does not cancel it
func (s *ReportService) run(id, requestID string, snapshot []models.Task) {
	ctx := WithRequestID(context.Background(), requestID)
	summary := s.advisor.Summarize(ctx, snapshot)

	report := &models.WeeklyReport{
		ID:              id,
		Content:         summary.Text,
		Fallback:        summary.Fallback(),
		TotalTasks:      summary.Digest.TotalTasks,
		CompletedTasks:  len(summary.Digest.CompletedTitles),
		InProgressTasks: len(summary.Digest.InProgressTitles),
		GeneratedAt:     time.Now().UTC(),
	}

	// publishing the report and freeing the call site is one step for Status readers
	s.mu.Lock()
	s.latest = report
	s.pending = ""
	s.inflight.Release(reportKey)
	s.mu.Unlock()

	if s.archive != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.archive.Save(saveCtx, report); err != nil {
			s.logger.Error("report_archive_failed", zap.String("report_id", id), zap.Error(err))
		}
	}

	s.logger.Info("report_generation_completed",
		zap.String("report_id", id),
		zap.String("outcome", string(summary.Outcome)),
	)
}

// Status returns whether a report is in flight and the most recent finished report
func (s *ReportService) Status() ReportStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := ReportStatus{}
	if at, busy := s.inflight.Since(reportKey); busy {
		st.InFlight = true
		st.StartedAt = &at
		st.PendingID = s.pending
	}
	if s.latest != nil {
		latest := *s.latest
		st.Latest = &latest
	}
	return st
}

// History returns archived reports, newest first
func (s *ReportService) History(ctx context.Context, limit int) ([]models.WeeklyReport, error) {
	if s.archive == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.latest == nil {
			return []models.WeeklyReport{}, nil
		}
		return []models.WeeklyReport{*s.latest}, nil
	}
	return s.archive.List(ctx, limit)
}

// Wait blocks until in-flight generation finishes or ctx is done
func (s *ReportService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
