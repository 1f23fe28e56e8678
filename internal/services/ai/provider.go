package ai

import (
	"context"

	"github.com/benvon/vizflow/internal/models"
)

// Provider is the interface for generative AI backends
type Provider interface {
	// SuggestBreakdown proposes subtasks, a priority and tags for a task
	SuggestBreakdown(ctx context.Context, title, description string) (models.Suggestion, error)

	// SummarizeProgress writes a short Markdown status report for the digest
	SummarizeProgress(ctx context.Context, digest ReportDigest) (string, error)
}

// ReportDigest is the slice of board state a weekly report is written from
type ReportDigest struct {
	CompletedTitles  []string `json:"completed_titles"`
	InProgressTitles []string `json:"in_progress_titles"`
	TotalTasks       int      `json:"total_tasks"`
}

// Empty reports whether there is nothing done or in progress
func (d ReportDigest) Empty() bool {
	return len(d.CompletedTitles) == 0 && len(d.InProgressTitles) == 0
}

// NewReportDigest collects completed and in-progress titles in board order
func NewReportDigest(tasks []models.Task) ReportDigest {
	d := ReportDigest{
		CompletedTitles:  []string{},
		InProgressTitles: []string{},
		TotalTasks:       len(tasks),
	}
	for i := range tasks {
		switch tasks[i].Status {
		case models.TaskStatusDone:
			d.CompletedTitles = append(d.CompletedTitles, tasks[i].Title)
		case models.TaskStatusInProgress:
			d.InProgressTitles = append(d.InProgressTitles, tasks[i].Title)
		}
	}
	return d
}

// ProviderFactory creates an AI provider from string settings
type ProviderFactory func(config map[string]string) (Provider, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (Provider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
