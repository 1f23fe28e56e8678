package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/vizflow/internal/models"
	"github.com/benvon/vizflow/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Fixed report texts returned instead of model output
const (
	ReportNothingToReport = "No tasks to report on yet."
	ReportEmpty           = "Could not generate report."
	ReportFailed          = "Error generating report. Please try again."
)

// FallbackSuggestion is returned whenever the model cannot produce a suggestion
func FallbackSuggestion() models.Suggestion {
	return models.Suggestion{
		Subtasks: []string{"Review requirements", "Plan execution"},
		Priority: models.PriorityMedium,
		Tags:     []string{"general"},
	}
}

// SuggestionResult is either the model's suggestion or the fallback
type SuggestionResult struct {
	Suggestion models.Suggestion `json:"suggestion"`
	Fallback   bool              `json:"fallback"`
}

// SummaryOutcome says where a summary's text came from
type SummaryOutcome string

const (
	SummaryGenerated       SummaryOutcome = "generated"
	SummaryNothingToReport SummaryOutcome = "nothing_to_report"
	SummaryEmpty           SummaryOutcome = "empty"
	SummaryFailed          SummaryOutcome = "failed"
)

// SummaryResult is the report text plus the digest it was written from
type SummaryResult struct {
	Text    string         `json:"text"`
	Outcome SummaryOutcome `json:"outcome"`
	Digest  ReportDigest   `json:"digest"`
}

// Fallback reports whether Text is one of the fixed strings
func (r SummaryResult) Fallback() bool {
	return r.Outcome != SummaryGenerated
}

// Advisor wraps a Provider so that no failure reaches the caller
type Advisor struct {
	provider Provider
	logger   *zap.Logger
	timeout  time.Duration
}

// NewAdvisor creates an advisor. A nil provider makes every call fall back without network access.
func NewAdvisor(provider Provider, logger *zap.Logger, timeout time.Duration) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Advisor{provider: provider, logger: logger, timeout: timeout}
}

// Enabled reports whether a provider is configured
func (a *Advisor) Enabled() bool {
	return a.provider != nil
}

// Suggest proposes a breakdown for the task or returns the fallback suggestion
func (a *Advisor) Suggest(ctx context.Context, title, description string) SuggestionResult {
	s, err := a.suggest(ctx, title, description)
	if err != nil {
		a.logger.Warn("advisor_suggest_fallback",
			zap.String("reason", Classify(err)),
			zap.Error(err),
			zap.String("request_id", ExtractRequestID(ctx)),
		)
		return SuggestionResult{Suggestion: FallbackSuggestion(), Fallback: true}
	}
	return SuggestionResult{Suggestion: s}
}

func (a *Advisor) suggest(ctx context.Context, title, description string) (s models.Suggestion, err error) {
	if a.provider == nil {
		return s, ErrNoProvider
	}
	ctx, span := telemetry.StartSpan(ctx, "advisor.suggest", attribute.Int("title_length", len(title)))
	defer func() { telemetry.EndSpan(span, err) }()
	defer recoverInto(&err)

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	s, err = a.provider.SuggestBreakdown(ctx, title, description)
	if err != nil {
		return s, err
	}
	return s.Normalize(), nil
}

// Summarize writes a status report for the tasks. When nothing is done or in
// progress the provider is not called.
func (a *Advisor) Summarize(ctx context.Context, tasks []models.Task) SummaryResult {
	digest := NewReportDigest(tasks)
	if digest.Empty() {
		return SummaryResult{Text: ReportNothingToReport, Outcome: SummaryNothingToReport, Digest: digest}
	}

	text, err := a.summarize(ctx, digest)
	if err != nil {
		a.logger.Warn("advisor_summarize_fallback",
			zap.String("reason", Classify(err)),
			zap.Error(err),
			zap.String("request_id", ExtractRequestID(ctx)),
		)
		return SummaryResult{Text: ReportFailed, Outcome: SummaryFailed, Digest: digest}
	}
	if strings.TrimSpace(text) == "" {
		return SummaryResult{Text: ReportEmpty, Outcome: SummaryEmpty, Digest: digest}
	}
	return SummaryResult{Text: text, Outcome: SummaryGenerated, Digest: digest}
}

func (a *Advisor) summarize(ctx context.Context, digest ReportDigest) (text string, err error) {
	if a.provider == nil {
		return "", ErrNoProvider
	}
	ctx, span := telemetry.StartSpan(ctx, "advisor.summarize",
		attribute.Int("completed", len(digest.CompletedTitles)),
		attribute.Int("in_progress", len(digest.InProgressTitles)),
	)
	defer func() { telemetry.EndSpan(span, err) }()
	defer recoverInto(&err)

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.provider.SummarizeProgress(ctx, digest)
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("provider panic: %v", r)
	}
}
