package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/vizflow/internal/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultModel is the default model to use
	DefaultModel = "gemini-2.5-flash"
	// DefaultBaseURL is Gemini's OpenAI-compatible endpoint
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	reportMaxTokens = 400
)

// OpenAIProvider implements Provider against any OpenAI-compatible chat completions API
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// OpenAIOptions configures an OpenAIProvider
type OpenAIOptions struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	Logger    *zap.Logger
	DebugMode bool
}

// NewOpenAIProvider creates a new provider. Retries are disabled so a failed call
// surfaces immediately and the caller can fall back.
func NewOpenAIProvider(opts OpenAIOptions) *OpenAIProvider {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	httpClient := &http.Client{
		Timeout: opts.Timeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(opts.BaseURL),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)

	return &OpenAIProvider{
		client:    client,
		model:     opts.Model,
		logger:    opts.Logger,
		debugMode: opts.DebugMode,
	}
}

// SuggestBreakdown asks the model for a JSON breakdown of the task
func (p *OpenAIProvider) SuggestBreakdown(ctx context.Context, title, description string) (models.Suggestion, error) {
	prompt := buildSuggestPrompt(title, description)
	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(suggestSystemPrompt),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	content, err := p.complete(ctx, "suggest_breakdown", prompt, req)
	if err != nil {
		return models.Suggestion{}, fmt.Errorf("failed to suggest breakdown: %w", err)
	}
	return parseSuggestion(content)
}

// SummarizeProgress asks the model for a short Markdown report
func (p *OpenAIProvider) SummarizeProgress(ctx context.Context, digest ReportDigest) (string, error) {
	prompt := buildReportPrompt(digest)
	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(reportSystemPrompt),
			openai.UserMessage(prompt),
		},
		MaxTokens: openai.Int(reportMaxTokens),
	}

	content, err := p.complete(ctx, "summarize_progress", prompt, req)
	if err != nil {
		return "", fmt.Errorf("failed to summarize progress: %w", err)
	}
	return content, nil
}

func (p *OpenAIProvider) complete(ctx context.Context, operation, prompt string, req openai.ChatCompletionNewParams) (string, error) {
	requestID := ExtractRequestID(ctx)
	if p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", operation),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", apiErr
		}
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := resp.Choices[0].Message.Content

	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	return content, nil
}

// parseSuggestion decodes the model output, tolerating prose or code fences around the JSON object
func parseSuggestion(content string) (models.Suggestion, error) {
	raw := strings.TrimSpace(content)
	if raw == "" {
		return models.Suggestion{}, ErrEmptyResponse
	}

	var s models.Suggestion
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end <= start {
			return models.Suggestion{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &s); err != nil {
			return models.Suggestion{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}
	s.Priority = models.Priority(strings.ToUpper(strings.TrimSpace(string(s.Priority))))
	s.Subtasks = trimNonEmpty(s.Subtasks)
	s.Tags = models.MergeTags(s.Tags)
	return s.Normalize(), nil
}

func trimNonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// RegisterOpenAI registers the OpenAI-compatible provider with the registry
func RegisterOpenAI(registry *ProviderRegistry, logger *zap.Logger, debugMode bool) {
	registry.Register("openai", func(config map[string]string) (Provider, error) {
		apiKey := config["api_key"]
		if apiKey == "" {
			return nil, fmt.Errorf("openai api_key is required")
		}

		var timeout time.Duration
		if raw := config["timeout"]; raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid openai timeout %q: %w", raw, err)
			}
			timeout = d
		}

		return NewOpenAIProvider(OpenAIOptions{
			APIKey:    apiKey,
			BaseURL:   config["base_url"],
			Model:     config["model"],
			Timeout:   timeout,
			Logger:    logger,
			DebugMode: debugMode,
		}), nil
	})
}
