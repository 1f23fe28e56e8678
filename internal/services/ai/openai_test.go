package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benvon/vizflow/internal/models"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func completionBody(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gemini-2.5-flash",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(body)
}

// newFakeEndpoint serves chat completions with the given status and body and records requests
func newFakeEndpoint(t *testing.T, status int, body string) (*httptest.Server, *[]chatRequest, *int32) {
	t.Helper()
	var calls int32
	var requests []chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization header = %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		var req chatRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		requests = append(requests, req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests, &calls
}

func testProvider(url string) *OpenAIProvider {
	return NewOpenAIProvider(OpenAIOptions{
		APIKey:  "test-key",
		BaseURL: url + "/v1beta/openai/",
		Timeout: 5 * time.Second,
	})
}

func TestOpenAIProvider_SuggestBreakdown(t *testing.T) {
	t.Parallel()

	srv, requests, _ := newFakeEndpoint(t, http.StatusOK,
		completionBody(`{"subtasks":["Draft schema"," ","Write migration"],"priority":"high","tags":["db","db","backend"]}`))

	got, err := testProvider(srv.URL).SuggestBreakdown(context.Background(), "Migrate users", "move to postgres")
	if err != nil {
		t.Fatalf("SuggestBreakdown() error = %v", err)
	}

	if got.Priority != models.PriorityHigh {
		t.Errorf("Priority = %q, want HIGH", got.Priority)
	}
	if strings.Join(got.Subtasks, "|") != "Draft schema|Write migration" {
		t.Errorf("Subtasks = %v", got.Subtasks)
	}
	if strings.Join(got.Tags, "|") != "db|backend" {
		t.Errorf("Tags = %v", got.Tags)
	}

	if len(*requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*requests))
	}
	req := (*requests)[0]
	if req.Model != DefaultModel {
		t.Errorf("model = %q, want %q", req.Model, DefaultModel)
	}
	if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format = %+v, want json_object", req.ResponseFormat)
	}
	if len(req.Messages) != 2 || !strings.Contains(req.Messages[1].Content, `Title: "Migrate users"`) {
		t.Errorf("unexpected prompt messages: %+v", req.Messages)
	}
}

func TestOpenAIProvider_SuggestBreakdown_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		body      string
		wantClass string
	}{
		{
			name:      "malformed content",
			status:    http.StatusOK,
			body:      completionBody("I think you should plan it"),
			wantClass: "malformed_response",
		},
		{
			name:      "empty content",
			status:    http.StatusOK,
			body:      completionBody("   "),
			wantClass: "empty_response",
		},
		{
			name:      "bad request",
			status:    http.StatusBadRequest,
			body:      `{"error":{"message":"invalid model","type":"invalid_request_error","code":"model_not_found"}}`,
			wantClass: "api_error",
		},
		{
			name:      "quota exhausted",
			status:    http.StatusTooManyRequests,
			body:      `{"error":{"message":"out of quota","type":"insufficient_quota","code":"insufficient_quota"}}`,
			wantClass: "quota_exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv, _, calls := newFakeEndpoint(t, tt.status, tt.body)

			_, err := testProvider(srv.URL).SuggestBreakdown(context.Background(), "x", "")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := Classify(err); got != tt.wantClass {
				t.Errorf("Classify() = %q, want %q (err: %v)", got, tt.wantClass, err)
			}
			if n := atomic.LoadInt32(calls); n != 1 {
				t.Errorf("expected exactly one call without retries, got %d", n)
			}
		})
	}
}

func TestOpenAIProvider_SummarizeProgress(t *testing.T) {
	t.Parallel()

	srv, requests, _ := newFakeEndpoint(t, http.StatusOK, completionBody("## Weekly\nShipped auth."))

	digest := ReportDigest{CompletedTitles: []string{"Auth"}, InProgressTitles: []string{}, TotalTasks: 4}
	got, err := testProvider(srv.URL).SummarizeProgress(context.Background(), digest)
	if err != nil {
		t.Fatalf("SummarizeProgress() error = %v", err)
	}
	if got != "## Weekly\nShipped auth." {
		t.Errorf("SummarizeProgress() = %q", got)
	}

	prompt := (*requests)[0].Messages[1].Content
	for _, want := range []string{"Completed Tasks: Auth", "In Progress Tasks: none", "Total Tasks: 4", "max 100 words"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestParseSuggestion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		wantErr  error
		wantPrio models.Priority
	}{
		{"plain json", `{"subtasks":["a"],"priority":"LOW","tags":["x"]}`, nil, models.PriorityLow},
		{"code fenced", "```json\n{\"subtasks\":[],\"priority\":\"CRITICAL\",\"tags\":[]}\n```", nil, models.PriorityCritical},
		{"unknown priority", `{"subtasks":["a"],"priority":"URGENT"}`, nil, models.PriorityMedium},
		{"missing fields", `{}`, nil, models.PriorityMedium},
		{"garbage", `not json`, ErrMalformedResponse, ""},
		{"blank", "", ErrEmptyResponse, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseSuggestion(tt.content)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("parseSuggestion() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSuggestion() error = %v", err)
			}
			if got.Priority != tt.wantPrio {
				t.Errorf("Priority = %q, want %q", got.Priority, tt.wantPrio)
			}
			if got.Subtasks == nil || got.Tags == nil {
				t.Error("expected non-nil lists")
			}
		})
	}
}

func TestProviderRegistry(t *testing.T) {
	t.Parallel()

	registry := NewProviderRegistry()
	RegisterOpenAI(registry, nil, false)

	if _, err := registry.GetProvider("openai", map[string]string{}); err == nil {
		t.Error("expected error without api key")
	}
	if _, err := registry.GetProvider("openai", map[string]string{"api_key": "k", "timeout": "soon"}); err == nil {
		t.Error("expected error for invalid timeout")
	}
	if _, err := registry.GetProvider("openai", map[string]string{"api_key": "k", "timeout": "10s"}); err != nil {
		t.Errorf("GetProvider() error = %v", err)
	}

	_, err := registry.GetProvider("anthropic", nil)
	var notFound *ErrProviderNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("expected ErrProviderNotFound, got %v", err)
	}
}
