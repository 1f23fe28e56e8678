package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benvon/vizflow/internal/models"
	"github.com/benvon/vizflow/internal/queue"
	"github.com/benvon/vizflow/internal/services/ai"
	"github.com/benvon/vizflow/internal/store"
)

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": status < 300, "data": data, "timestamp": time.Now().UTC()})
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTasksList(t *testing.T) {
	t.Parallel()

	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		tasks := store.DemoTasks()
		views := make([]map[string]any, 0, len(tasks))
		for _, task := range tasks {
			views = append(views, map[string]any{
				"id": task.ID, "title": task.Title, "status": task.Status, "priority": task.Priority,
				"tags": task.Tags, "subtasks": task.Subtasks, "progress": task.Progress(),
			})
		}
		writeEnvelope(w, http.StatusOK, map[string]any{"tasks": views, "total": len(views)})
	}))
	defer srv.Close()

	out, err := runCLI(t, "--server", srv.URL, "--token", "abc", "tasks", "list", "--status", "in_progress")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotAuth != "Bearer abc" {
		t.Errorf("Expected bearer token, got %q", gotAuth)
	}
	if gotQuery != "status=IN_PROGRESS" {
		t.Errorf("Expected status filter, got %q", gotQuery)
	}
	if !strings.Contains(out, "Implement Authentication") || !strings.Contains(out, "1/2 subtasks") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}

func TestTasksList_InvalidStatus(t *testing.T) {
	t.Parallel()

	if _, err := runCLI(t, "--server", "http://127.0.0.1:1", "tasks", "list", "--status", "blocked"); err == nil {
		t.Error("Expected invalid status to fail before any request")
	}
}

func TestTasksGet_NotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":"Not Found","message":"Task not found"}`))
	}))
	defer srv.Close()

	_, err := runCLI(t, "--server", srv.URL, "tasks", "get", "nope")
	if !IsNotFound(err) {
		t.Fatalf("Expected not found error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Task not found") {
		t.Errorf("Expected server message in error, got %v", err)
	}
}

func TestTasksCreate(t *testing.T) {
	t.Parallel()

	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/tasks" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeEnvelope(w, http.StatusCreated, map[string]any{
			"id": "new-1", "title": body["title"], "status": "TODO", "priority": "HIGH",
			"created_at": time.Now().UTC(), "tags": []string{"api"}, "subtasks": []any{},
			"progress": map[string]any{"label": "no subtasks"},
		})
	}))
	defer srv.Close()

	out, err := runCLI(t, "--server", srv.URL, "tasks", "create", "Ship it", "-p", "high", "--tags", "api", "--due", "2025-01-31", "--subtask", "one")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if body["priority"] != "HIGH" || body["tags_text"] != "api" || body["due_date"] == nil {
		t.Errorf("Unexpected request body %v", body)
	}
	if !strings.Contains(out, "new-1") || !strings.Contains(out, "High") {
		t.Errorf("Unexpected output:\n%s", out)
	}

	if _, err := runCLI(t, "--server", srv.URL, "tasks", "create", "x", "--due", "tomorrow"); err == nil {
		t.Error("Expected invalid due date to fail")
	}
}

func TestSuggestCreateKeepsDraftID(t *testing.T) {
	t.Parallel()

	draft := models.NewDraft("Plan launch", "")
	draft.ApplySuggestion(models.Suggestion{Subtasks: []string{"Book venue"}, Priority: models.PriorityHigh, Tags: []string{"events"}})

	var created map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/ai/suggest":
			writeEnvelope(w, http.StatusOK, map[string]any{
				"suggestion": map[string]any{"subtasks": []string{"Book venue"}, "priority": "HIGH", "tags": []string{"events"}},
				"fallback":   false,
				"draft":      draft,
			})
		case "/api/v1/tasks":
			_ = json.NewDecoder(r.Body).Decode(&created)
			writeEnvelope(w, http.StatusCreated, map[string]any{"id": created["id"], "title": created["title"], "status": "TODO", "priority": "HIGH"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	if _, err := runCLI(t, "--server", srv.URL, "suggest", "Plan launch", "--create"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if created["id"] != draft.ID {
		t.Errorf("Expected draft id %s, got %v", draft.ID, created["id"])
	}
	subtasks, _ := created["subtasks"].([]any)
	if len(subtasks) != 1 {
		t.Errorf("Expected draft subtasks to be sent, got %v", created["subtasks"])
	}
}

func TestReportGenerateWait(t *testing.T) {
	t.Parallel()

	var polls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/ai/reports":
			writeEnvelope(w, http.StatusAccepted, map[string]string{"report_id": "rep-1", "status": "generating"})
		case r.URL.Path == "/api/v1/ai/reports/latest":
			polls++
			status := ai.ReportStatus{InFlight: true, PendingID: "rep-1"}
			if polls > 1 {
				status = ai.ReportStatus{Latest: &models.WeeklyReport{ID: "rep-1", Content: "All good.", GeneratedAt: time.Now()}}
			}
			writeEnvelope(w, http.StatusOK, status)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	out, err := runCLI(t, "--server", srv.URL, "report", "generate", "--wait", "--poll-interval", "10ms")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out, "All good.") {
		t.Errorf("Expected report content, got:\n%s", out)
	}
}

func TestClientCredentials(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			if err := r.ParseForm(); err != nil || r.Form.Get("grant_type") != "client_credentials" {
				http.Error(w, "bad grant", http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"cc-token","token_type":"Bearer","expires_in":3600}`))
		case "/api/v1/dashboard":
			gotAuth = r.Header.Get("Authorization")
			writeEnvelope(w, http.StatusOK, store.ComputeStats(store.DemoTasks()))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	out, err := runCLI(t, "--server", srv.URL, "--client-id", "cli", "--client-secret", "s3cret",
		"--token-url", srv.URL+"/oauth/token", "stats")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotAuth != "Bearer cc-token" {
		t.Errorf("Expected client credentials token, got %q", gotAuth)
	}
	if !strings.Contains(out, "33.33%") {
		t.Errorf("Expected completion percentage in output, got:\n%s", out)
	}
}

func TestFormatEvent(t *testing.T) {
	t.Parallel()

	from := models.TaskStatusTodo
	msg := &queue.Message{
		Type:       "task.moved",
		TaskID:     "t-1",
		Task:       &models.Task{Title: "Ship", Status: models.TaskStatusInProgress},
		FromStatus: &from,
		OccurredAt: time.Now(),
	}
	line := formatEvent(msg)
	if !strings.Contains(line, "task.moved") || !strings.Contains(line, "TODO -> IN_PROGRESS") {
		t.Errorf("Unexpected event line %q", line)
	}
}
