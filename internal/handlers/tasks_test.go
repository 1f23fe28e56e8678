package handlers

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/benvon/vizflow/internal/models"
	"github.com/benvon/vizflow/internal/store"
)

func TestListTasks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantIDs    []string
	}{
		{name: "all in insertion order", query: "", wantStatus: http.StatusOK, wantIDs: []string{"t-todo", "t-wip", "t-done"}},
		{name: "by status", query: "?status=DONE", wantStatus: http.StatusOK, wantIDs: []string{"t-done"}},
		{name: "by priority", query: "?priority=HIGH", wantStatus: http.StatusOK, wantIDs: []string{"t-wip"}},
		{name: "by tag", query: "?tag=backend", wantStatus: http.StatusOK, wantIDs: []string{"t-wip", "t-done"}},
		{name: "invalid status", query: "?status=BLOCKED", wantStatus: http.StatusBadRequest},
		{name: "invalid priority", query: "?priority=urgent", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router, _ := newTaskRouter(t)
			var resp ListTasksResponse
			w := serve(t, router, newTestRequest("GET", "/api/v1/tasks"+tt.query, nil), &resp)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if resp.Total != len(tt.wantIDs) {
				t.Fatalf("Expected %d tasks, got %d", len(tt.wantIDs), resp.Total)
			}
			for i, id := range tt.wantIDs {
				if resp.Tasks[i].ID != id {
					t.Errorf("Expected task %d to be %s, got %s", i, id, resp.Tasks[i].ID)
				}
			}
		})
	}
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       any
		wantStatus int
		check      func(*testing.T, TaskView)
	}{
		{
			name:       "defaults applied",
			body:       map[string]any{"title": "  New thing  "},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, v TaskView) {
				if v.Title != "New thing" {
					t.Errorf("Expected trimmed title, got %q", v.Title)
				}
				if v.Status != models.TaskStatusTodo || v.Priority != models.PriorityMedium {
					t.Errorf("Expected TODO/MEDIUM, got %s/%s", v.Status, v.Priority)
				}
				if v.ID == "" || v.CreatedAt.IsZero() {
					t.Error("Expected generated id and creation time")
				}
				if v.Progress.Label != "no subtasks" {
					t.Errorf("Expected 'no subtasks', got %q", v.Progress.Label)
				}
			},
		},
		{
			name: "tags merged from list and text",
			body: map[string]any{
				"title": "Tagged", "tags": []string{"api", " ui "}, "tags_text": "ui, db,,api",
				"subtasks": []map[string]any{{"title": "one"}, {"title": "two", "is_completed": true}},
			},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, v TaskView) {
				want := []string{"api", "ui", "db"}
				if len(v.Tags) != len(want) {
					t.Fatalf("Expected tags %v, got %v", want, v.Tags)
				}
				for i := range want {
					if v.Tags[i] != want[i] {
						t.Errorf("Expected tags %v, got %v", want, v.Tags)
					}
				}
				if v.Progress.Label != "1/2 subtasks" {
					t.Errorf("Expected '1/2 subtasks', got %q", v.Progress.Label)
				}
			},
		},
		{
			name:       "draft id kept",
			body:       map[string]any{"id": "draft-1", "title": "From draft", "status": "REVIEW", "priority": "CRITICAL"},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, v TaskView) {
				if v.ID != "draft-1" || v.Status != models.TaskStatusReview {
					t.Errorf("Expected draft-1 in REVIEW, got %s in %s", v.ID, v.Status)
				}
			},
		},
		{name: "duplicate id", body: map[string]any{"id": "t-todo", "title": "Clash"}, wantStatus: http.StatusConflict},
		{
			name: "duplicate subtask ids",
			body: map[string]any{"id": "d", "title": "x", "subtasks": []map[string]any{
				{"id": "s", "title": "a"}, {"id": "s", "title": "b"},
			}},
			wantStatus: http.StatusBadRequest,
		},
		{name: "missing title", body: map[string]any{"description": "no title"}, wantStatus: http.StatusBadRequest},
		{name: "blank title", body: map[string]any{"title": "   "}, wantStatus: http.StatusBadRequest},
		{name: "invalid status", body: map[string]any{"title": "x", "status": "BLOCKED"}, wantStatus: http.StatusBadRequest},
		{name: "invalid priority", body: map[string]any{"title": "x", "priority": "low"}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router, s := newTaskRouter(t)
			var view TaskView
			w := serve(t, router, newTestRequest("POST", "/api/v1/tasks", tt.body), &view)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.check == nil {
				if s.Len() != 3 {
					t.Errorf("Expected store untouched, got %d tasks", s.Len())
				}
				return
			}
			tt.check(t, view)
			if _, ok := s.Get(view.ID); !ok {
				t.Error("Expected task to be stored")
			}
		})
	}
}

func TestGetTask(t *testing.T) {
	t.Parallel()

	router, _ := newTaskRouter(t)

	var view TaskView
	w := serve(t, router, newTestRequest("GET", "/api/v1/tasks/t-wip", nil), &view)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if view.Progress.Completed != 1 || view.Progress.Total != 2 {
		t.Errorf("Expected 1/2 progress, got %+v", view.Progress)
	}

	w = serve(t, router, newTestRequest("GET", "/api/v1/tasks/missing", nil), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()

	router, s := newTaskRouter(t)
	before, _ := s.Get("t-wip")

	var view TaskView
	w := serve(t, router, newTestRequest("PUT", "/api/v1/tasks/t-wip", map[string]any{
		"title": "Build API v2", "status": "REVIEW", "priority": "LOW",
	}), &view)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if view.Title != "Build API v2" || view.Status != models.TaskStatusReview {
		t.Errorf("Unexpected update result %+v", view.Task)
	}
	if !view.CreatedAt.Equal(before.CreatedAt) {
		t.Error("Expected creation time to be kept")
	}

	list := s.List(store.Filter{})
	if list[1].ID != "t-wip" {
		t.Error("Expected updated task to keep its position")
	}

	w = serve(t, router, newTestRequest("PUT", "/api/v1/tasks/ghost", map[string]any{"title": "x"}), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if s.Len() != 3 {
		t.Error("Expected update of unknown id to leave the store unchanged")
	}

	w = serve(t, router, newTestRequest("PUT", "/api/v1/tasks/t-wip", map[string]any{"id": "other", "title": "x"}), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for mismatched id, got %d", w.Code)
	}

	w = serve(t, router, newTestRequest("PUT", "/api/v1/tasks/t-wip", map[string]any{
		"title":    "x",
		"subtasks": []map[string]any{{"id": "s-1", "title": "a"}, {"id": "s-1", "title": "b"}},
	}), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for repeated subtask id, got %d", w.Code)
	}
	if stored, _ := s.Get("t-wip"); stored.Title != "Build API v2" || len(stored.Subtasks) != 0 {
		t.Errorf("Expected rejected update to leave the task alone, got %+v", stored)
	}
}

func TestCreateTask_ConcurrentSameID(t *testing.T) {
	t.Parallel()

	router, s := newTaskRouter(t)
	const workers = 16
	codes := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			router.ServeHTTP(w, newTestRequest("POST", "/api/v1/tasks", map[string]any{"id": "dup", "title": "x"}))
			codes <- w.Code
		}()
	}
	wg.Wait()
	close(codes)

	created := 0
	for code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
		default:
			t.Errorf("Unexpected status %d", code)
		}
	}
	if created != 1 {
		t.Errorf("Expected exactly one create to win, got %d", created)
	}
	if n := len(s.List(store.Filter{})); n != 4 {
		t.Errorf("Expected 4 tasks, got %d", n)
	}
}

func TestAdvanceTask_Concurrent(t *testing.T) {
	t.Parallel()

	for round := 0; round < 100; round++ {
		router, s := newTaskRouter(t)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				router.ServeHTTP(httptest.NewRecorder(), newTestRequest("POST", "/api/v1/tasks/t-todo/advance", nil))
			}()
		}
		wg.Wait()

		if got, _ := s.Get("t-todo"); got.Status != models.TaskStatusReview {
			t.Fatalf("Round %d: expected two advances to reach REVIEW, got %s", round, got.Status)
		}
	}
}

func TestDeleteTask_Idempotent(t *testing.T) {
	t.Parallel()

	router, s := newTaskRouter(t)
	for i := 0; i < 2; i++ {
		w := serve(t, router, newTestRequest("DELETE", "/api/v1/tasks/t-todo", nil), nil)
		if w.Code != http.StatusNoContent {
			t.Fatalf("Attempt %d: expected status 204, got %d", i+1, w.Code)
		}
	}
	if s.Len() != 2 {
		t.Errorf("Expected 2 tasks left, got %d", s.Len())
	}
}

func TestMoveTask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		body       any
		wantStatus int
		want       models.TaskStatus
	}{
		{name: "move anywhere", path: "/api/v1/tasks/t-todo/move", body: map[string]any{"status": "DONE"}, wantStatus: http.StatusOK, want: models.TaskStatusDone},
		{name: "advance", path: "/api/v1/tasks/t-wip/advance", wantStatus: http.StatusOK, want: models.TaskStatusReview},
		{name: "advance saturates", path: "/api/v1/tasks/t-done/advance", wantStatus: http.StatusOK, want: models.TaskStatusDone},
		{name: "retreat", path: "/api/v1/tasks/t-done/retreat", wantStatus: http.StatusOK, want: models.TaskStatusReview},
		{name: "retreat saturates", path: "/api/v1/tasks/t-todo/retreat", wantStatus: http.StatusOK, want: models.TaskStatusTodo},
		{name: "invalid status", path: "/api/v1/tasks/t-todo/move", body: map[string]any{"status": "LATER"}, wantStatus: http.StatusBadRequest},
		{name: "unknown task", path: "/api/v1/tasks/ghost/advance", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router, s := newTaskRouter(t)
			var view TaskView
			w := serve(t, router, newTestRequest("POST", tt.path, tt.body), &view)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if view.Status != tt.want {
				t.Errorf("Expected status %s, got %s", tt.want, view.Status)
			}
			stored, _ := s.Get(view.ID)
			if stored.Status != tt.want {
				t.Errorf("Expected stored status %s, got %s", tt.want, stored.Status)
			}
		})
	}
}

func TestSubtaskRoutes(t *testing.T) {
	t.Parallel()

	router, s := newTaskRouter(t)

	var added struct {
		Subtask models.SubTask `json:"subtask"`
		Task    TaskView       `json:"task"`
	}
	w := serve(t, router, newTestRequest("POST", "/api/v1/tasks/t-todo/subtasks", nil), &added)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if added.Subtask.Title != models.DefaultSubtaskTitle || added.Subtask.IsCompleted {
		t.Errorf("Expected default incomplete subtask, got %+v", added.Subtask)
	}
	subPath := "/api/v1/tasks/t-todo/subtasks/" + added.Subtask.ID

	var view TaskView
	w = serve(t, router, newTestRequest("PATCH", subPath, map[string]any{"title": "Outline"}), &view)
	if w.Code != http.StatusOK || view.Subtasks[0].Title != "Outline" {
		t.Fatalf("Rename failed: %d %s", w.Code, w.Body.String())
	}

	w = serve(t, router, newTestRequest("POST", subPath+"/toggle", nil), &view)
	if w.Code != http.StatusOK || !view.Subtasks[0].IsCompleted {
		t.Fatalf("Toggle failed: %d %s", w.Code, w.Body.String())
	}
	if view.Status != models.TaskStatusTodo {
		t.Errorf("Expected parent status unchanged, got %s", view.Status)
	}
	if view.Progress.Label != "1/1 subtasks" {
		t.Errorf("Expected '1/1 subtasks', got %q", view.Progress.Label)
	}

	w = serve(t, router, newTestRequest("DELETE", subPath, nil), &view)
	if w.Code != http.StatusOK || len(view.Subtasks) != 0 {
		t.Fatalf("Delete failed: %d %s", w.Code, w.Body.String())
	}

	w = serve(t, router, newTestRequest("POST", subPath+"/toggle", nil), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing subtask, got %d", w.Code)
	}
	w = serve(t, router, newTestRequest("POST", "/api/v1/tasks/ghost/subtasks", map[string]any{"title": "x"}), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing task, got %d", w.Code)
	}
	w = serve(t, router, newTestRequest("PATCH", "/api/v1/tasks/t-wip/subtasks/s-1", map[string]any{"title": " "}), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank rename, got %d", w.Code)
	}

	if stored, _ := s.Get("t-wip"); stored.Subtasks[0].Title != "Routes" {
		t.Error("Expected rejected rename to leave subtask untouched")
	}
}
