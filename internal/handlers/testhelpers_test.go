package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benvon/vizflow/internal/models"
	"github.com/benvon/vizflow/internal/store"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// fixtureTasks is one task per interesting state
func fixtureTasks() []models.Task {
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return []models.Task{
		{
			ID: "t-todo", Title: "Write docs", Status: models.TaskStatusTodo, Priority: models.PriorityLow,
			CreatedAt: created, Tags: []string{"docs"}, Subtasks: []models.SubTask{},
		},
		{
			ID: "t-wip", Title: "Build API", Status: models.TaskStatusInProgress, Priority: models.PriorityHigh,
			CreatedAt: created, Tags: []string{"backend"},
			Subtasks: []models.SubTask{{ID: "s-1", Title: "Routes", IsCompleted: true}, {ID: "s-2", Title: "Tests"}},
		},
		{
			ID: "t-done", Title: "Pick stack", Status: models.TaskStatusDone, Priority: models.PriorityCritical,
			CreatedAt: created, Tags: []string{"backend", "planning"}, Subtasks: []models.SubTask{},
		},
	}
}

func newTestRouter(t *testing.T, register func(api *mux.Router)) *mux.Router {
	t.Helper()
	r := mux.NewRouter()
	register(r.PathPrefix("/api/v1").Subrouter())
	return r
}

func newTaskRouter(t *testing.T) (*mux.Router, *store.Store) {
	t.Helper()
	s := store.New(zap.NewNop(), fixtureTasks()...)
	h := NewTaskHandler(s, zap.NewNop())
	return newTestRouter(t, func(api *mux.Router) {
		h.RegisterRoutes(api.PathPrefix("/tasks").Subrouter())
	}), s
}

// serve runs req and decodes the envelope's data into out when out is non-nil
func serve(t *testing.T, h http.Handler, req *http.Request, out any) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if out != nil && w.Code < 300 {
		var env struct {
			Success bool            `json:"success"`
			Data    json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("Failed to decode envelope: %v (%s)", err, w.Body.String())
		}
		if !env.Success {
			t.Fatalf("Expected success envelope, got %s", w.Body.String())
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("Failed to decode data: %v", err)
		}
	}
	return w
}
