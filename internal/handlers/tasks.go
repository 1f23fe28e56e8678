package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/vizflow/internal/models"
	"github.com/benvon/vizflow/internal/store"
	"github.com/benvon/vizflow/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// TaskHandler serves task and subtask mutations backed by the store
type TaskHandler struct {
	store  *store.Store
	logger *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(s *store.Store, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{store: s, logger: logger}
}

// RegisterRoutes registers task routes. The router should already carry the /tasks prefix.
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PUT")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id}/move", h.MoveTask).Methods("POST")
	r.HandleFunc("/{id}/advance", h.AdvanceTask).Methods("POST")
	r.HandleFunc("/{id}/retreat", h.RetreatTask).Methods("POST")
	r.HandleFunc("/{id}/subtasks", h.AddSubtask).Methods("POST")
	r.HandleFunc("/{id}/subtasks/{subtaskID}", h.RenameSubtask).Methods("PATCH")
	r.HandleFunc("/{id}/subtasks/{subtaskID}", h.DeleteSubtask).Methods("DELETE")
	r.HandleFunc("/{id}/subtasks/{subtaskID}/toggle", h.ToggleSubtask).Methods("POST")
}

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
)

// SubtaskInput is a checklist item supplied on create or replace
type SubtaskInput struct {
	ID          string `json:"id,omitempty" validate:"omitempty,max=64"`
	Title       string `json:"title" validate:"required,max=200"`
	IsCompleted bool   `json:"is_completed"`
}

// TaskRequest is the body of create and full replace
type TaskRequest struct {
	ID          string         `json:"id,omitempty" validate:"omitempty,max=64"`
	Title       string         `json:"title" validate:"required,max=200"`
	Description string         `json:"description" validate:"max=5000"`
	Status      string         `json:"status,omitempty" validate:"omitempty,task_status"`
	Priority    string         `json:"priority,omitempty" validate:"omitempty,priority"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	Tags        []string       `json:"tags,omitempty" validate:"max=50,dive,max=50"`
	TagsText    string         `json:"tags_text,omitempty" validate:"max=1000"`
	Subtasks    []SubtaskInput `json:"subtasks,omitempty" validate:"max=100,dive"`
}

// MoveRequest selects the target status of a move
type MoveRequest struct {
	Status string `json:"status" validate:"required,task_status"`
}

// SubtaskRequest carries a subtask title. Empty titles get the default on add.
type SubtaskRequest struct {
	Title string `json:"title" validate:"max=200"`
}

// TaskView is a task with its checklist progress
type TaskView struct {
	models.Task
	Progress models.SubtaskProgress `json:"progress"`
}

func newTaskView(t models.Task) TaskView {
	return TaskView{Task: t, Progress: t.Progress()}
}

// ListTasksResponse is the body of GET /tasks
type ListTasksResponse struct {
	Tasks []TaskView `json:"tasks"`
	Total int        `json:"total"`
}

// apply copies the request onto t. Blank status and priority fall back to TODO and MEDIUM.
func (req *TaskRequest) apply(t *models.Task) error {
	t.Title = validation.SanitizeText(req.Title)
	t.Description = validation.SanitizeText(req.Description)
	t.Status = models.TaskStatusTodo
	if req.Status != "" {
		t.Status = models.TaskStatus(req.Status)
	}
	t.Priority = models.PriorityMedium
	if req.Priority != "" {
		t.Priority = models.Priority(req.Priority)
	}
	t.DueDate = req.DueDate
	t.Tags = models.MergeTags(req.Tags, models.ParseTags(req.TagsText))
	t.Subtasks = make([]models.SubTask, 0, len(req.Subtasks))
	seen := make(map[string]struct{}, len(req.Subtasks))
	for _, st := range req.Subtasks {
		id := st.ID
		if id == "" {
			id = models.NewID()
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate subtask id %q", id)
		}
		seen[id] = struct{}{}
		t.Subtasks = append(t.Subtasks, models.SubTask{
			ID:          id,
			Title:       validation.SanitizeText(st.Title),
			IsCompleted: st.IsCompleted,
		})
	}
	return nil
}

// ListTasks lists tasks with optional status, priority and tag filters
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	var filter store.Filter
	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		if err := validation.ValidateTaskStatus(s); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		status := models.TaskStatus(s)
		filter.Status = &status
	}
	if p := q.Get("priority"); p != "" {
		if err := validation.ValidatePriority(p); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		priority := models.Priority(p)
		filter.Priority = &priority
	}
	filter.Tag = q.Get("tag")

	tasks := h.store.List(filter)
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, newTaskView(t))
	}
	respondJSON(w, http.StatusOK, ListTasksResponse{Tasks: views, Total: len(views)})
}

// CreateTask adds a task. A client supplied id (from a draft) is kept when unused.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task := models.Task{ID: req.ID, CreatedAt: time.Now().UTC()}
	if err := req.apply(&task); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if task.Title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}
	if task.ID == "" {
		task.ID = models.NewID()
	}
	if !h.store.CreateIfAbsent(task) {
		respondJSONError(w, http.StatusConflict, "Conflict", "A task with this id already exists")
		return
	}
	h.logger.Info("task_created_via_api", zap.String("task_id", task.ID), zap.String("status", string(task.Status)))
	respondJSON(w, http.StatusCreated, newTaskView(task))
}

// GetTask returns one task
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.store.Get(mux.Vars(r)["id"])
	if !ok {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	respondJSON(w, http.StatusOK, newTaskView(task))
}

// UpdateTask replaces every editable field of a task. Id and creation time are kept.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req TaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.ID != "" && req.ID != id {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Body id does not match path id")
		return
	}

	existing, ok := h.store.Get(id)
	if !ok {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	task := models.Task{ID: id, CreatedAt: existing.CreatedAt}
	if err := req.apply(&task); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if task.Title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}

	if !h.store.Update(task) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	respondJSON(w, http.StatusOK, newTaskView(task))
}

// DeleteTask removes a task. Deleting a missing task still answers 204.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.store.Delete(id) {
		h.logger.Debug("task_delete_noop", zap.String("task_id", id))
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveTask sets the status of a task to any enumerated status
func (h *TaskHandler) MoveTask(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	h.move(w, mux.Vars(r)["id"], func(models.TaskStatus) models.TaskStatus {
		return models.TaskStatus(req.Status)
	})
}

// AdvanceTask moves a task one stage forward. DONE stays DONE.
func (h *TaskHandler) AdvanceTask(w http.ResponseWriter, r *http.Request) {
	h.move(w, mux.Vars(r)["id"], models.NextStatus)
}

// RetreatTask moves a task one stage back. TODO stays TODO.
func (h *TaskHandler) RetreatTask(w http.ResponseWriter, r *http.Request) {
	h.move(w, mux.Vars(r)["id"], models.PrevStatus)
}

func (h *TaskHandler) move(w http.ResponseWriter, id string, next func(models.TaskStatus) models.TaskStatus) {
	moved, ok := h.store.Transition(id, next)
	if !ok {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	respondJSON(w, http.StatusOK, newTaskView(moved))
}

// AddSubtask appends an incomplete subtask
func (h *TaskHandler) AddSubtask(w http.ResponseWriter, r *http.Request) {
	req := SubtaskRequest{}
	if r.ContentLength != 0 && !decodeAndValidate(w, r, &req) {
		return
	}

	var added models.SubTask
	task, ok := h.store.Modify(mux.Vars(r)["id"], func(t *models.Task) bool {
		added = t.AddSubtask(validation.SanitizeText(req.Title))
		return true
	})
	if !ok {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"subtask": added,
		"task":    newTaskView(task),
	})
}

// RenameSubtask changes a subtask title
func (h *TaskHandler) RenameSubtask(w http.ResponseWriter, r *http.Request) {
	var req SubtaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	title := validation.SanitizeText(req.Title)
	if title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required")
		return
	}
	h.mutateSubtask(w, r, func(t *models.Task, id string) bool {
		return t.RenameSubtask(id, title)
	})
}

// ToggleSubtask flips completion of one subtask. The parent status is untouched.
func (h *TaskHandler) ToggleSubtask(w http.ResponseWriter, r *http.Request) {
	h.mutateSubtask(w, r, (*models.Task).ToggleSubtask)
}

// DeleteSubtask removes one subtask
func (h *TaskHandler) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	h.mutateSubtask(w, r, (*models.Task).DeleteSubtask)
}

func (h *TaskHandler) mutateSubtask(w http.ResponseWriter, r *http.Request, fn func(*models.Task, string) bool) {
	vars := mux.Vars(r)
	subtaskID := vars["subtaskID"]

	found := false
	task, ok := h.store.Modify(vars["id"], func(t *models.Task) bool {
		found = fn(t, subtaskID)
		return found
	})
	if !ok {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	if !found {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Subtask not found")
		return
	}
	respondJSON(w, http.StatusOK, newTaskView(task))
}
