package store

import (
	"sync"
	"time"

	"github.com/benvon/vizflow/internal/models"
	"go.uber.org/zap"
)

// EventType names a store mutation
type EventType string

const (
	EventTaskCreated EventType = "task.created"
	EventTaskUpdated EventType = "task.updated"
	EventTaskDeleted EventType = "task.deleted"
	EventTaskMoved   EventType = "task.moved"
)

// Event describes a mutation that was applied to the store
type Event struct {
	Type       EventType          `json:"type"`
	TaskID     string             `json:"task_id"`
	Task       *models.Task       `json:"task,omitempty"`
	FromStatus *models.TaskStatus `json:"from_status,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// Listener is notified after each applied mutation
type Listener func(Event)

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status   *models.TaskStatus
	Priority *models.Priority
	Tag      string
}

func (f Filter) matches(t *models.Task) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Tag != "" && !t.HasTag(f.Tag) {
		return false
	}
	return true
}

// Store owns the authoritative task list. Mutations are serialized; reads return copies.
type Store struct {
	mu        sync.RWMutex
	tasks     []models.Task
	listeners []Listener
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a store holding copies of the given tasks
func New(logger *zap.Logger, initial ...models.Task) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		tasks:  make([]models.Task, 0, len(initial)),
		logger: logger,
		now:    time.Now,
	}
	for _, t := range initial {
		s.tasks = append(s.tasks, t.Clone())
	}
	return s
}

// Subscribe registers a listener for change events
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Store) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// emit runs listeners outside the lock
func (s *Store) emit(ev Event, listeners []Listener) {
	ev.OccurredAt = s.now().UTC()
	for _, l := range listeners {
		l(ev)
	}
}

// Create appends a fully formed task. The id is trusted to be new.
func (s *Store) Create(task models.Task) {
	stored := task.Clone()

	s.mu.Lock()
	s.tasks = append(s.tasks, stored)
	listeners := s.listeners
	s.mu.Unlock()

	s.logger.Debug("task_created", zap.String("task_id", stored.ID))
	out := stored.Clone()
	s.emit(Event{Type: EventTaskCreated, TaskID: stored.ID, Task: &out}, listeners)
}

// CreateIfAbsent appends the task unless one with the same id is already stored.
// The check and the append happen under one lock.
func (s *Store) CreateIfAbsent(task models.Task) bool {
	stored := task.Clone()

	s.mu.Lock()
	if s.indexOf(stored.ID) >= 0 {
		s.mu.Unlock()
		return false
	}
	s.tasks = append(s.tasks, stored)
	listeners := s.listeners
	s.mu.Unlock()

	s.logger.Debug("task_created", zap.String("task_id", stored.ID))
	out := stored.Clone()
	s.emit(Event{Type: EventTaskCreated, TaskID: stored.ID, Task: &out}, listeners)
	return true
}

// Update replaces the task with the same id in place. Unknown ids are a no-op.
func (s *Store) Update(task models.Task) bool {
	stored := task.Clone()

	s.mu.Lock()
	i := s.indexOf(stored.ID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.tasks[i] = stored
	listeners := s.listeners
	s.mu.Unlock()

	out := stored.Clone()
	s.emit(Event{Type: EventTaskUpdated, TaskID: stored.ID, Task: &out}, listeners)
	return true
}

// Modify applies fn to a copy of the task and stores the result atomically.
// fn cannot change the id or creation time. If fn returns false the copy is discarded
// and no event is emitted; the stored task is returned unchanged.
func (s *Store) Modify(id string, fn func(*models.Task) bool) (models.Task, bool) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return models.Task{}, false
	}
	working := s.tasks[i].Clone()
	if !fn(&working) {
		current := s.tasks[i].Clone()
		s.mu.Unlock()
		return current, true
	}
	working.ID = s.tasks[i].ID
	working.CreatedAt = s.tasks[i].CreatedAt
	s.tasks[i] = working
	listeners := s.listeners
	s.mu.Unlock()

	out := working.Clone()
	s.emit(Event{Type: EventTaskUpdated, TaskID: id, Task: &out}, listeners)
	return working.Clone(), true
}

// Delete removes the task with the given id. Unknown ids are a no-op.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	listeners := s.listeners
	s.mu.Unlock()

	s.logger.Debug("task_deleted", zap.String("task_id", id))
	s.emit(Event{Type: EventTaskDeleted, TaskID: id}, listeners)
	return true
}

// Move sets only the status of the task. Any enumerated status is accepted,
// there is no transition graph. Unknown ids and statuses outside the enum are a no-op.
func (s *Store) Move(id string, status models.TaskStatus) (models.Task, bool) {
	return s.Transition(id, func(models.TaskStatus) models.TaskStatus { return status })
}

// Transition computes the new status from the current one under the store lock,
// so concurrent advances never read the same starting status.
func (s *Store) Transition(id string, next func(models.TaskStatus) models.TaskStatus) (models.Task, bool) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return models.Task{}, false
	}
	from := s.tasks[i].Status
	status := next(from)
	if !status.Valid() {
		s.mu.Unlock()
		return models.Task{}, false
	}
	s.tasks[i].Status = status
	moved := s.tasks[i].Clone()
	listeners := s.listeners
	s.mu.Unlock()

	out := moved.Clone()
	s.emit(Event{Type: EventTaskMoved, TaskID: id, Task: &out, FromStatus: &from}, listeners)
	return moved, true
}

// Get returns a copy of the task with the given id
func (s *Store) Get(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// List returns copies of matching tasks in insertion order
func (s *Store) List(f Filter) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Task, 0, len(s.tasks))
	for i := range s.tasks {
		if f.matches(&s.tasks[i]) {
			out = append(out, s.tasks[i].Clone())
		}
	}
	return out
}

// Len returns the number of tasks
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Stats computes the dashboard aggregates over the current tasks
func (s *Store) Stats() Stats {
	return ComputeStats(s.List(Filter{}))
}

// Board groups the current tasks into pipeline columns
func (s *Store) Board() Board {
	return BuildBoard(s.List(Filter{}))
}
