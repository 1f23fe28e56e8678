package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is a stage of the status pipeline
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusReview     TaskStatus = "REVIEW"
	TaskStatusDone       TaskStatus = "DONE"
)

// Priority represents how urgent a task is
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// StatusPipeline lists every status in pipeline order.
var StatusPipeline = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone}

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// Valid reports whether s is one of the enumerated statuses
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone:
		return true
	default:
		return false
	}
}

// Label returns the human readable column name for the status
func (s TaskStatus) Label() string {
	switch s {
	case TaskStatusTodo:
		return "To Do"
	case TaskStatusInProgress:
		return "In Progress"
	case TaskStatusReview:
		return "Review"
	case TaskStatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// Valid reports whether p is one of the enumerated priorities
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// Label returns the display name for the priority
func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityCritical:
		return "Critical"
	default:
		return string(p)
	}
}

// IsHigh reports whether the priority counts toward the high priority metric
func (p Priority) IsHigh() bool {
	return p == PriorityHigh || p == PriorityCritical
}

// NextStatus returns the pipeline successor of s. DONE saturates.
func NextStatus(s TaskStatus) TaskStatus {
	switch s {
	case TaskStatusTodo:
		return TaskStatusInProgress
	case TaskStatusInProgress:
		return TaskStatusReview
	default:
		return TaskStatusDone
	}
}

// PrevStatus returns the pipeline predecessor of s. TODO saturates.
func PrevStatus(s TaskStatus) TaskStatus {
	switch s {
	case TaskStatusDone:
		return TaskStatusReview
	case TaskStatusReview:
		return TaskStatusInProgress
	default:
		return TaskStatusTodo
	}
}

// SubTask is a checklist item owned by exactly one task
type SubTask struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	IsCompleted bool   `json:"is_completed" yaml:"is_completed"`
}

// Task represents a unit of work on the board
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Status      TaskStatus `json:"status" yaml:"status"`
	Priority    Priority   `json:"priority" yaml:"priority"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	DueDate     *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Tags        []string   `json:"tags" yaml:"tags"`
	Subtasks    []SubTask  `json:"subtasks" yaml:"subtasks"`
}

// NewID returns a fresh opaque identifier for tasks and subtasks
func NewID() string {
	return uuid.NewString()
}

// Clone returns a deep copy of the task so callers cannot alias store state
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		due := *t.DueDate
		c.DueDate = &due
	}
	c.Tags = append(make([]string, 0, len(t.Tags)), t.Tags...)
	c.Subtasks = append(make([]SubTask, 0, len(t.Subtasks)), t.Subtasks...)
	return c
}

// HasTag reports whether the task carries the exact tag
func (t Task) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}
