package queue

import (
	"time"

	"github.com/benvon/vizflow/internal/models"
	"github.com/benvon/vizflow/internal/store"
	"github.com/google/uuid"
)

// Message is the wire form of a task change event
type Message struct {
	ID         uuid.UUID          `json:"id"`
	Type       string             `json:"type"`
	TaskID     string             `json:"task_id"`
	Task       *models.Task       `json:"task,omitempty"`
	FromStatus *models.TaskStatus `json:"from_status,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
	Source     string             `json:"source,omitempty"`
}

// NewMessage wraps a store event for publishing
func NewMessage(ev store.Event, source string) *Message {
	occurred := ev.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	return &Message{
		ID:         uuid.New(),
		Type:       string(ev.Type),
		TaskID:     ev.TaskID,
		Task:       ev.Task,
		FromStatus: ev.FromStatus,
		OccurredAt: occurred,
		Source:     source,
	}
}

// RoutingKey is the topic key the message is published under
func (m *Message) RoutingKey() string {
	return m.Type
}
