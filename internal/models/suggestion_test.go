package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestion_Normalize(t *testing.T) {
	t.Parallel()

	s := Suggestion{Priority: Priority("URGENT")}.Normalize()
	assert.Equal(t, PriorityMedium, s.Priority)
	assert.NotNil(t, s.Subtasks)
	assert.NotNil(t, s.Tags)

	s = Suggestion{Priority: PriorityCritical}.Normalize()
	assert.Equal(t, PriorityCritical, s.Priority)
}

func TestNewDraft(t *testing.T) {
	t.Parallel()

	d := NewDraft("Redesign Landing Page", "")
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, TaskStatusTodo, d.Status)
	assert.Equal(t, PriorityMedium, d.Priority)
	assert.Empty(t, d.Tags)
	assert.Empty(t, d.Subtasks)
	assert.False(t, d.CreatedAt.IsZero())
}

func TestTask_ApplySuggestion(t *testing.T) {
	t.Parallel()

	d := NewDraft("Launch", "")
	d.Tags = ParseTags("frontend,  design ")
	existing := d.AddSubtask("Keep me")

	d.ApplySuggestion(Suggestion{
		Subtasks: []string{"Write copy", "Ship"},
		Priority: PriorityHigh,
		Tags:     []string{"design", "ui"},
	})

	assert.Equal(t, PriorityHigh, d.Priority)
	assert.Equal(t, []string{"frontend", "design", "ui"}, d.Tags)
	if assert.Len(t, d.Subtasks, 3) {
		assert.Equal(t, existing.ID, d.Subtasks[0].ID)
		assert.Equal(t, "Write copy", d.Subtasks[1].Title)
		assert.Equal(t, "Ship", d.Subtasks[2].Title)
		assert.False(t, d.Subtasks[2].IsCompleted)
		assert.NotEqual(t, d.Subtasks[1].ID, d.Subtasks[2].ID)
	}
	assert.Equal(t, TaskStatusTodo, d.Status)
}
