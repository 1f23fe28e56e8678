package models

import "time"

// Suggestion is the advisor's structured breakdown of a task
type Suggestion struct {
	Subtasks []string `json:"subtasks"`
	Priority Priority `json:"priority"`
	Tags     []string `json:"tags"`
}

// Normalize fills missing lists and replaces an unknown priority with MEDIUM
func (s Suggestion) Normalize() Suggestion {
	if s.Subtasks == nil {
		s.Subtasks = []string{}
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	if !s.Priority.Valid() {
		s.Priority = PriorityMedium
	}
	return s
}

// NewDraft builds an unsaved task with blank defaults
func NewDraft(title, description string) Task {
	return Task{
		ID:          NewID(),
		Title:       title,
		Description: description,
		Status:      TaskStatusTodo,
		Priority:    PriorityMedium,
		CreatedAt:   time.Now().UTC(),
		Tags:        []string{},
		Subtasks:    []SubTask{},
	}
}

// ApplySuggestion pre-fills a draft from advisor output. The suggested priority
// replaces the current one, suggested subtasks are appended after existing ones
// and tags are merged.
func (t *Task) ApplySuggestion(s Suggestion) {
	s = s.Normalize()
	t.Priority = s.Priority
	for _, title := range s.Subtasks {
		t.Subtasks = append(t.Subtasks, SubTask{ID: NewID(), Title: title})
	}
	t.Tags = MergeTags(t.Tags, s.Tags)
}
