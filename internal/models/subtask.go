package models

import "fmt"

// DefaultSubtaskTitle is the title given to manually added subtasks
const DefaultSubtaskTitle = "New Subtask"

// SubtaskProgress summarises checklist completion for one task
type SubtaskProgress struct {
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Ratio     float64 `json:"ratio"`
	Label     string  `json:"label"`
}

// HasSubtasks reports whether there is any progress to show
func (p SubtaskProgress) HasSubtasks() bool {
	return p.Total > 0
}

// Progress computes completed/total for the task's subtasks.
// An empty list yields a zero ratio and the "no subtasks" label.
func (t Task) Progress() SubtaskProgress {
	total := len(t.Subtasks)
	if total == 0 {
		return SubtaskProgress{Label: "no subtasks"}
	}
	completed := 0
	for _, st := range t.Subtasks {
		if st.IsCompleted {
			completed++
		}
	}
	return SubtaskProgress{
		Completed: completed,
		Total:     total,
		Ratio:     float64(completed) / float64(total),
		Label:     fmt.Sprintf("%d/%d subtasks", completed, total),
	}
}

func (t *Task) subtaskIndex(id string) int {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			return i
		}
	}
	return -1
}

// ToggleSubtask flips completion of the subtask with the given id.
// Parent status is never changed. Returns false if no such subtask exists.
func (t *Task) ToggleSubtask(id string) bool {
	i := t.subtaskIndex(id)
	if i < 0 {
		return false
	}
	t.Subtasks[i].IsCompleted = !t.Subtasks[i].IsCompleted
	return true
}

// DeleteSubtask removes the subtask with the given id, keeping the order of the rest
func (t *Task) DeleteSubtask(id string) bool {
	i := t.subtaskIndex(id)
	if i < 0 {
		return false
	}
	t.Subtasks = append(t.Subtasks[:i:i], t.Subtasks[i+1:]...)
	return true
}

// AddSubtask appends an incomplete subtask. An empty title falls back to DefaultSubtaskTitle.
func (t *Task) AddSubtask(title string) SubTask {
	if title == "" {
		title = DefaultSubtaskTitle
	}
	st := SubTask{ID: NewID(), Title: title}
	t.Subtasks = append(t.Subtasks, st)
	return st
}

// RenameSubtask edits a subtask title in place
func (t *Task) RenameSubtask(id, title string) bool {
	i := t.subtaskIndex(id)
	if i < 0 {
		return false
	}
	t.Subtasks[i].Title = title
	return true
}
