package store

import (
	"fmt"
	"os"
	"time"

	"github.com/benvon/vizflow/internal/models"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Tasks []models.Task `yaml:"tasks"`
}

// LoadSeedFile reads initial tasks from a YAML file. Missing ids, statuses,
// priorities and creation times get the same defaults as a blank task.
func LoadSeedFile(path string) ([]models.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a YAML seed document
func ParseSeed(data []byte) ([]models.Task, error) {
	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	now := time.Now().UTC()
	seen := make(map[string]struct{}, len(doc.Tasks))
	for i := range doc.Tasks {
		t := &doc.Tasks[i]
		if t.ID == "" {
			t.ID = models.NewID()
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("duplicate task id %q in seed file", t.ID)
		}
		seen[t.ID] = struct{}{}
		if t.Status == "" {
			t.Status = models.TaskStatusTodo
		}
		if !t.Status.Valid() {
			return nil, fmt.Errorf("task %q: invalid status %q", t.ID, t.Status)
		}
		if t.Priority == "" {
			t.Priority = models.PriorityMedium
		}
		if !t.Priority.Valid() {
			return nil, fmt.Errorf("task %q: invalid priority %q", t.ID, t.Priority)
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		t.Tags = models.MergeTags(t.Tags)
		if t.Subtasks == nil {
			t.Subtasks = []models.SubTask{}
		}
		subtaskIDs := make(map[string]struct{}, len(t.Subtasks))
		for j := range t.Subtasks {
			if t.Subtasks[j].ID == "" {
				t.Subtasks[j].ID = models.NewID()
			}
			if _, dup := subtaskIDs[t.Subtasks[j].ID]; dup {
				return nil, fmt.Errorf("task %q: duplicate subtask id %q", t.ID, t.Subtasks[j].ID)
			}
			subtaskIDs[t.Subtasks[j].ID] = struct{}{}
		}
	}
	return doc.Tasks, nil
}

// DemoTasks returns the sample board shown on first start
func DemoTasks() []models.Task {
	now := time.Now().UTC()
	return []models.Task{
		{
			ID:          "1",
			Title:       "Implement Authentication",
			Description: "Setup JWT auth and secure routes",
			Status:      models.TaskStatusInProgress,
			Priority:    models.PriorityHigh,
			CreatedAt:   now,
			Tags:        []string{"backend", "security"},
			Subtasks: []models.SubTask{
				{ID: "1a", Title: "Setup User Model", IsCompleted: true},
				{ID: "1b", Title: "Login Endpoint"},
			},
		},
		{
			ID:          "2",
			Title:       "Design Dashboard UI",
			Description: "Create responsive layout for the main dashboard",
			Status:      models.TaskStatusDone,
			Priority:    models.PriorityMedium,
			CreatedAt:   now,
			Tags:        []string{"frontend", "design"},
			Subtasks: []models.SubTask{
				{ID: "2a", Title: "Wireframes", IsCompleted: true},
				{ID: "2b", Title: "Component Library", IsCompleted: true},
			},
		},
		{
			ID:          "3",
			Title:       "Database Optimization",
			Description: "Analyze query performance",
			Status:      models.TaskStatusTodo,
			Priority:    models.PriorityLow,
			CreatedAt:   now,
			Tags:        []string{"db", "perf"},
			Subtasks:    []models.SubTask{},
		},
	}
}
