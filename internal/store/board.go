package store

import "github.com/benvon/vizflow/internal/models"

// Card is a task as shown on the board
type Card struct {
	Task       models.Task            `json:"task"`
	Progress   models.SubtaskProgress `json:"progress"`
	CanAdvance bool                   `json:"can_advance"`
	CanRetreat bool                   `json:"can_retreat"`
}

// Column holds the cards for one pipeline stage
type Column struct {
	Status models.TaskStatus `json:"status"`
	Label  string            `json:"label"`
	Cards  []Card            `json:"cards"`
}

// Board is the Kanban view of the store
type Board struct {
	Columns []Column `json:"columns"`
}

// BuildBoard places tasks into columns in pipeline order, keeping insertion order within a column
func BuildBoard(tasks []models.Task) Board {
	index := make(map[models.TaskStatus]int, len(models.StatusPipeline))
	b := Board{Columns: make([]Column, 0, len(models.StatusPipeline))}
	for i, s := range models.StatusPipeline {
		index[s] = i
		b.Columns = append(b.Columns, Column{Status: s, Label: s.Label(), Cards: []Card{}})
	}
	for _, t := range tasks {
		i, ok := index[t.Status]
		if !ok {
			continue
		}
		b.Columns[i].Cards = append(b.Columns[i].Cards, Card{
			Task:       t,
			Progress:   t.Progress(),
			CanAdvance: t.Status != models.TaskStatusDone,
			CanRetreat: t.Status != models.TaskStatusTodo,
		})
	}
	return b
}
