package models

import "time"

// WeeklyReport is a generated progress summary
type WeeklyReport struct {
	ID              string    `json:"id"`
	Content         string    `json:"content"`
	Fallback        bool      `json:"fallback"`
	TotalTasks      int       `json:"total_tasks"`
	CompletedTasks  int       `json:"completed_tasks"`
	InProgressTasks int       `json:"in_progress_tasks"`
	GeneratedAt     time.Time `json:"generated_at"`
}
