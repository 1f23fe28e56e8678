package store

import "github.com/benvon/vizflow/internal/models"

// ChartPoint is one labelled value in a chart series
type ChartPoint struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Stats are the dashboard aggregates. They are recomputed on every read.
type Stats struct {
	TotalTasks           int                       `json:"total_tasks"`
	CompletedTasks       int                       `json:"completed_tasks"`
	InProgressTasks      int                       `json:"in_progress_tasks"`
	HighPriorityTasks    int                       `json:"high_priority_tasks"`
	CompletionPercentage float64                   `json:"completion_percentage"`
	ByStatus             map[models.TaskStatus]int `json:"by_status"`
	ByPriority           map[models.Priority]int   `json:"by_priority"`
	StatusDistribution   []ChartPoint              `json:"status_distribution"`
	PriorityBreakdown    []ChartPoint              `json:"priority_breakdown"`
}

// CompletionPercentage is completed/total*100, or 0 for an empty collection
func CompletionPercentage(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

// ComputeStats derives all aggregates from tasks
func ComputeStats(tasks []models.Task) Stats {
	st := Stats{
		TotalTasks: len(tasks),
		ByStatus:   make(map[models.TaskStatus]int, len(models.StatusPipeline)),
		ByPriority: make(map[models.Priority]int, len(models.Priorities)),
	}
	for _, s := range models.StatusPipeline {
		st.ByStatus[s] = 0
	}
	for _, p := range models.Priorities {
		st.ByPriority[p] = 0
	}

	for i := range tasks {
		st.ByStatus[tasks[i].Status]++
		st.ByPriority[tasks[i].Priority]++
		if tasks[i].Priority.IsHigh() {
			st.HighPriorityTasks++
		}
	}
	st.CompletedTasks = st.ByStatus[models.TaskStatusDone]
	st.InProgressTasks = st.ByStatus[models.TaskStatusInProgress]
	st.CompletionPercentage = CompletionPercentage(st.CompletedTasks, st.TotalTasks)

	// empty slices are omitted from the pie chart but every priority gets a bar
	st.StatusDistribution = make([]ChartPoint, 0, len(models.StatusPipeline))
	for _, s := range models.StatusPipeline {
		if n := st.ByStatus[s]; n > 0 {
			st.StatusDistribution = append(st.StatusDistribution, ChartPoint{Key: string(s), Label: s.Label(), Value: n})
		}
	}
	st.PriorityBreakdown = make([]ChartPoint, 0, len(models.Priorities))
	for _, p := range models.Priorities {
		st.PriorityBreakdown = append(st.PriorityBreakdown, ChartPoint{Key: string(p), Label: p.Label(), Value: st.ByPriority[p]})
	}
	return st
}
