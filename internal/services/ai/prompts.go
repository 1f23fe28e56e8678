package ai

import (
	"fmt"
	"strings"
)

const suggestSystemPrompt = "You are a project planning assistant. Respond with valid JSON only, using the keys subtasks (array of strings), priority (one of LOW, MEDIUM, HIGH, CRITICAL) and tags (array of short strings)."

const reportSystemPrompt = "You are a project manager writing status updates for stakeholders."

func buildSuggestPrompt(title, description string) string {
	return fmt.Sprintf(
		"Analyze this task: Title: %q, Description: %q. Break it down into actionable subtasks, suggest a priority level, and suggest 3 relevant short tags.",
		title, description,
	)
}

func buildReportPrompt(d ReportDigest) string {
	var b strings.Builder
	b.WriteString("Generate a professional, concise weekly status report summary (max 100 words) based on this data:\n")
	fmt.Fprintf(&b, "Completed Tasks: %s\n", joinTitles(d.CompletedTitles))
	fmt.Fprintf(&b, "In Progress Tasks: %s\n", joinTitles(d.InProgressTitles))
	fmt.Fprintf(&b, "Total Tasks: %d\n", d.TotalTasks)
	b.WriteString("Focus on achievements and current focus. Use Markdown formatting.")
	return b.String()
}

func joinTitles(titles []string) string {
	if len(titles) == 0 {
		return "none"
	}
	return strings.Join(titles, ", ")
}
