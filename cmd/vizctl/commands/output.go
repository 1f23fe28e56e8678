package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/benvon/vizflow/internal/handlers"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTasks(w io.Writer, tasks []handlers.TaskView) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tPRIORITY\tSUBTASKS\tTAGS\tDUE")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format(time.DateOnly)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, truncate(t.Title, 40), t.Status, t.Priority, t.Progress.Label, strings.Join(t.Tags, ","), due)
	}
	return tw.Flush()
}

func printTask(w io.Writer, t handlers.TaskView) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%s\n", t.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", t.Title)
	if t.Description != "" {
		fmt.Fprintf(tw, "Description:\t%s\n", t.Description)
	}
	fmt.Fprintf(tw, "Status:\t%s\n", t.Status.Label())
	fmt.Fprintf(tw, "Priority:\t%s\n", t.Priority.Label())
	fmt.Fprintf(tw, "Created:\t%s\n", t.CreatedAt.Format(time.RFC3339))
	if t.DueDate != nil {
		fmt.Fprintf(tw, "Due:\t%s\n", t.DueDate.Format(time.DateOnly))
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(tw, "Tags:\t%s\n", strings.Join(t.Tags, ", "))
	}
	fmt.Fprintf(tw, "Subtasks:\t%s\n", t.Progress.Label)
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, st := range t.Subtasks {
		mark := " "
		if st.IsCompleted {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %s  (%s)\n", mark, st.Title, st.ID)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
