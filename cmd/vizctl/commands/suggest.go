package commands

import (
	"fmt"
	"strings"

	"github.com/benvon/vizflow/internal/handlers"
	"github.com/benvon/vizflow/internal/models"
	"github.com/spf13/cobra"
)

func newSuggestCmd(opts *globalOptions) *cobra.Command {
	var (
		description string
		tags        string
		create      bool
	)
	cmd := &cobra.Command{
		Use:   "suggest <title>",
		Short: "Ask the advisor to break a task down",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context(), opts)
			if err != nil {
				return err
			}
			req := handlers.SuggestRequest{Title: args[0], Description: description, Tags: models.ParseTags(tags)}
			var resp handlers.SuggestResponse
			if err := client.do(cmd.Context(), "POST", "/api/v1/ai/suggest", req, &resp); err != nil {
				return err
			}

			if create {
				var task handlers.TaskView
				if err := client.do(cmd.Context(), "POST", "/api/v1/tasks", draftRequest(resp.Draft), &task); err != nil {
					return fmt.Errorf("failed to create task from draft: %w", err)
				}
				return writeTask(cmd, opts, task)
			}

			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			out := cmd.OutOrStdout()
			if resp.Fallback {
				fmt.Fprintln(out, "(advisor unavailable, showing default suggestion)")
			}
			fmt.Fprintf(out, "Priority: %s\n", resp.Suggestion.Priority.Label())
			fmt.Fprintf(out, "Tags:     %s\n", strings.Join(resp.Suggestion.Tags, ", "))
			fmt.Fprintln(out, "Subtasks:")
			for _, st := range resp.Suggestion.Subtasks {
				fmt.Fprintf(out, "  - %s\n", st)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma separated tags already on the draft")
	cmd.Flags().BoolVar(&create, "create", false, "Create the task from the suggested draft")
	return cmd
}

// draftRequest turns the advisor's draft into a create request that keeps the draft id
func draftRequest(d models.Task) handlers.TaskRequest {
	req := handlers.TaskRequest{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Status:      string(d.Status),
		Priority:    string(d.Priority),
		DueDate:     d.DueDate,
		Tags:        d.Tags,
	}
	for _, st := range d.Subtasks {
		req.Subtasks = append(req.Subtasks, handlers.SubtaskInput{ID: st.ID, Title: st.Title, IsCompleted: st.IsCompleted})
	}
	return req
}
