package commands

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/benvon/vizflow/internal/handlers"
	"github.com/benvon/vizflow/internal/validation"
	"github.com/spf13/cobra"
)

func newTasksCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "Manage tasks",
	}
	cmd.AddCommand(newTasksListCmd(opts))
	cmd.AddCommand(newTasksGetCmd(opts))
	cmd.AddCommand(newTasksCreateCmd(opts))
	cmd.AddCommand(newTasksMoveCmd(opts))
	cmd.AddCommand(newTasksStepCmd(opts, "advance", "Move a task one stage forward"))
	cmd.AddCommand(newTasksStepCmd(opts, "retreat", "Move a task one stage back"))
	cmd.AddCommand(newTasksDeleteCmd(opts))
	return cmd
}

func newTasksListCmd(opts *globalOptions) *cobra.Command {
	var status, priority, tag string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if status != "" {
				status = strings.ToUpper(status)
				if err := validation.ValidateTaskStatus(status); err != nil {
					return err
				}
				q.Set("status", status)
			}
			if priority != "" {
				priority = strings.ToUpper(priority)
				if err := validation.ValidatePriority(priority); err != nil {
					return err
				}
				q.Set("priority", priority)
			}
			if tag != "" {
				q.Set("tag", tag)
			}
			path := "/api/v1/tasks"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			client, err := newClient(cmd.Context(), opts)
			if err != nil {
				return err
			}
			var resp handlers.ListTasksResponse
			if err := client.do(cmd.Context(), "GET", path, nil, &resp); err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			if resp.Total == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks")
				return nil
			}
			return printTasks(cmd.OutOrStdout(), resp.Tasks)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (TODO, IN_PROGRESS, REVIEW, DONE)")
	cmd.Flags().StringVar(&priority, "priority", "", "Filter by priority (LOW, MEDIUM, HIGH, CRITICAL)")
	cmd.Flags().StringVar(&tag, "tag", "", "Filter by tag")
	return cmd
}

func newTasksGetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context(), opts)
			if err != nil {
				return err
			}
			var task handlers.TaskView
			if err := client.do(cmd.Context(), "GET", "/api/v1/tasks/"+url.PathEscape(args[0]), nil, &task); err != nil {
				return err
			}
			return writeTask(cmd, opts, task)
		},
	}
}

func newTasksCreateCmd(opts *globalOptions) *cobra.Command {
	var (
		req      handlers.TaskRequest
		due      string
		subtasks []string
	)
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Title = args[0]
			req.Status = strings.ToUpper(req.Status)
			req.Priority = strings.ToUpper(req.Priority)
			if due != "" {
				d, err := time.Parse(time.DateOnly, due)
				if err != nil {
					return fmt.Errorf("invalid --due %q, want YYYY-MM-DD", due)
				}
				req.DueDate = &d
			}
			for _, title := range subtasks {
				req.Subtasks = append(req.Subtasks, handlers.SubtaskInput{Title: title})
			}
			if err := validation.Struct(req); err != nil {
				return err
			}

			client, err := newClient(cmd.Context(), opts)
			if err != nil {
				return err
			}
			var task handlers.TaskView
			if err := client.do(cmd.Context(), "POST", "/api/v1/tasks", req, &task); err != nil {
				return err
			}
			return writeTask(cmd, opts, task)
		},
	}
	cmd.Flags().StringVarP(&req.Description, "description", "d", "", "Task description")
	cmd.Flags().StringVar(&req.Status, "status", "", "Initial status (default TODO)")
	cmd.Flags().StringVarP(&req.Priority, "priority", "p", "", "Priority (default MEDIUM)")
	cmd.Flags().StringVar(&req.TagsText, "tags", "", "Comma separated tags")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringArrayVar(&subtasks, "subtask", nil, "Subtask title (repeatable)")
	return cmd
}

func newTasksMoveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Move a task to any status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := strings.ToUpper(args[1])
			if err := validation.ValidateTaskStatus(status); err != nil {
				return err
			}
			client, err := newClient(cmd.Context(), opts)
			if err != nil {
				return err
			}
			var task handlers.TaskView
			body := handlers.MoveRequest{Status: status}
			if err := client.do(cmd.Context(), "POST", "/api/v1/tasks/"+url.PathEscape(args[0])+"/move", body, &task); err != nil {
				return err
			}
			return writeMoved(cmd, opts, task)
		},
	}
}

func newTasksStepCmd(opts *globalOptions, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context(), opts)
			if err != nil {
				return err
			}
			var task handlers.TaskView
			if err := client.do(cmd.Context(), "POST", "/api/v1/tasks/"+url.PathEscape(args[0])+"/"+action, nil, &task); err != nil {
				return err
			}
			return writeMoved(cmd, opts, task)
		},
	}
}

func newTasksDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := client.do(cmd.Context(), "DELETE", "/api/v1/tasks/"+url.PathEscape(args[0]), nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func writeTask(cmd *cobra.Command, opts *globalOptions, task handlers.TaskView) error {
	if opts.output == "json" {
		return printJSON(cmd.OutOrStdout(), task)
	}
	return printTask(cmd.OutOrStdout(), task)
}

func writeMoved(cmd *cobra.Command, opts *globalOptions, task handlers.TaskView) error {
	if opts.output == "json" {
		return printJSON(cmd.OutOrStdout(), task)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", task.Title, task.Status.Label())
	return nil
}
