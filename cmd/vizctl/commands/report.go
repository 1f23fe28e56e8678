package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/benvon/vizflow/internal/handlers"
	"github.com/benvon/vizflow/internal/models"
	"github.com/benvon/vizflow/internal/services/ai"
	"github.com/spf13/cobra"
)

func newReportCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate and read weekly reports",
	}
	cmd.AddCommand(newReportGenerateCmd(opts))
	cmd.AddCommand(newReportShowCmd(opts))
	cmd.AddCommand(newReportHistoryCmd(opts))
	return cmd
}

func newReportGenerateCmd(opts *globalOptions) *cobra.Command {
	var (
		wait     bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Start generating a weekly report",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context(), opts)
			if err != nil {
				return err
			}
			var accepted handlers.GenerateReportResponse
			if err := client.do(cmd.Context(), "POST", "/api/v1/ai/reports", nil, &accepted); err != nil {
				return err
			}
			if !wait {
				fmt.Fprintf(cmd.OutOrStdout(), "Report %s is being generated\n", accepted.ReportID)
				return nil
			}

			report, err := pollReport(cmd.Context(), client, accepted.ReportID, interval)
			if err != nil {
				return err
			}
			return writeReport(cmd, opts, *report)
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for the report and print it")
	cmd.Flags().DurationVar(&interval, "poll-interval", time.Second, "Polling interval with --wait")
	return cmd
}

// pollReport waits until the latest report carries id
func pollReport(ctx context.Context, client *Client, id string, interval time.Duration) (*models.WeeklyReport, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		var status ai.ReportStatus
		if err := client.do(ctx, "GET", "/api/v1/ai/reports/latest", nil, &status); err != nil {
			return nil, err
		}
		if status.Latest != nil && status.Latest.ID == id {
			return status.Latest, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func newReportShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the most recent report",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context(), opts)
			if err != nil {
				return err
			}
			var status ai.ReportStatus
			if err := client.do(cmd.Context(), "GET", "/api/v1/ai/reports/latest", nil, &status); err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), status)
			}
			if status.InFlight {
				fmt.Fprintf(cmd.OutOrStdout(), "A report is being generated (%s)\n\n", status.PendingID)
			}
			if status.Latest == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No report generated yet")
				return nil
			}
			return writeReport(cmd, opts, *status.Latest)
		},
	}
}

func newReportHistoryCmd(opts *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context(), opts)
			if err != nil {
				return err
			}
			var resp struct {
				Reports []models.WeeklyReport `json:"reports"`
				Count   int                   `json:"count"`
			}
			path := "/api/v1/ai/reports?limit=" + strconv.Itoa(limit)
			if err := client.do(cmd.Context(), "GET", path, nil, &resp); err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tGENERATED\tTASKS\tDONE\tIN PROGRESS\tFALLBACK")
			for _, r := range resp.Reports {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%t\n",
					r.ID, r.GeneratedAt.Format(time.RFC3339), r.TotalTasks, r.CompletedTasks, r.InProgressTasks, r.Fallback)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of reports")
	return cmd
}

func writeReport(cmd *cobra.Command, opts *globalOptions, r models.WeeklyReport) error {
	if opts.output == "json" {
		return printJSON(cmd.OutOrStdout(), r)
	}
	return printReport(cmd.OutOrStdout(), r)
}

func printReport(w io.Writer, r models.WeeklyReport) error {
	_, err := fmt.Fprintf(w, "Weekly report %s (%s)\n\n%s\n", r.ID, r.GeneratedAt.Format(time.RFC1123), r.Content)
	return err
}
