package commands

import (
	"fmt"
	"strings"

	"github.com/benvon/vizflow/internal/store"
	"github.com/spf13/cobra"
)

func newStatsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context(), opts)
			if err != nil {
				return err
			}
			var stats store.Stats
			if err := client.do(cmd.Context(), "GET", "/api/v1/dashboard", nil, &stats); err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), stats)
			}

			out := cmd.OutOrStdout()
			tw := newTable(out)
			fmt.Fprintf(tw, "Total tasks:\t%d\n", stats.TotalTasks)
			fmt.Fprintf(tw, "In progress:\t%d\n", stats.InProgressTasks)
			fmt.Fprintf(tw, "Completed:\t%d (%.2f%%)\n", stats.CompletedTasks, stats.CompletionPercentage)
			fmt.Fprintf(tw, "High priority:\t%d\n", stats.HighPriorityTasks)
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintln(out, "\nBy status:")
			printBars(out, stats.StatusDistribution)
			fmt.Fprintln(out, "\nBy priority:")
			printBars(out, stats.PriorityBreakdown)
			return nil
		},
	}
}

func printBars(w interface{ Write([]byte) (int, error) }, points []store.ChartPoint) {
	tw := newTable(w)
	for _, p := range points {
		fmt.Fprintf(tw, "  %s\t%d\t%s\n", p.Label, p.Value, strings.Repeat("█", p.Value))
	}
	_ = tw.Flush()
}

func newBoardCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Show the task board by column",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context(), opts)
			if err != nil {
				return err
			}
			var board store.Board
			if err := client.do(cmd.Context(), "GET", "/api/v1/board", nil, &board); err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), board)
			}

			out := cmd.OutOrStdout()
			for _, col := range board.Columns {
				fmt.Fprintf(out, "== %s (%d) ==\n", col.Label, len(col.Cards))
				for _, card := range col.Cards {
					fmt.Fprintf(out, "  %-8s %s  [%s]  %s\n",
						card.Task.Priority, truncate(card.Task.Title, 50), card.Progress.Label, card.Task.ID)
				}
			}
			return nil
		},
	}
}
