package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newMetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Flow metrics commands",
	}

	cmd.AddCommand(newMetricsItemCmd())
	cmd.AddCommand(newMetricsBoardCmd())
	return cmd
}

func newMetricsItemCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "item <id>",
		Short: "Show flow metrics for one item",
		Long:  "Computes time in each status, cycle time (first in-progress to\ndone), and lead time (first ready to done) from the item's recorded\nstatus history.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetricsItem(cmd, root, args[0])
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", ".", "repository root")
	return cmd
}

func runMetricsItem(cmd *cobra.Command, root, id string) error {
	_, svc, err := openService(root)
	if err != nil {
		return err
	}

	m, err := svc.FlowMetrics(id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Item:        %s\n", m.ItemID)
	fmt.Fprintf(out, "Transitions: %d\n", m.Transitions)
	fmt.Fprintf(out, "Cycle time:  %s\n", formatHours(m.CycleTimeHours.Value, m.CycleTimeHours.Valid))
	fmt.Fprintf(out, "Lead time:   %s\n", formatHours(m.LeadTimeHours.Value, m.LeadTimeHours.Valid))

	if len(m.TimeInStatus) > 0 {
		statuses := make([]string, 0, len(m.TimeInStatus))
		for s := range m.TimeInStatus {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)

		fmt.Fprintln(out, "\nTime in status:")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, s := range statuses {
			fmt.Fprintf(w, "  %s\t%.1fh\n", s, m.TimeInStatus[s])
		}
		w.Flush()
	}
	return nil
}

func newMetricsBoardCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show aggregate flow metrics for the board",
		Long:  "Averages cycle and lead time across all items. Items without any\nrecorded history are excluded from the averages.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetricsBoard(cmd, root)
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", ".", "repository root")
	return cmd
}

func runMetricsBoard(cmd *cobra.Command, root string) error {
	_, svc, err := openService(root)
	if err != nil {
		return err
	}

	m, err := svc.BoardMetrics()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Items:          %d (%d with history)\n", m.TotalItems, m.ItemsWithHistory)
	fmt.Fprintf(out, "Avg cycle time: %s\n", formatHours(m.AvgCycleTimeHours.Value, m.AvgCycleTimeHours.Valid))
	fmt.Fprintf(out, "Avg lead time:  %s\n", formatHours(m.AvgLeadTimeHours.Value, m.AvgLeadTimeHours.Valid))

	if len(m.TimeInStatus) > 0 {
		statuses := make([]string, 0, len(m.TimeInStatus))
		for s := range m.TimeInStatus {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)

		fmt.Fprintln(out, "\nTotal time in status:")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, s := range statuses {
			fmt.Fprintf(w, "  %s\t%.1fh\n", s, m.TimeInStatus[s])
		}
		w.Flush()
	}
	return nil
}
