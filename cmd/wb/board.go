package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zulandar/waybill/internal/models"
)

func newBoardCmd() *cobra.Command {
	var (
		root     string
		asJSON   bool
		assignee string
	)

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the kanban board",
		Long:  "Renders the board grouped by column with WIP limits, or emits the\nfull board state as JSON for scripting.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cmd, root, assignee, asJSON)
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", ".", "repository root")
	cmd.Flags().StringVar(&assignee, "assignee", "", "only show items for this assignee")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit board state as JSON")
	return cmd
}

// boardJSON is the scripting-facing shape of the board.
type boardJSON struct {
	Name    string            `json:"name"`
	Columns []boardColumnJSON `json:"columns"`
	Total   int               `json:"total_items"`
}

type boardColumnJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	WIPLimit int             `json:"wip_limit,omitempty"`
	OverWIP  bool            `json:"over_wip"`
	Items    []boardItemJSON `json:"items"`
}

type boardItemJSON struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Assignee string `json:"assignee,omitempty"`
}

func runBoard(cmd *cobra.Command, root, assignee string, asJSON bool) error {
	_, svc, err := openService(root)
	if err != nil {
		return err
	}

	board, err := svc.Board()
	if err != nil {
		return err
	}

	if assignee != "" {
		filtered := board.Items[:0]
		for _, it := range board.Items {
			if it.Assignee == assignee {
				filtered = append(filtered, it)
			}
		}
		board.Items = filtered
	}

	if asJSON {
		return writeBoardJSON(cmd, board)
	}
	return writeBoardText(cmd, board)
}

func writeBoardJSON(cmd *cobra.Command, board *models.Board) error {
	counts := board.ColumnCounts()
	out := boardJSON{Name: board.Name, Total: len(board.Items)}
	for _, col := range board.Columns {
		status := board.StatusMap[col.ID]
		cj := boardColumnJSON{
			ID:       col.ID,
			Name:     col.Name,
			WIPLimit: col.WIPLimit,
			OverWIP:  col.OverWIP(counts[col.ID]),
			Items:    []boardItemJSON{},
		}
		for _, it := range board.ItemsByStatus(status) {
			cj.Items = append(cj.Items, boardItemJSON{
				ID:       it.ID,
				Title:    it.Title,
				Type:     it.Type,
				Priority: it.Priority,
				Assignee: it.Assignee,
			})
		}
		out.Columns = append(out.Columns, cj)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeBoardText(cmd *cobra.Command, board *models.Board) error {
	out := cmd.OutOrStdout()
	width := terminalWidth()
	counts := board.ColumnCounts()

	fmt.Fprintf(out, "%s (%d items)\n", board.Name, len(board.Items))

	for _, col := range board.Columns {
		count := counts[col.ID]
		header := fmt.Sprintf("%s (%d", col.Name, count)
		if col.WIPLimit > 0 {
			header += fmt.Sprintf("/%d", col.WIPLimit)
		}
		header += ")"
		if col.OverWIP(count) {
			header += "  ⚠ over WIP limit"
		}
		fmt.Fprintf(out, "\n%s\n%s\n", header, strings.Repeat("-", min(len(header), width)))

		status := board.StatusMap[col.ID]
		items := board.ItemsByStatus(status)
		if len(items) == 0 {
			fmt.Fprintln(out, "  (empty)")
			continue
		}
		for _, it := range items {
			line := fmt.Sprintf("  %s  %s", it.ID, it.Title)
			if it.Assignee != "" {
				line += fmt.Sprintf("  @%s", it.Assignee)
			}
			fmt.Fprintln(out, truncate(line, width))
		}
	}
	return nil
}

// terminalWidth returns the stdout width, or 100 when stdout is not a
// terminal (pipes, tests).
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 100
	}
	return w
}
