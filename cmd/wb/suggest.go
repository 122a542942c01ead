package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSuggestCmd() *cobra.Command {
	var (
		root     string
		assignee string
	)

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest the next item to work on",
		Long:  "Picks the highest-priority ready item, preferring items already\nassigned to the given assignee.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggest(cmd, root, assignee)
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", ".", "repository root")
	cmd.Flags().StringVar(&assignee, "assignee", "", "prefer items assigned to this person")
	return cmd
}

func runSuggest(cmd *cobra.Command, root, assignee string) error {
	_, svc, err := openService(root)
	if err != nil {
		return err
	}

	w, err := svc.SuggestNext(assignee)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if w == nil {
		fmt.Fprintln(out, "Nothing is ready to work on.")
		return nil
	}
	fmt.Fprintf(out, "%s  %s  [%s]\n", w.ID, w.Title, w.Priority)
	return nil
}
