package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zulandar/waybill/internal/service"
)

func newItemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Work item commands",
	}

	cmd.AddCommand(newItemCreateCmd())
	cmd.AddCommand(newItemListCmd())
	cmd.AddCommand(newItemShowCmd())
	cmd.AddCommand(newItemMoveCmd())
	cmd.AddCommand(newItemUpdateCmd())
	cmd.AddCommand(newItemCommentCmd())
	cmd.AddCommand(newItemHistoryCmd())
	return cmd
}

func newItemCreateCmd() *cobra.Command {
	var (
		root        string
		title       string
		itemType    string
		priority    string
		assignee    string
		description string
		tags        []string
		sync        bool
		commit      bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new work item",
		Long:  "Creates a new work item file with an allocated ID. With --sync the ID\nis claimed through the shared allocation ledger so concurrent writers\nnever collide.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemCreate(cmd, root, service.CreateOpts{
				Title:       title,
				Type:        itemType,
				Priority:    priority,
				Assignee:    assignee,
				Description: description,
				Tags:        tags,
				Sync:        sync,
				Commit:      commit,
			})
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", ".", "repository root")
	cmd.Flags().StringVar(&title, "title", "", "item title (required)")
	cmd.Flags().StringVar(&itemType, "type", "task", "item type (feature, bug, epic, task, ...)")
	cmd.Flags().StringVar(&priority, "priority", "medium", "priority (critical, high, medium, low, backlog)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee")
	cmd.Flags().StringVar(&description, "description", "", "detailed description")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tags (repeatable)")
	cmd.Flags().BoolVar(&sync, "sync", false, "claim the ID through the shared ledger")
	cmd.Flags().BoolVar(&commit, "commit", false, "git-commit the new item file")
	cmd.MarkFlagRequired("title")
	return cmd
}

func runItemCreate(cmd *cobra.Command, root string, opts service.CreateOpts) error {
	_, svc, err := openService(root)
	if err != nil {
		return err
	}

	w, err := svc.CreateItem(cmd.Context(), opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s: %s\n", w.ID, w.Title)
	fmt.Fprintf(out, "File: %s\n", w.Path)
	return nil
}

func newItemListCmd() *cobra.Command {
	var (
		root     string
		status   string
		itemType string
		assignee string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work items",
		Long:  "Lists work items with optional filters, sorted by priority.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemList(cmd, root, service.Filters{
				Status:   status,
				Type:     itemType,
				Assignee: assignee,
			})
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", ".", "repository root")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&itemType, "type", "", "filter by type")
	cmd.Flags().StringVar(&assignee, "assignee", "", "filter by assignee")
	return cmd
}

func runItemList(cmd *cobra.Command, root string, filters service.Filters) error {
	_, svc, err := openService(root)
	if err != nil {
		return err
	}

	items, err := svc.Items(filters)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "No items found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tTYPE\tPRI\tASSIGNEE")
	for _, it := range items {
		a := it.Assignee
		if a == "" {
			a = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, truncate(it.Title, 40), it.Status, it.Type, it.Priority, a)
	}
	w.Flush()
	return nil
}

func newItemShowCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show item details",
		Long:  "Displays full details of a work item including description,\ndependencies, comments, and allowed next transitions.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemShow(cmd, root, args[0])
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", ".", "repository root")
	return cmd
}

func runItemShow(cmd *cobra.Command, root, id string) error {
	_, svc, err := openService(root)
	if err != nil {
		return err
	}

	w, err := svc.Item(id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:        %s\n", w.ID)
	fmt.Fprintf(out, "Title:     %s\n", w.Title)
	fmt.Fprintf(out, "Status:    %s\n", w.Status)
	fmt.Fprintf(out, "Type:      %s\n", w.Type)
	fmt.Fprintf(out, "Priority:  %s\n", w.Priority)
	if w.Assignee != "" {
		fmt.Fprintf(out, "Assignee:  %s\n", w.Assignee)
	}
	if !w.Created.IsZero() {
		fmt.Fprintf(out, "Created:   %s\n", w.Created.Format("2006-01-02"))
	}
	if !w.Updated.IsZero() {
		fmt.Fprintf(out, "Updated:   %s\n", w.Updated.Format("2006-01-02"))
	}
	if len(w.Tags) > 0 {
		fmt.Fprintf(out, "Tags:      %s\n", strings.Join(w.Tags, ", "))
	}
	if len(w.DependsOn) > 0 {
		fmt.Fprintf(out, "Depends:   %s\n", strings.Join(w.DependsOn, ", "))
	}
	if len(w.Blocks) > 0 {
		fmt.Fprintf(out, "Blocks:    %s\n", strings.Join(w.Blocks, ", "))
	}
	if w.Resolution != "" {
		fmt.Fprintf(out, "Resolved:  %s\n", w.Resolution)
	}
	fmt.Fprintf(out, "File:      %s\n", w.Path)

	if next := svc.AllowedTransitions(w); len(next) > 0 {
		fmt.Fprintf(out, "Next:      %s\n", strings.Join(next, ", "))
	}

	if w.Description != "" {
		fmt.Fprintf(out, "\n%s\n", w.Description)
	}
	if len(w.Comments) > 0 {
		fmt.Fprintln(out, "\nComments:")
		for _, c := range w.Comments {
			fmt.Fprintf(out, "  %s (%s): %s\n", c.Author, c.CreatedAt.Format("2006-01-02 15:04"), c.Content)
		}
	}
	return nil
}

func newItemMoveCmd() *cobra.Command {
	var (
		root     string
		assignee string
		message  string
		commit   bool
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Move an item to a new status",
		Long:  "Transitions a work item, enforcing the workflow's transition graph,\nguard rules, and the target column's WIP limit. --force skips\nworkflow validation but still records the change.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemMove(cmd, root, args[0], args[1], service.MoveOpts{
				Commit:   commit,
				Message:  message,
				Assignee: assignee,
				Validate: !force,
			})
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", ".", "repository root")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assign while moving")
	cmd.Flags().StringVarP(&message, "message", "m", "", "custom commit message")
	cmd.Flags().BoolVar(&commit, "commit", false, "git-commit the change")
	cmd.Flags().BoolVar(&force, "force", false, "skip workflow validation")
	return cmd
}

func runItemMove(cmd *cobra.Command, root, id, status string, opts service.MoveOpts) error {
	_, svc, err := openService(root)
	if err != nil {
		return err
	}

	w, err := svc.MoveItem(cmd.Context(), id, status, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\n", w.ID, w.Status)
	return nil
}

func newItemUpdateCmd() *cobra.Command {
	var (
		root        string
		title       string
		priority    string
		assignee    string
		description string
		tags        []string
		commit      bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update item properties",
		Long:  "Rewrites an item's properties in place. Status changes go through\n'wb item move' so the transition history stays accurate.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := service.UpdateOpts{Commit: commit}
			if cmd.Flags().Changed("title") {
				opts.Title = &title
			}
			if cmd.Flags().Changed("priority") {
				opts.Priority = &priority
			}
			if cmd.Flags().Changed("assignee") {
				opts.Assignee = &assignee
			}
			if cmd.Flags().Changed("description") {
				opts.Description = &description
			}
			if cmd.Flags().Changed("tag") {
				opts.Tags = &tags
			}
			return runItemUpdate(cmd, root, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", ".", "repository root")
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&priority, "priority", "", "new priority")
	cmd.Flags().StringVar(&assignee, "assignee", "", "new assignee (empty clears)")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "replacement tags (repeatable)")
	cmd.Flags().BoolVar(&commit, "commit", false, "git-commit the change")
	return cmd
}

func runItemUpdate(cmd *cobra.Command, root, id string, opts service.UpdateOpts) error {
	_, svc, err := openService(root)
	if err != nil {
		return err
	}

	w, err := svc.UpdateItem(cmd.Context(), id, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", w.ID)
	return nil
}

func newItemCommentCmd() *cobra.Command {
	var (
		root   string
		author string
		commit bool
	)

	cmd := &cobra.Command{
		Use:   "comment <id> <text>",
		Short: "Add a comment to an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemComment(cmd, root, args[0], args[1], author, commit)
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", ".", "repository root")
	cmd.Flags().StringVar(&author, "author", "", "comment author (defaults to git user)")
	cmd.Flags().BoolVar(&commit, "commit", false, "git-commit the change")
	return cmd
}

func runItemComment(cmd *cobra.Command, root, id, text, author string, commit bool) error {
	_, svc, err := openService(root)
	if err != nil {
		return err
	}

	w, err := svc.AddComment(cmd.Context(), id, text, author, commit)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Commented on %s\n", w.ID)
	return nil
}

func newItemHistoryCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Show an item's status history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemHistory(cmd, root, args[0])
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", ".", "repository root")
	return cmd
}

func runItemHistory(cmd *cobra.Command, root, id string) error {
	_, svc, err := openService(root)
	if err != nil {
		return err
	}

	history, err := svc.StatusHistory(id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(history) == 0 {
		fmt.Fprintf(out, "No recorded history for %s.\n", id)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tAT\tBY")
	for _, ch := range history {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ch.Status, ch.At.Format("2006-01-02 15:04"), ch.By)
	}
	w.Flush()
	return nil
}
