package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newWorkflowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Workflow inspection commands",
	}

	cmd.AddCommand(newWorkflowShowCmd())
	cmd.AddCommand(newWorkflowDiagramCmd())
	cmd.AddCommand(newWorkflowTransitionsCmd())
	return cmd
}

func newWorkflowShowCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "show [type]",
		Short: "Show the workflow for an item type",
		Long:  "Prints the states, transitions, and guard rules of the workflow\ngoverning an item type. Types without a declared workflow use the\nbuilt-in default.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemType := "feature"
			if len(args) > 0 {
				itemType = args[0]
			}
			return runWorkflowShow(cmd, root, itemType)
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", ".", "repository root")
	return cmd
}

func runWorkflowShow(cmd *cobra.Command, root, itemType string) error {
	_, svc, err := openService(root)
	if err != nil {
		return err
	}

	wf := svc.Workflow(itemType)
	out := cmd.OutOrStdout()
	appliesTo := wf.AppliesTo
	if appliesTo == "" {
		appliesTo = itemType
	}
	fmt.Fprintf(out, "Workflow: %s (applies to %s)\n", wf.Name, appliesTo)
	if wf.Source != "" {
		fmt.Fprintf(out, "Source:   %s\n", wf.Source)
	}

	fmt.Fprintln(out, "\nStates:")
	for _, st := range wf.States {
		marks := ""
		if st.IsInitial {
			marks += " [initial]"
		}
		if st.IsTerminal {
			marks += " [terminal]"
		}
		next := "none"
		if len(st.AllowedTransitions) > 0 {
			next = strings.Join(st.AllowedTransitions, ", ")
		}
		fmt.Fprintf(out, "  %s%s -> %s\n", st.ID, marks, next)
	}

	if len(wf.Rules) > 0 {
		fmt.Fprintln(out, "\nGuards:")
		for _, rule := range wf.Rules {
			fmt.Fprintf(out, "  entering %s: %s\n", rule.AppliesTo, rule.Message)
		}
	}
	return nil
}

func newWorkflowDiagramCmd() *cobra.Command {
	var (
		root   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "diagram [type]",
		Short: "Render the workflow as a diagram",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemType := "feature"
			if len(args) > 0 {
				itemType = args[0]
			}
			return runWorkflowDiagram(cmd, root, itemType, format)
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", ".", "repository root")
	cmd.Flags().StringVar(&format, "format", "mermaid", "diagram format (mermaid, ascii)")
	return cmd
}

func runWorkflowDiagram(cmd *cobra.Command, root, itemType, format string) error {
	_, svc, err := openService(root)
	if err != nil {
		return err
	}

	wf := svc.Workflow(itemType)
	switch format {
	case "mermaid":
		fmt.Fprintln(cmd.OutOrStdout(), wf.Mermaid())
	case "ascii":
		fmt.Fprintln(cmd.OutOrStdout(), wf.ASCII())
	default:
		return fmt.Errorf("unknown diagram format %q (want mermaid or ascii)", format)
	}
	return nil
}

func newWorkflowTransitionsCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "transitions <id>",
		Short: "Show an item's allowed next transitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflowTransitions(cmd, root, args[0])
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", ".", "repository root")
	return cmd
}

func runWorkflowTransitions(cmd *cobra.Command, root, id string) error {
	_, svc, err := openService(root)
	if err != nil {
		return err
	}

	w, err := svc.Item(id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	next := svc.AllowedTransitions(w)
	if len(next) == 0 {
		fmt.Fprintf(out, "%s is in %s with no outgoing transitions.\n", w.ID, w.Status)
		return nil
	}
	fmt.Fprintf(out, "%s (%s) can move to: %s\n", w.ID, w.Status, strings.Join(next, ", "))
	return nil
}
