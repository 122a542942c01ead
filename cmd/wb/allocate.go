package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAllocateCmd() *cobra.Command {
	var (
		root   string
		sync   bool
		commit bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "allocate <prefix-or-type>",
		Short: "Allocate the next available item ID",
		Long:  "Reserves the next free number for an ID prefix. With --sync the\nallocation is fetched against the remote, recorded in the shared\nledger, and pushed; a push rejection triggers a rebase-and-retry so\nconcurrent allocators on different clones never hand out the same ID.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAllocate(cmd, root, args[0], sync, commit, asJSON)
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", ".", "repository root")
	cmd.Flags().BoolVar(&sync, "sync", false, "fetch and push through the shared ledger")
	cmd.Flags().BoolVar(&commit, "commit", false, "record the claim in the ledger")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the result as JSON")
	return cmd
}

func runAllocate(cmd *cobra.Command, root, prefixOrType string, sync, commit, asJSON bool) error {
	_, svc, err := openService(root)
	if err != nil {
		return err
	}

	// Accept either a literal prefix ("EXP") or an item type ("epic").
	prefix := strings.ToUpper(prefixOrType)
	if svc.Theme().KnownType(strings.ToLower(prefixOrType)) {
		prefix = svc.Theme().Prefix(strings.ToLower(prefixOrType))
	}

	result, err := svc.AllocateNextID(cmd.Context(), prefix, sync, commit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if !result.Success {
		return fmt.Errorf("%s", result.Message)
	}
	fmt.Fprintf(out, "%s\n", result.ID)
	if result.Message != "" {
		fmt.Fprintf(out, "%s\n", result.Message)
	}
	return nil
}
