package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zulandar/waybill/internal/mirror"
	"github.com/zulandar/waybill/internal/service"
)

func newMirrorCmd() *cobra.Command {
	var (
		root     string
		itemID   string
		status   string
		itemType string
	)

	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Mirror work items to GitHub issues",
		Long:  "Creates or updates one GitHub issue per work item in the configured\nrepository. Done items close their issues. The token is read from the\nenvironment variable named in the config (default GITHUB_TOKEN).",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMirror(cmd, root, itemID, service.Filters{Status: status, Type: itemType})
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", ".", "repository root")
	cmd.Flags().StringVar(&itemID, "item", "", "mirror only this item")
	cmd.Flags().StringVar(&status, "status", "", "mirror only items with this status")
	cmd.Flags().StringVar(&itemType, "type", "", "mirror only items of this type")
	return cmd
}

func runMirror(cmd *cobra.Command, root, itemID string, filters service.Filters) error {
	cfg, svc, err := openService(root)
	if err != nil {
		return err
	}

	if cfg.GitHub.Owner == "" || cfg.GitHub.Repo == "" {
		return fmt.Errorf("github owner and repo must be set in %s", configFileName)
	}
	token := os.Getenv(cfg.GitHub.TokenEnv)
	if token == "" {
		return fmt.Errorf("no token in $%s", cfg.GitHub.TokenEnv)
	}

	ctx := cmd.Context()
	m := mirror.New(ctx, cfg.GitHub.Owner, cfg.GitHub.Repo, token)

	out := cmd.OutOrStdout()
	if itemID != "" {
		w, err := svc.Item(itemID)
		if err != nil {
			return err
		}
		num, err := m.SyncItem(ctx, w)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Mirrored %s to %s/%s#%d\n", w.ID, cfg.GitHub.Owner, cfg.GitHub.Repo, num)
		return nil
	}

	items, err := svc.Items(filters)
	if err != nil {
		return err
	}
	synced, err := m.SyncAll(ctx, items)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Mirrored %d items to %s/%s\n", synced, cfg.GitHub.Owner, cfg.GitHub.Repo)
	return nil
}
