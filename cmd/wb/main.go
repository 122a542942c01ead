package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zulandar/waybill/internal/config"
	"github.com/zulandar/waybill/internal/service"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const configFileName = ".kanban/config.yaml"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wb",
		Short: "Waybill — text-file kanban tracking",
		Long:  "Waybill tracks work items as markdown files in a git repository,\nwith per-type workflows, WIP limits, and conflict-safe ID allocation.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newItemCmd())
	cmd.AddCommand(newBoardCmd())
	cmd.AddCommand(newWorkflowCmd())
	cmd.AddCommand(newAllocateCmd())
	cmd.AddCommand(newMetricsCmd())
	cmd.AddCommand(newSuggestCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMirrorCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wb %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// openService loads the repository config and opens a service rooted
// at the given directory ("." resolves to the working directory).
func openService(root string) (*config.Config, *service.Service, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve root: %w", err)
	}
	cfg, err := config.Load(filepath.Join(abs, configFileName))
	if err != nil {
		return nil, nil, err
	}
	svc, err := service.Open(abs, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, svc, nil
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
