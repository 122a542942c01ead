package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zulandar/waybill/internal/config"
	"github.com/zulandar/waybill/internal/theme"
)

func newInitCmd() *cobra.Command {
	var themeName string

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Initialize a waybill repository",
		Long:  "Creates the .kanban directory with a starter config, a workflows\ndirectory, and the work item tree.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, themeName)
		},
	}

	cmd.Flags().StringVar(&themeName, "theme", "software", fmt.Sprintf("board theme (%s)", strings.Join(theme.Names(), ", ")))
	return cmd
}

func runInit(cmd *cobra.Command, dir, themeName string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve dir: %w", err)
	}

	cfgPath := filepath.Join(abs, configFileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	for _, sub := range []string{".kanban/workflows", "work"} {
		if err := os.MkdirAll(filepath.Join(abs, sub), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", sub, err)
		}
	}

	cfg, err := config.Parse([]byte("theme: " + themeName))
	if err != nil {
		return err
	}
	if err := cfg.Save(cfgPath); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized waybill repository in %s\n", abs)
	fmt.Fprintf(out, "Theme:  %s\n", cfg.Theme)
	fmt.Fprintf(out, "Config: %s\n", cfgPath)
	return nil
}
