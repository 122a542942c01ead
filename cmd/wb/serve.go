package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zulandar/waybill/internal/dashboard"
	"github.com/zulandar/waybill/internal/index"
	"github.com/zulandar/waybill/internal/notify"
)

func newServeCmd() *cobra.Command {
	var (
		root string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board dashboard",
		Long:  "Starts the dashboard HTTP server: a live board page, a JSON API,\nand a server-sent-events stream. The item index is rebuilt on the\nconfigured cron schedule.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, root, port)
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", ".", "repository root")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, root string, port int) error {
	cfg, svc, err := openService(root)
	if err != nil {
		return err
	}

	if cfg.Notify.Command != "" || cfg.Notify.SlackWebhook != "" || cfg.Notify.DiscordWebhook.ID != "" {
		svc.SetNotifier(notify.New(cfg.Notify))
	}

	db, err := index.Open(filepath.Join(root, ".kanban", "index.db"))
	if err != nil {
		return err
	}

	if port == 0 {
		port = cfg.Dashboard.Port
	}

	return dashboard.Start(cmd.Context(), dashboard.StartOpts{
		DB:          db,
		Service:     svc,
		Port:        port,
		ReindexCron: cfg.Dashboard.ReindexCron,
		Out:         cmd.OutOrStdout(),
	})
}
