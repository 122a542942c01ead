// Package dashboard serves the board over HTTP: a JSON API backed by
// the sqlite index, a server-sent-events stream for live updates, and
// a single HTML page. The index is rebuilt on a cron schedule so the
// page tracks edits made outside the CLI.
package dashboard

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/zulandar/waybill/internal/index"
	"github.com/zulandar/waybill/internal/service"
)

//go:embed templates/*.html
var templatesFS embed.FS

// cronParser uses standard 5-field cron expressions.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	DB          *gorm.DB
	Service     *service.Service
	Port        int
	ReindexCron string // empty disables scheduled reindexing
	Out         io.Writer
}

// Start launches the dashboard HTTP server. It blocks until ctx is
// cancelled, then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("dashboard: db is required")
	}
	if opts.Service == nil {
		return fmt.Errorf("dashboard: service is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	if err := reindex(opts.DB, opts.Service); err != nil {
		return err
	}
	if opts.ReindexCron != "" {
		go runReindexLoop(ctx, opts)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("dashboard: parse templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	registerRoutes(router, opts.DB, opts.Service)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Board running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// reindex rescans the repository and rebuilds the sqlite index.
func reindex(db *gorm.DB, svc *service.Service) error {
	items, err := svc.Scan()
	if err != nil {
		return fmt.Errorf("dashboard: reindex scan: %w", err)
	}
	if err := index.Rebuild(db, items); err != nil {
		return fmt.Errorf("dashboard: reindex: %w", err)
	}
	return nil
}

// runReindexLoop reindexes on the configured cron schedule until the
// context is cancelled.
func runReindexLoop(ctx context.Context, opts StartOpts) {
	sched, err := cronParser.Parse(opts.ReindexCron)
	if err != nil {
		log.Printf("dashboard: bad reindex cron %q: %v", opts.ReindexCron, err)
		return
	}
	for {
		next := sched.Next(time.Now())
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
			if err := reindex(opts.DB, opts.Service); err != nil {
				log.Printf("dashboard: %v", err)
			}
		}
	}
}
