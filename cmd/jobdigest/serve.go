package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"jobdigest-engine/internal/httpapi"
	"jobdigest-engine/internal/pipeline"
	"jobdigest-engine/internal/scheduler"
	"jobdigest-engine/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline on a schedule and serve the read API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, tzh, err := loadConfig()
	if err != nil {
		return err
	}

	// Separate read connection; the pipeline opens its own per run.
	db, err := store.Open(filepath.Join(cfg.App.DataDir, "jobs.db"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	p := pipeline.New(cfg, tzh, buildDigester(cfg, tzh))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	interval := time.Duration(cfg.Serve.IntervalMinutes) * time.Minute
	go scheduler.Every(ctx, interval, "pipeline", func(ctx context.Context) error {
		_, err := p.Run(ctx)
		return err
	})

	handler := httpapi.Handler(httpapi.Deps{
		DB:           db.Pool,
		Pipeline:     p,
		DefaultHours: cfg.Retention.LookbackHours,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	log.Printf("[serve] api listening on %s, pipeline every %s", srv.Addr, interval)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	log.Printf("[serve] shut down")
	return nil
}
