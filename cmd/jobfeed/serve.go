package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobfeed/internal/filter"
	"github.com/amishk599/jobfeed/internal/metrics"
	"github.com/amishk599/jobfeed/internal/scheduler"
	"github.com/amishk599/jobfeed/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the import scheduler",
	Long:  "Serve the jobs API and import on the configured schedule; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg, logger := a.cfg, a.logger

	logger.Info("config loaded",
		"port", cfg.Server.Port,
		"schedule", cfg.Import.Schedule,
		"store", cfg.Store.Driver,
		"notification", cfg.Notification.Type,
	)

	repo, err := a.store(ctx)
	if err != nil {
		return err
	}
	sources, err := a.sources(ctx)
	if err != nil {
		return err
	}
	n, err := a.notifier(ctx)
	if err != nil {
		return err
	}
	pipeline, err := a.pipeline(ctx, sources, repo, n)
	if err != nil {
		return err
	}
	sched, err := scheduler.NewScheduler(pipeline, cfg.Import.Schedule, cfg.Import.RunOnStart, logger)
	if err != nil {
		return err
	}

	metrics.Register(prometheus.DefaultRegisterer)
	engine := filter.NewEngine(repo, cfg.Store.Timeout, logger)
	handlers := server.NewHandlers(pipeline, engine, a.readSources(sources), logger)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.NewRouter(handlers, logger, server.Config{AllowedOrigins: cfg.Server.AllowedOrigins}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("goodbye")
	return err
}
