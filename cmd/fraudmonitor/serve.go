package main

import (
	"context"
	"fraud_monitor/internal/app"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and notification workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.bootstrap(os.Stdout)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), a)
		},
	}
}

func runServer(ctx context.Context, a *app.App) error {
	logger := a.Logger
	cfg := a.Config
	logger.Info("Starting application",
		slog.String("version", Version),
		slog.String("storage", cfg.Storage.Driver))

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = a.Metrics.StartMetricsServer(cfg.Metrics.Addr)
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      a.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", slog.String("error", err.Error()))
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	}
	if err := a.Metrics.Shutdown(shutdownCtx, metricsServer); err != nil {
		logger.Error("Metrics server shutdown failed", slog.String("error", err.Error()))
	}
	if err := a.Shutdown(shutdownCtx); err != nil {
		logger.Error("Application shutdown failed", slog.String("error", err.Error()))
	}

	logger.Info("Application shutdown complete")
	return runErr
}
