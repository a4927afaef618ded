package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cgrad/internal/neuron"
	"cgrad/internal/server"
	"cgrad/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the training and expression API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdownTelemetry, err := telemetry.Init(ctx, a.telemetryConfig())
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdownTelemetry(context.Background()); err != nil {
					a.logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
				}
			}()

			trainer, err := neuron.NewTrainer(a.cfg.Training.Options(), a.logger)
			if err != nil {
				return err
			}
			api := server.New(trainer,
				server.WithLogger(a.logger),
				server.WithMetricsHandler(telemetry.MetricsHandler()),
			)

			srv := &http.Server{
				Addr:              a.cfg.Server.Addr,
				Handler:           api.Handler(),
				ReadTimeout:       a.cfg.Server.ReadTimeout,
				ReadHeaderTimeout: a.cfg.Server.ReadTimeout,
			}
			return serve(ctx, srv, a.logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

// serve runs srv until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
