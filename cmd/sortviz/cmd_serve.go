// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/sortviz/services/sortviz/server"
	"github.com/AleutianAI/sortviz/services/sortviz/telemetry"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the sortviz HTTP API under /v1/sortviz, including WebSocket step
streaming, until interrupted. Prometheus metrics are served at /metrics when
the prometheus metric exporter is enabled.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationServer: "true"},
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Address = addr
			}
			if err := a.openStorage(); err != nil {
				return err
			}
			if a.cfg.Storage.GCSBucket != "" {
				if _, err := a.openPublisher(cmd.Context()); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", a.cfg.Server.Address)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", a.cfg.Server.Address, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Serving on http://%s/v1/sortviz\n", ln.Addr())
			return a.serve(ctx, ln)
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

// serve runs the HTTP API on ln until ctx is done, then shuts down
// gracefully within the configured timeout.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	gin.SetMode(gin.ReleaseMode)

	var metricsHandler http.Handler
	if a.cfg.Telemetry.MetricExporter == telemetry.ExporterPrometheus {
		metricsHandler = telemetry.MetricsHandler()
	}
	handlers := server.NewHandlers(a.svc, server.Config{
		StepsPerSecond: a.cfg.Server.StepsPerSecond,
		StreamBurst:    a.cfg.Server.StreamBurst,
		Metrics:        a.metrics,
		Logger:         a.log(),
	})
	srv := &http.Server{
		Handler:           server.NewRouter(handlers, metricsHandler),
		ReadHeaderTimeout: a.cfg.Server.ReadHeaderTimeout,
	}

	logger := a.log()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server started", slog.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("HTTP server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
