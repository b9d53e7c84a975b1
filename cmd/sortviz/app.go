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
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/sortviz/pkg/logging"
	"github.com/AleutianAI/sortviz/services/sortviz"
	"github.com/AleutianAI/sortviz/services/sortviz/config"
	"github.com/AleutianAI/sortviz/services/sortviz/registry"
	"github.com/AleutianAI/sortviz/services/sortviz/render"
	"github.com/AleutianAI/sortviz/services/sortviz/storage/badger"
	"github.com/AleutianAI/sortviz/services/sortviz/storage/gcs"
	"github.com/AleutianAI/sortviz/services/sortviz/telemetry"
)

// Annotation keys read by app.setup.
const (
	// annotationServer marks commands that run as a long lived server. They
	// log at the configured level and keep the prometheus exporter.
	annotationServer = "sortviz/server"
)

// app holds the state shared by every command of one invocation.
type app struct {
	// Flags.
	configPath string
	logLevel   string
	color      string
	dataDir    string
	inMemory   bool

	cfg      config.Config
	logger   *logging.Logger
	metrics  *telemetry.Metrics
	registry *registry.Registry
	svc      *sortviz.Service
	db       *badger.DB
	uploader *gcs.Uploader

	closers []func(context.Context) error
}

// setup loads configuration and builds logging, telemetry and the service.
// Storage and GCS are opened on first use.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.color != "" {
		cfg.Render.Color = a.color
	}
	if a.dataDir != "" {
		cfg.Storage.Dir = a.dataDir
	}
	if a.inMemory {
		cfg.Storage.InMemory = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	server := cmd.Annotations[annotationServer] == "true"

	levelName := a.logLevel
	if levelName == "" {
		levelName = cfg.Logging.Level
		if !server {
			levelName = "warn"
		}
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	a.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "sortviz",
		JSON:    cfg.Logging.JSON,
		Output:  cmd.ErrOrStderr(),
	})
	a.logger.SetDefault()
	a.closers = append(a.closers, func(context.Context) error { return a.logger.Close() })

	tcfg := cfg.Telemetry
	if !server && tcfg.MetricExporter == telemetry.ExporterPrometheus {
		tcfg.MetricExporter = telemetry.ExporterNone
	}
	shutdown, err := telemetry.Init(cmd.Context(), tcfg)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, shutdown)

	a.metrics, err = telemetry.NewMetrics(otel.Meter(telemetry.TracerName))
	if err != nil {
		return err
	}

	a.registry, err = registry.New()
	if err != nil {
		return err
	}
	a.rebuild()
	return nil
}

// openStorage opens the trace store and rebuilds the service around it.
func (a *app) openStorage() error {
	if a.db != nil {
		return nil
	}
	bcfg := badger.InMemoryConfig()
	if !a.cfg.Storage.InMemory {
		dir, err := a.cfg.Storage.ResolvedDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create storage dir: %w", err)
		}
		bcfg = badger.DefaultConfig(dir)
	}
	bcfg.Logger = a.logger.Component("badger")

	db, err := badger.Open(bcfg)
	if err != nil {
		return err
	}
	a.db = db
	a.closers = append(a.closers, func(context.Context) error { return db.Close() })
	a.rebuild()
	return nil
}

// openPublisher connects to the configured GCS bucket.
func (a *app) openPublisher(ctx context.Context) (*gcs.Uploader, error) {
	if a.uploader != nil {
		return a.uploader, nil
	}
	if a.cfg.Storage.GCSBucket == "" {
		return nil, errors.New("no GCS bucket configured (storage.gcs_bucket or SORTVIZ_GCS_BUCKET)")
	}
	u, err := gcs.NewUploader(ctx, gcs.Config{
		Bucket:          a.cfg.Storage.GCSBucket,
		Prefix:          a.cfg.Storage.GCSPrefix,
		CredentialsFile: a.cfg.Storage.GCSCredentialsFile,
	})
	if err != nil {
		return nil, err
	}
	a.uploader = u
	a.closers = append(a.closers, func(context.Context) error { return u.Close() })
	a.rebuild()
	return u, nil
}

// rebuild recreates the service around whatever is open.
func (a *app) rebuild() {
	opts := []sortviz.Option{
		sortviz.WithMetrics(a.metrics),
		sortviz.WithLogger(a.logger.Component("sortviz")),
		sortviz.WithMaxInputSize(a.cfg.Limits.MaxInputSize),
	}
	if a.db != nil {
		opts = append(opts, sortviz.WithStore(badger.NewTraceStore(a.db,
			badger.WithMetrics(a.metrics),
			badger.WithLogger(a.logger.Component("traces")))))
	}
	if a.uploader != nil {
		opts = append(opts, sortviz.WithPublisher(a.uploader))
	}
	a.svc = sortviz.New(a.registry, opts...)
}

// close releases everything opened by setup, newest first.
func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// renderer returns a renderer for w honoring the color setting.
func (a *app) renderer(w io.Writer) *render.Renderer {
	return render.New(render.WithColor(useColor(a.cfg.Render.Color, w)))
}

// useColor resolves "auto", "always" and "never" against w.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isTerminal(w)
}

// isTerminal reports whether w is a terminal.
func isTerminal(w any) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (a *app) log() *slog.Logger {
	if a.logger == nil {
		return slog.Default()
	}
	return a.logger.Slog()
}
