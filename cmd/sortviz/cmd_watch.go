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
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/sortviz/services/sortviz/algorithms"
	"github.com/AleutianAI/sortviz/services/sortviz/dataset"
)

// defaultWatchDebounce collapses the burst of events an editor save makes.
const defaultWatchDebounce = 200 * time.Millisecond

func newWatchCmd(a *app) *cobra.Command {
	var (
		file     string
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch [algorithm...]",
		Short: "Re-run algorithms whenever a dataset file changes",
		Long: `Watch a dataset file and compare the named algorithms, or all of them,
every time it is saved. Stop with Ctrl+C.`,
		Example: `  sortviz watch --file numbers.txt
  sortviz watch merge_sort quick_sort -f numbers.txt`,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return errors.New("--file is required")
			}
			if !fileExists(file) {
				return fmt.Errorf("dataset file %s does not exist", file)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			r := a.renderer(out)
			runOnce := func() {
				values, err := dataset.ReadFile(file)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
					return
				}
				report, err := a.svc.Compare(ctx, args, values)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
					return
				}
				fmt.Fprintf(out, "[%s] %s: %s\n\n", time.Now().Format(time.TimeOnly), file, algorithms.FormatValues(values))
				fmt.Fprintln(out, r.ComparisonTable(report))
				fmt.Fprintln(out)
			}

			runOnce()
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", file)
			err := watchFile(ctx, file, debounce, a.log(), runOnce)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}),
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "dataset file to watch")
	cmd.Flags().DurationVar(&debounce, "debounce", defaultWatchDebounce, "quiet period before re-running")
	return cmd
}

// watchFile calls onChange after path is written or created, once per burst
// of events. It blocks until ctx is done.
//
// The parent directory is watched rather than the file, so editors that
// save by replacing the file are still seen.
func watchFile(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("dataset changed", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			timer.Reset(debounce)

		case <-timer.C:
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", slog.String("error", err.Error()))
		}
	}
}
