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
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sortviz/services/sortviz/dataset"
	"github.com/AleutianAI/sortviz/services/sortviz/storage/gcs"
	"github.com/AleutianAI/sortviz/services/sortviz/traceio"
)

func newGenerateCmd(a *app) *cobra.Command {
	opts := dataset.DefaultOptions()
	var (
		pattern string
		output  string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a dataset",
		Example: `  sortviz generate -n 50 --pattern nearly_sorted -o numbers.txt
  sortviz generate -n 10 --seed 42`,
		Args: cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			p, err := dataset.ParsePattern(pattern)
			if err != nil {
				return err
			}
			opts.Pattern = p
			values, err := dataset.Generate(opts)
			if err != nil {
				return err
			}
			if output == "" {
				return dataset.Write(cmd.OutOrStdout(), values)
			}
			if err := dataset.SaveFile(output, values); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d numbers to %s\n", len(values), output)
			return nil
		}),
	}
	fs := cmd.Flags()
	fs.IntVarP(&opts.Size, "size", "n", opts.Size, "number of values")
	fs.IntVar(&opts.Min, "min", 1, "smallest value")
	fs.IntVar(&opts.Max, "max", opts.Max, "largest value")
	fs.Uint64Var(&opts.Seed, "seed", 0, "seed (0 seeds from the clock)")
	fs.StringVar(&pattern, "pattern", string(dataset.PatternRandom), "one of "+patternNames())
	fs.StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func patternNames() string {
	names := make([]string, 0, len(dataset.Patterns()))
	for _, p := range dataset.Patterns() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

func newExportCmd(a *app) *cobra.Command {
	var (
		input   inputFlags
		traceID string
		output  string
		publish string
	)
	cmd := &cobra.Command{
		Use:   "export [algorithm]",
		Short: "Write a trace document to a file or GCS",
		Long: `Run an algorithm, or load a stored trace with --trace, and write the
trace document as JSON. --output writes a file ("-" for stdout), --publish
uploads it to the configured GCS bucket under the given name.`,
		Example: `  sortviz export quick_sort --data "3,1,2" -o quick.json
  sortviz export --trace 6f1c... --publish runs/quick`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var doc traceio.Document
			switch {
			case traceID != "" && len(args) > 0:
				return errors.New("give either an algorithm or --trace, not both")
			case traceID != "":
				if err := a.openStorage(); err != nil {
					return err
				}
				loaded, err := a.svc.LoadTrace(ctx, traceID)
				if err != nil {
					return err
				}
				doc = loaded
			case len(args) == 1:
				values, err := input.resolve()
				if err != nil {
					return err
				}
				result, err := a.svc.Run(ctx, args[0], values)
				if err != nil {
					return err
				}
				doc = result.Document
			default:
				return errors.New("an algorithm or --trace is required")
			}

			if publish != "" {
				if _, err := a.openPublisher(ctx); err != nil {
					return err
				}
				uri, err := a.svc.Publish(ctx, publish, doc)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Published %s\n", uri)
			}
			switch output {
			case "":
				if publish != "" {
					return nil
				}
				fallthrough
			case "-":
				return traceio.Encode(cmd.OutOrStdout(), doc)
			default:
				if err := traceio.ExportFile(output, doc); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d steps to %s\n", len(doc.Steps), output)
				return nil
			}
		}),
	}
	input.register(cmd)
	cmd.Flags().StringVar(&traceID, "trace", "", "export a stored trace")
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file ("-" for stdout)`)
	cmd.Flags().StringVar(&publish, "publish", "", "upload to GCS under this name")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var (
		store    bool
		steps    bool
		maxSteps int
	)
	cmd := &cobra.Command{
		Use:   "import <file | gs://bucket/object>",
		Short: "Load and validate a trace document",
		Long: `Read a trace document from a file or GCS, validate it against the trace
schema, and print its summary. --store adds it to local trace storage.`,
		Args: cobra.ExactArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := a.loadDocument(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			sum := doc.Summary.RunSummary()
			r := a.renderer(out)
			if steps {
				limit := maxSteps
				if !cmd.Flags().Changed("max-steps") {
					limit = a.cfg.Render.MaxSteps
				}
				if err := r.Trace(out, sum, doc.Steps, limit); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, r.Summary(sum))
			}

			if store {
				if err := a.openStorage(); err != nil {
					return err
				}
				meta, err := a.svc.SaveTrace(ctx, doc)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\nStored as %s\n", meta.ID)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&store, "store", false, "add the trace to local storage")
	cmd.Flags().BoolVarP(&steps, "steps", "s", false, "print the steps")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "print at most this many steps (0 prints all)")
	return cmd
}

// loadDocument reads a trace from a file or a gs:// URI.
func (a *app) loadDocument(ctx context.Context, source string) (traceio.Document, error) {
	if !strings.HasPrefix(source, "gs://") {
		return traceio.ImportFile(source)
	}
	bucket, _, err := gcs.ParseURI(source)
	if err != nil {
		return traceio.Document{}, err
	}
	if a.cfg.Storage.GCSBucket == "" {
		a.cfg.Storage.GCSBucket = bucket
	}
	u, err := a.openPublisher(ctx)
	if err != nil {
		return traceio.Document{}, err
	}
	return u.Download(ctx, source)
}

func newTracesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "traces",
		Short: "Manage stored traces",
	}

	list := &cobra.Command{
		Use:     "list",
		Short:   "List stored traces, oldest first",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			if err := a.openStorage(); err != nil {
				return err
			}
			metas, err := a.svc.ListTraces(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(metas) == 0 {
				fmt.Fprintln(out, "No stored traces.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tALGORITHM\tSIZE\tSTEPS\tCOMPARISONS\tSWAPS\tCREATED")
			for _, m := range metas {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
					m.ID, m.Algorithm, m.ArraySize, m.TotalSteps, m.Comparisons, m.Swaps,
					m.CreatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		}),
	}

	var steps bool
	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored trace",
		Args:  cobra.ExactArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			if err := a.openStorage(); err != nil {
				return err
			}
			doc, err := a.svc.LoadTrace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			r := a.renderer(out)
			sum := doc.Summary.RunSummary()
			if steps {
				return r.Trace(out, sum, doc.Steps, a.cfg.Render.MaxSteps)
			}
			fmt.Fprintln(out, r.Summary(sum))
			return nil
		}),
	}
	show.Flags().BoolVarP(&steps, "steps", "s", false, "print the steps")

	del := &cobra.Command{
		Use:     "delete <id>...",
		Short:   "Delete stored traces",
		Aliases: []string{"rm"},
		Args:    cobra.MinimumNArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			if err := a.openStorage(); err != nil {
				return err
			}
			for _, id := range args {
				if err := a.svc.DeleteTrace(cmd.Context(), id); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			}
			return nil
		}),
	}

	cmd.AddCommand(list, show, del)
	return cmd
}

// fileExists reports whether path names an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
