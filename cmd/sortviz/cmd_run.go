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
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sortviz/services/sortviz/algorithms"
	"github.com/AleutianAI/sortviz/services/sortviz/compare"
	"github.com/AleutianAI/sortviz/services/sortviz/traceio"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List the available algorithms",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTIME\tSPACE\tSTABLE")
			for _, e := range a.registry.Entries() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					e.ID, e.Info.DisplayName, e.Info.TimeComplexity, e.Info.SpaceComplexity, e.Info.Stability)
			}
			return tw.Flush()
		}),
	}
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <algorithm>",
		Short: "Describe an algorithm",
		Args:  cobra.ExactArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			info, err := a.registry.Info(args[0])
			if err != nil {
				return fmt.Errorf("%w (available: %s)", err, strings.Join(a.registry.Available(), ", "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.renderer(cmd.OutOrStdout()).Info(info))
			return nil
		}),
	}
}

func newRunCmd(a *app) *cobra.Command {
	var (
		input    inputFlags
		steps    bool
		maxSteps int
		asJSON   bool
		save     bool
	)
	cmd := &cobra.Command{
		Use:   "run <algorithm>",
		Short: "Run one algorithm and print its result",
		Long: `Run one algorithm over a dataset. With --steps every recorded step is
printed with the compared, swapped and pivot positions marked.`,
		Example: `  sortviz run quick_sort --data "5,3,8,1"
  sortviz run merge_sort --generate 20 --pattern reverse --steps
  sortviz run selection_sort --file numbers.txt --json > trace.json`,
		Args: cobra.ExactArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			values, err := input.resolve()
			if err != nil {
				return err
			}
			result, err := a.svc.Run(cmd.Context(), args[0], values)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if save {
				if err := a.openStorage(); err != nil {
					return err
				}
				meta, err := a.svc.SaveTrace(cmd.Context(), result.Document)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved trace %s\n", meta.ID)
			}
			if asJSON {
				return traceio.Encode(out, result.Document)
			}

			sum := result.Document.Summary.RunSummary()
			r := a.renderer(out)
			fmt.Fprintf(out, "=== Running %s ===\n", sum.Algorithm)
			fmt.Fprintf(out, "Input:  %s\n", algorithms.FormatValues(values))
			fmt.Fprintf(out, "Sorted: %s\n\n", algorithms.FormatValues(result.Sorted))
			if steps {
				limit := maxSteps
				if !cmd.Flags().Changed("max-steps") {
					limit = a.cfg.Render.MaxSteps
				}
				return r.Trace(out, sum, result.Document.Steps, limit)
			}
			fmt.Fprintln(out, r.Summary(sum))
			return nil
		}),
	}
	input.register(cmd)
	cmd.Flags().BoolVarP(&steps, "steps", "s", false, "print every step")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "print at most this many steps (0 prints all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the trace document as JSON")
	cmd.Flags().BoolVar(&save, "save", false, "store the trace")
	return cmd
}

func newCompareCmd(a *app) *cobra.Command {
	var (
		input  inputFlags
		metric string
	)
	cmd := &cobra.Command{
		Use:   "compare [algorithm...]",
		Short: "Run several algorithms over the same data and rank them",
		Long: `Run the named algorithms, or all of them when none are named, over the
same dataset and rank them by execution time, comparisons, swaps and steps.`,
		Example: `  sortviz compare --generate 100
  sortviz compare merge_sort quick_sort --data "9,8,7,6,5" --metric swaps`,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			m, err := compare.ParseMetric(metric)
			if err != nil {
				return err
			}
			values, err := input.resolve()
			if err != nil {
				return err
			}
			report, err := a.svc.Compare(cmd.Context(), args, values)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Input: %s\n\n", algorithms.FormatValues(values))
			fmt.Fprintln(out, a.renderer(out).ComparisonTable(report))
			if ranking := report.Rankings[m]; len(ranking) > 0 {
				fmt.Fprintf(out, "\nBest by %s: %s\n", m, ranking[0])
			}
			return nil
		}),
	}
	input.register(cmd)
	cmd.Flags().StringVar(&metric, "metric", string(compare.MetricExecutionTime), "metric for the best algorithm line")
	return cmd
}
