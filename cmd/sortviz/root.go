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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sortviz/services/sortviz/dataset"
)

// defaultInput is sorted when no data source flag is given.
var defaultInput = []float64{23, 95, 0, 58, 11, 76, 34, 100, 67, 49}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "sortviz",
		Short: "Step-by-step sorting algorithm visualizer",
		Long: `sortviz runs merge, quick, selection and priority queue sort over a
dataset, records every step they take, and prints, plays, compares,
stores or serves the resulting traces.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default $SORTVIZ_CONFIG or ./sortviz.yaml)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.color, "color", "", "color output: auto, always, never")
	pf.StringVar(&a.dataDir, "data-dir", "", "trace storage directory")
	pf.BoolVar(&a.inMemory, "in-memory", false, "keep traces in memory only")

	root.AddCommand(
		newListCmd(a),
		newInfoCmd(a),
		newRunCmd(a),
		newCompareCmd(a),
		newGenerateCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newTracesCmd(a),
		newPlayCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newInteractiveCmd(a),
	)
	return root
}

// runE wraps fn so everything opened by setup is released afterwards, even
// when fn fails.
func (a *app) runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := a.close(context.Background()); cerr != nil {
				err = errors.Join(err, cerr)
			}
		}()
		return fn(cmd, args)
	}
}

// =============================================================================
// Data Source Flags
// =============================================================================

// inputFlags selects the dataset of a command.
type inputFlags struct {
	data     string
	file     string
	generate int
	pattern  string
	min      int
	max      int
	seed     uint64
}

func (f *inputFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.data, "data", "d", "", `numbers to sort, e.g. "5,3,8,1"`)
	fs.StringVarP(&f.file, "file", "f", "", "file with one number per line")
	fs.IntVarP(&f.generate, "generate", "g", 0, "generate this many numbers")
	fs.StringVar(&f.pattern, "pattern", string(dataset.PatternRandom), "pattern for --generate")
	fs.IntVar(&f.min, "min", 1, "smallest generated value")
	fs.IntVar(&f.max, "max", 100, "largest generated value")
	fs.Uint64Var(&f.seed, "seed", 0, "seed for --generate (0 seeds from the clock)")
	cmd.MarkFlagsMutuallyExclusive("data", "file", "generate")
}

// resolve returns the dataset the flags describe, or the built-in sample
// when none is given.
func (f *inputFlags) resolve() ([]float64, error) {
	switch {
	case f.data != "":
		return dataset.ParseList(f.data)
	case f.file != "":
		return dataset.ReadFile(f.file)
	case f.generate > 0:
		pattern, err := dataset.ParsePattern(f.pattern)
		if err != nil {
			return nil, err
		}
		return dataset.Generate(dataset.Options{
			Size:    f.generate,
			Min:     f.min,
			Max:     f.max,
			Pattern: pattern,
			Seed:    f.seed,
		})
	case f.generate < 0:
		return nil, fmt.Errorf("--generate must be positive, got %d", f.generate)
	default:
		return append([]float64(nil), defaultInput...), nil
	}
}
