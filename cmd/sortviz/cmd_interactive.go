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
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/sortviz/services/sortviz/algorithms"
	"github.com/AleutianAI/sortviz/services/sortviz/dataset"
)

// Menu actions.
const (
	actionRun     = "run"
	actionCompare = "compare"
	actionList    = "list"
	actionQuit    = "quit"
)

// Data sources.
const (
	sourceSample   = "sample"
	sourceManual   = "manual"
	sourceFile     = "file"
	sourceGenerate = "generate"
)

// session is one pass through the interactive menu.
type session struct {
	action    string
	algorithm string
	source    string
	manual    string
	file      string
	size      string
	steps     bool
}

func newInteractiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "interactive",
		Short:   "Pick algorithms and data from menus",
		Aliases: []string{"i"},
		Args:    cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			if err := requireTTY(cmd); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for {
				s, err := a.askSession()
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				if err != nil {
					return err
				}
				if s.action == actionQuit {
					fmt.Fprintln(out, "Goodbye!")
					return nil
				}
				if err := a.runSession(cmd.Context(), out, s); err != nil {
					fmt.Fprintf(out, "Error: %v\n", err)
				}
				fmt.Fprintln(out)
			}
		}),
	}
}

// askSession shows the menu forms and returns the answers.
func (a *app) askSession() (session, error) {
	s := session{source: sourceSample, size: "10"}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("What would you like to do?").
			Options(
				huh.NewOption("Run a single algorithm", actionRun),
				huh.NewOption("Compare all algorithms", actionCompare),
				huh.NewOption("List available algorithms", actionList),
				huh.NewOption("Exit", actionQuit),
			).
			Value(&s.action),
	)).Run(); err != nil {
		return s, err
	}
	if s.action == actionList || s.action == actionQuit {
		return s, nil
	}

	var groups []*huh.Group
	if s.action == actionRun {
		opts := make([]huh.Option[string], 0, len(a.registry.Entries()))
		for _, e := range a.registry.Entries() {
			opts = append(opts, huh.NewOption(e.Info.DisplayName, e.ID))
		}
		groups = append(groups, huh.NewGroup(
			huh.NewSelect[string]().Title("Algorithm").Options(opts...).Value(&s.algorithm),
			huh.NewConfirm().Title("Show every step?").Value(&s.steps),
		))
	}
	groups = append(groups,
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Data").
				Options(
					huh.NewOption("Sample data", sourceSample),
					huh.NewOption("Enter numbers", sourceManual),
					huh.NewOption("Load from file", sourceFile),
					huh.NewOption("Generate random data", sourceGenerate),
				).
				Value(&s.source),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Numbers").
				Placeholder("5, 3, 8, 1").
				Validate(func(v string) error { _, err := dataset.ParseList(v); return err }).
				Value(&s.manual),
		).WithHideFunc(func() bool { return s.source != sourceManual }),
		huh.NewGroup(
			huh.NewInput().
				Title("File").
				Validate(func(v string) error {
					if !fileExists(v) {
						return fmt.Errorf("%s is not a file", v)
					}
					return nil
				}).
				Value(&s.file),
		).WithHideFunc(func() bool { return s.source != sourceFile }),
		huh.NewGroup(
			huh.NewInput().
				Title("How many numbers?").
				Validate(func(v string) error {
					n, err := strconv.Atoi(v)
					if err != nil || n < 1 {
						return errors.New("enter a positive whole number")
					}
					return nil
				}).
				Value(&s.size),
		).WithHideFunc(func() bool { return s.source != sourceGenerate }),
	)
	err := huh.NewForm(groups...).Run()
	return s, err
}

// input resolves the session's data source.
func (s session) input() ([]float64, error) {
	switch s.source {
	case sourceManual:
		return dataset.ParseList(s.manual)
	case sourceFile:
		return dataset.ReadFile(s.file)
	case sourceGenerate:
		n, err := strconv.Atoi(s.size)
		if err != nil {
			return nil, fmt.Errorf("invalid size %q", s.size)
		}
		opts := dataset.DefaultOptions()
		opts.Size = n
		opts.Min = 1
		return dataset.Generate(opts)
	default:
		return append([]float64(nil), defaultInput...), nil
	}
}

// runSession carries out one menu choice.
func (a *app) runSession(ctx context.Context, out io.Writer, s session) error {
	r := a.renderer(out)
	if s.action == actionList {
		fmt.Fprintf(out, "Available algorithms (%d):\n", len(a.registry.Entries()))
		for i, e := range a.registry.Entries() {
			fmt.Fprintf(out, "%d. %s (%s)\n", i+1, e.Info.DisplayName, e.ID)
		}
		return nil
	}

	values, err := s.input()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Input: %s\n\n", algorithms.FormatValues(values))

	switch s.action {
	case actionRun:
		result, err := a.svc.Run(ctx, s.algorithm, values)
		if err != nil {
			return err
		}
		sum := result.Document.Summary.RunSummary()
		fmt.Fprintf(out, "Sorted: %s\n\n", algorithms.FormatValues(result.Sorted))
		if s.steps {
			return r.Trace(out, sum, result.Document.Steps, a.cfg.Render.MaxSteps)
		}
		fmt.Fprintln(out, r.Summary(sum))
	case actionCompare:
		report, err := a.svc.Compare(ctx, nil, values)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, r.ComparisonTable(report))
	default:
		return fmt.Errorf("unknown action %q", s.action)
	}
	return nil
}
