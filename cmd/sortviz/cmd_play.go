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
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/sortviz/services/sortviz/traceio"
	"github.com/AleutianAI/sortviz/services/sortviz/tui"
)

// errNoTTY is returned by interactive commands run without a terminal.
var errNoTTY = errors.New("this command needs an interactive terminal")

// requireTTY fails unless both ends of cmd are terminals.
func requireTTY(cmd *cobra.Command) error {
	if !isTerminal(cmd.InOrStdin()) || !isTerminal(cmd.OutOrStdout()) {
		return errNoTTY
	}
	return nil
}

func newPlayCmd(a *app) *cobra.Command {
	var (
		input     inputFlags
		traceFile string
		traceID   string
		interval  time.Duration
		autoplay  bool
	)
	cmd := &cobra.Command{
		Use:   "play [algorithm]",
		Short: "Step through a trace in the terminal",
		Long: `Open an interactive player over a trace. The trace comes from running
an algorithm, from a trace file (--trace-file) or from storage (--trace).

Keys: ←/→ step, home/end jump, space plays and pauses, +/- change speed,
? shows all keys, q quits.`,
		Example: `  sortviz play quick_sort --generate 15
  sortviz play --trace-file quick.json --autoplay`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			if err := requireTTY(cmd); err != nil {
				return err
			}
			doc, err := a.playDocument(cmd, args, input, traceFile, traceID)
			if err != nil {
				return err
			}
			return tui.Run(doc.Summary.RunSummary(), doc.Steps, tui.PlayerConfig{
				Interval: interval,
				Color:    useColor(a.cfg.Render.Color, cmd.OutOrStdout()),
				Autoplay: autoplay,
			}, tea.WithAltScreen(), tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
		}),
	}
	input.register(cmd)
	cmd.Flags().StringVar(&traceFile, "trace-file", "", "play a trace document file")
	cmd.Flags().StringVar(&traceID, "trace", "", "play a stored trace")
	cmd.Flags().DurationVar(&interval, "interval", tui.DefaultPlayerConfig().Interval, "delay between steps while playing")
	cmd.Flags().BoolVar(&autoplay, "autoplay", false, "start playing immediately")
	cmd.MarkFlagsMutuallyExclusive("trace-file", "trace")
	return cmd
}

// playDocument picks the trace to play from the arguments.
func (a *app) playDocument(cmd *cobra.Command, args []string, input inputFlags, traceFile, traceID string) (traceio.Document, error) {
	sources := 0
	for _, set := range []bool{len(args) > 0, traceFile != "", traceID != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return traceio.Document{}, errors.New("give exactly one of an algorithm, --trace-file or --trace")
	}

	switch {
	case traceFile != "":
		return a.loadDocument(cmd.Context(), traceFile)
	case traceID != "":
		if err := a.openStorage(); err != nil {
			return traceio.Document{}, err
		}
		return a.svc.LoadTrace(cmd.Context(), traceID)
	default:
		values, err := input.resolve()
		if err != nil {
			return traceio.Document{}, err
		}
		result, err := a.svc.Run(cmd.Context(), args[0], values)
		if err != nil {
			return traceio.Document{}, err
		}
		return result.Document, nil
	}
}
