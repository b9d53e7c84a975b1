// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package algorithms

import "time"

// counters are the mutable performance counters of a run.
type counters struct {
	comparisons int
	swaps       int
	elapsed     time.Duration
}

func (c *counters) addComparison() { c.comparisons++ }
func (c *counters) addSwap()       { c.swaps++ }

// Performance is a snapshot of a run's counters.
//
// StepCount is derived from the trace length and cannot be set independently.
type Performance struct {
	Comparisons int           `json:"comparisons"`
	Swaps       int           `json:"swaps"`
	Elapsed     time.Duration `json:"elapsed_time_ns"`
	StepCount   int           `json:"step_count"`
}

// Summary is the flat report of a completed run.
type Summary struct {
	Algorithm     string        `json:"algorithm"`
	ArraySize     int           `json:"array_size"`
	ExecutionTime time.Duration `json:"execution_time_ns"`
	Comparisons   int           `json:"comparisons"`
	Swaps         int           `json:"swaps"`
	TotalSteps    int           `json:"total_steps"`
	Complexity    Info          `json:"complexity_info"`
}

// Summarize builds the Summary of a.
func Summarize(a Algorithm) Summary {
	p := a.Performance()
	return Summary{
		Algorithm:     a.Name(),
		ArraySize:     len(a.Input()),
		ExecutionTime: p.Elapsed,
		Comparisons:   p.Comparisons,
		Swaps:         p.Swaps,
		TotalSteps:    p.StepCount,
		Complexity:    a.Info(),
	}
}
