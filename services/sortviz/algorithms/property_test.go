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

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func toFloats(in []int) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func propertyParameters() *gopter.TestParameters {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.MaxSize = 24
	return parameters
}

// TestProperty_SortsAndTracesAreWellFormed checks every algorithm against
// sort.Float64s and the trace invariants.
func TestProperty_SortsAndTracesAreWellFormed(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	for _, nc := range allConstructors() {
		nc := nc
		properties.Property(string(nc.kind)+" sorts and records a valid trace", prop.ForAll(
			func(values []int) bool {
				input := toFloats(values)
				algo := nc.ctor(input)
				got := algo.Run()

				want := sortedCopy(input)
				if len(got) != len(want) {
					return false
				}
				for i := range want {
					if got[i] != want[i] {
						return false
					}
				}
				return traceViolation(input, algo.Steps()) == ""
			},
			gen.SliceOf(gen.IntRange(-20, 20)),
		))
	}

	properties.TestingRun(t)
}

// TestProperty_RerunIsDeterministic checks counters across repeated runs.
func TestProperty_RerunIsDeterministic(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	for _, nc := range allConstructors() {
		nc := nc
		properties.Property(string(nc.kind)+" reports identical counters on rerun", prop.ForAll(
			func(values []int) bool {
				algo := nc.ctor(toFloats(values))
				algo.Run()
				first := algo.Performance()
				algo.Run()
				second := algo.Performance()
				return first.Comparisons == second.Comparisons &&
					first.Swaps == second.Swaps &&
					first.StepCount == second.StepCount
			},
			gen.SliceOf(gen.IntRange(-20, 20)),
		))
	}

	properties.TestingRun(t)
}

// TestProperty_QuickSortPartitions checks every completed partition.
func TestProperty_QuickSortPartitions(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("partition complete steps split around the pivot", prop.ForAll(
		func(values []int) bool {
			algo := NewQuickSort(toFloats(values))
			algo.Run()
			return partitionViolation(algo.Steps()) == ""
		},
		gen.SliceOf(gen.IntRange(-20, 20)),
	))

	properties.TestingRun(t)
}
