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

// =============================================================================
// Step
// =============================================================================

// Step is one recorded moment of an algorithm run.
//
// Description:
//
//	Sequence numbers start at 1 and increase by one per step. ArrayState is
//	a full copy of the working array at the moment the step was recorded and
//	always has the same length as the original input. The three index sets
//	are never nil, contain no duplicates and only hold positions inside
//	ArrayState. Pivot is set only by partition-based algorithms.
//
// Thread Safety: Steps are never modified after they are recorded. Values
// returned by Algorithm.Steps are deep copies.
type Step struct {
	// Sequence is the 1-based position of the step in its trace.
	Sequence int `json:"step_number"`

	// Description explains the event in words ("comparing", "swapping", ...).
	Description string `json:"description"`

	// ArrayState is the working array at this instant.
	ArrayState []float64 `json:"array_state"`

	// Highlighted marks positions relevant to the event.
	Highlighted []int `json:"highlighted_indices"`

	// Compared marks positions whose values were just compared.
	Compared []int `json:"comparison_indices"`

	// Swapped marks positions that were just exchanged or written.
	Swapped []int `json:"swapped_indices"`

	// Pivot is the pivot position, or nil.
	Pivot *int `json:"pivot_index"`

	// Metadata holds optional algorithm-specific facts.
	Metadata Metadata `json:"metadata"`
}

// HasPivot reports whether the step carries a pivot position.
func (s Step) HasPivot() bool {
	return s.Pivot != nil
}

// PivotValue returns the pivot position, or -1 when there is none.
func (s Step) PivotValue() int {
	if s.Pivot == nil {
		return -1
	}
	return *s.Pivot
}

// Clone returns a deep copy of s.
func (s Step) Clone() Step {
	out := s
	out.ArrayState = cloneFloats(s.ArrayState)
	out.Highlighted = cloneInts(s.Highlighted)
	out.Compared = cloneInts(s.Compared)
	out.Swapped = cloneInts(s.Swapped)
	if s.Pivot != nil {
		p := *s.Pivot
		out.Pivot = &p
	}
	out.Metadata = s.Metadata.Clone()
	return out
}

// =============================================================================
// Step Options
// =============================================================================

// stepOption decorates a step before it is published.
type stepOption func(*Step)

func highlight(idx ...int) stepOption {
	return func(s *Step) { s.Highlighted = uniqueIndices(idx) }
}

func compare(idx ...int) stepOption {
	return func(s *Step) { s.Compared = uniqueIndices(idx) }
}

func swapped(idx ...int) stepOption {
	return func(s *Step) { s.Swapped = uniqueIndices(idx) }
}

func pivot(idx int) stepOption {
	return func(s *Step) {
		p := idx
		s.Pivot = &p
	}
}

func meta(key string, value any) stepOption {
	return func(s *Step) { s.Metadata.Set(key, value) }
}

// =============================================================================
// Helpers
// =============================================================================

// span returns the positions lo..hi inclusive. An empty range yields an
// empty, non-nil slice.
func span(lo, hi int) []int {
	if hi < lo {
		return []int{}
	}
	out := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, i)
	}
	return out
}

// uniqueIndices drops repeated positions, keeping first occurrences.
func uniqueIndices(idx []int) []int {
	out := make([]int, 0, len(idx))
	seen := make(map[int]struct{}, len(idx))
	for _, i := range idx {
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	return out
}

func cloneInts(in []int) []int {
	out := make([]int, len(in))
	copy(out, in)
	return out
}

func cloneFloats(in []float64) []float64 {
	out := make([]float64, len(in))
	copy(out, in)
	return out
}

// Metadata keys and phase values recorded by the algorithms.
const (
	MetaPhase = "phase"
	MetaLow   = "low"
	MetaHigh  = "high"
	MetaDepth = "depth"

	PhasePartitionComplete = "partition_complete"
)
