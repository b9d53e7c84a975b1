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
	"time"
)

// -----------------------------------------------------------------------------
// Algorithm Interface
// -----------------------------------------------------------------------------

// Kind identifies an algorithm family. Its value is the registry identifier.
type Kind string

const (
	KindMerge         Kind = "merge_sort"
	KindQuick         Kind = "quick_sort"
	KindSelection     Kind = "selection_sort"
	KindPriorityQueue Kind = "priority_queue_sort"
)

// Kinds returns every algorithm family in registry order.
func Kinds() []Kind {
	return []Kind{KindMerge, KindQuick, KindSelection, KindPriorityQueue}
}

// Algorithm is an instrumented sorting algorithm.
//
// Description:
//
//	An Algorithm owns its original input, a private working copy, the trace
//	of Steps produced by its last Run, and the counters of that run.
//
// Thread Safety: Not safe for concurrent use.
type Algorithm interface {
	// Name returns the display name.
	Name() string

	// Kind returns the algorithm family.
	Kind() Kind

	// Input returns a copy of the original input.
	Input() []float64

	// Run sorts the input and returns the sorted values.
	//
	// Description:
	//
	//   Run resets the instance first, so every call produces a complete
	//   trace for the original input. The sorting logic is deterministic;
	//   only the elapsed time varies between calls.
	//
	// Outputs:
	//   - []float64: The input in ascending order. Never nil.
	Run() []float64

	// Reset restores the original input and clears the trace and counters.
	Reset()

	// Info returns static complexity information. It never runs the sort.
	Info() Info

	// Steps returns a deep copy of the trace of the last run.
	Steps() []Step

	// Performance returns the counters of the last run.
	Performance() Performance
}

// Constructor builds an Algorithm over input.
type Constructor func(input []float64, opts ...Option) Algorithm

// -----------------------------------------------------------------------------
// Options
// -----------------------------------------------------------------------------

type options struct {
	name string
}

// Option configures an Algorithm at construction.
type Option func(*options)

// WithName overrides the display name.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// -----------------------------------------------------------------------------
// Run Context
// -----------------------------------------------------------------------------

// runContext is the state shared by every algorithm family.
type runContext struct {
	name  string
	kind  Kind
	input []float64
	work  []float64
	steps []Step
	perf  counters
}

func newRunContext(kind Kind, input []float64, opts []Option) runContext {
	o := options{name: LookupInfo(kind).DisplayName}
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = string(kind)
	}
	rc := runContext{
		name:  o.name,
		kind:  kind,
		input: cloneFloats(input),
	}
	rc.Reset()
	return rc
}

// Name returns the display name.
func (rc *runContext) Name() string { return rc.name }

// Kind returns the algorithm family.
func (rc *runContext) Kind() Kind { return rc.kind }

// Input returns a copy of the original input.
func (rc *runContext) Input() []float64 { return cloneFloats(rc.input) }

// Info returns the catalog entry for the algorithm family.
func (rc *runContext) Info() Info { return LookupInfo(rc.kind) }

// Reset restores the working copy and clears the trace and counters.
func (rc *runContext) Reset() {
	rc.work = cloneFloats(rc.input)
	rc.steps = nil
	rc.perf = counters{}
}

// Steps returns a deep copy of the trace.
func (rc *runContext) Steps() []Step {
	out := make([]Step, len(rc.steps))
	for i, s := range rc.steps {
		out[i] = s.Clone()
	}
	return out
}

// Performance returns the counters of the last run.
func (rc *runContext) Performance() Performance {
	return Performance{
		Comparisons: rc.perf.comparisons,
		Swaps:       rc.perf.swaps,
		Elapsed:     rc.perf.elapsed,
		StepCount:   len(rc.steps),
	}
}

// execute resets, times sort, and returns a copy of the working array.
// Empty input produces no steps.
func (rc *runContext) execute(sort func()) []float64 {
	rc.Reset()
	if len(rc.work) == 0 {
		return []float64{}
	}
	start := time.Now()
	sort()
	rc.perf.elapsed = time.Since(start)
	return cloneFloats(rc.work)
}

// record publishes a step built from a copy of state.
func (rc *runContext) record(description string, state []float64, opts ...stepOption) {
	s := Step{
		Sequence:    len(rc.steps) + 1,
		Description: description,
		ArrayState:  cloneFloats(state),
		Highlighted: []int{},
		Compared:    []int{},
		Swapped:     []int{},
	}
	for _, opt := range opts {
		opt(&s)
	}
	rc.steps = append(rc.steps, s)
}

// snapshot publishes a step of the current working array.
func (rc *runContext) snapshot(description string, opts ...stepOption) {
	rc.record(description, rc.work, opts...)
}
