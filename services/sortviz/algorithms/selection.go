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

import "fmt"

// SelectionSort repeatedly selects the minimum of the unsorted suffix.
//
// Description:
//
//	For every position i the scan of i..n-1 is announced, each candidate
//	compared with the current minimum records a step (one comparison each)
//	and every new minimum records its own step. The placement of the minimum
//	is recorded as a swap, or as "already in correct position" without
//	counting a swap, followed by a step showing the grown sorted prefix.
type SelectionSort struct {
	runContext
}

// NewSelectionSort creates a SelectionSort over a copy of input.
func NewSelectionSort(input []float64, opts ...Option) *SelectionSort {
	return &SelectionSort{runContext: newRunContext(KindSelection, input, opts)}
}

// Run sorts the input. See Algorithm.Run.
func (s *SelectionSort) Run() []float64 {
	return s.execute(s.sort)
}

func (s *SelectionSort) sort() {
	n := len(s.work)
	s.snapshot("Starting Selection Sort", highlight(span(0, n-1)...))

	for i := 0; i < n; i++ {
		minIdx := i
		s.snapshot(fmt.Sprintf("Finding minimum in unsorted portion (indices %d-%d)", i, n-1),
			highlight(span(i, n-1)...),
			meta(MetaPhase, "scan"), meta("position", i), meta("current_min", minIdx))

		for j := i + 1; j < n; j++ {
			s.perf.addComparison()
			s.snapshot(fmt.Sprintf("Comparing arr[%d]=%s with current minimum arr[%d]=%s",
				j, FormatValue(s.work[j]), minIdx, FormatValue(s.work[minIdx])),
				compare(minIdx, j), highlight(span(i, n-1)...))

			if s.work[j] < s.work[minIdx] {
				minIdx = j
				s.snapshot(fmt.Sprintf("New minimum found: arr[%d]=%s", minIdx, FormatValue(s.work[minIdx])),
					highlight(minIdx), meta("current_min", minIdx))
			}
		}

		if minIdx != i {
			s.perf.addSwap()
			s.work[i], s.work[minIdx] = s.work[minIdx], s.work[i]
			s.snapshot(fmt.Sprintf("Swapping arr[%d]=%s with arr[%d]=%s",
				i, FormatValue(s.work[minIdx]), minIdx, FormatValue(s.work[i])),
				swapped(i, minIdx))
		} else {
			s.snapshot(fmt.Sprintf("Element arr[%d]=%s is already in correct position", i, FormatValue(s.work[i])),
				highlight(i))
		}

		s.snapshot(fmt.Sprintf("Sorted portion now includes indices 0-%d: %s", i, FormatValues(s.work[:i+1])),
			highlight(span(0, i)...), meta(MetaPhase, "sorted_prefix"), meta("position", i))
	}

	s.snapshot("Selection Sort Complete", highlight(span(0, n-1)...))
}
