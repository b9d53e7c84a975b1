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

// QuickSort is a quick sort using Lomuto partitioning around the last
// element of each range.
//
// Description:
//
//	Each partition records the pivot choice, one step per candidate compared
//	against the pivot, a swap step (or an "already in place" step for a
//	self-swap) for every candidate moved to the low side, the pivot placement
//	and a "partition complete" step. Recursive calls on non-empty sub-ranges
//	are announced before they start. Comparisons count once per candidate;
//	swaps count actual exchanges only.
type QuickSort struct {
	runContext
}

// NewQuickSort creates a QuickSort over a copy of input.
func NewQuickSort(input []float64, opts ...Option) *QuickSort {
	return &QuickSort{runContext: newRunContext(KindQuick, input, opts)}
}

// Run sorts the input. See Algorithm.Run.
func (q *QuickSort) Run() []float64 {
	return q.execute(func() {
		q.snapshot("Starting Quick Sort", highlight(span(0, len(q.work)-1)...))
		q.sortRange(0, len(q.work)-1, 0)
		q.snapshot("Quick Sort Complete", highlight(span(0, len(q.work)-1)...))
	})
}

func (q *QuickSort) sortRange(low, high, depth int) {
	if low >= high {
		return
	}
	p := q.partition(low, high, depth)
	if p > low {
		q.snapshot(fmt.Sprintf("Recursively sorting left subarray (indices %d-%d)", low, p-1),
			highlight(span(low, p-1)...),
			meta(MetaPhase, "recurse"), meta(MetaLow, low), meta(MetaHigh, p-1), meta(MetaDepth, depth+1))
		q.sortRange(low, p-1, depth+1)
	}
	if p < high {
		q.snapshot(fmt.Sprintf("Recursively sorting right subarray (indices %d-%d)", p+1, high),
			highlight(span(p+1, high)...),
			meta(MetaPhase, "recurse"), meta(MetaLow, p+1), meta(MetaHigh, high), meta(MetaDepth, depth+1))
		q.sortRange(p+1, high, depth+1)
	}
}

// partition places work[high] at its final position within low..high and
// returns that position.
func (q *QuickSort) partition(low, high, depth int) int {
	pv := q.work[high]
	q.snapshot(fmt.Sprintf("Choosing pivot: %s at index %d", FormatValue(pv), high),
		pivot(high), highlight(span(low, high)...),
		meta(MetaPhase, "pivot"), meta(MetaLow, low), meta(MetaHigh, high), meta(MetaDepth, depth))

	i := low - 1
	for j := low; j < high; j++ {
		q.perf.addComparison()
		q.snapshot(fmt.Sprintf("Comparing arr[%d]=%s with pivot %s", j, FormatValue(q.work[j]), FormatValue(pv)),
			pivot(high), compare(j, high), highlight(i+1))

		if q.work[j] > pv {
			continue
		}
		i++
		if i == j {
			q.snapshot(fmt.Sprintf("arr[%d]=%s <= pivot, already in correct relative position", j, FormatValue(q.work[j])),
				pivot(high), highlight(j))
			continue
		}
		q.perf.addSwap()
		q.work[i], q.work[j] = q.work[j], q.work[i]
		q.snapshot(fmt.Sprintf("Swapping arr[%d]=%s with arr[%d]=%s (moving smaller element left)",
			i, FormatValue(q.work[i]), j, FormatValue(q.work[j])),
			pivot(high), swapped(i, j))
	}

	final := i + 1
	if final != high {
		q.perf.addSwap()
		q.work[final], q.work[high] = q.work[high], q.work[final]
		q.snapshot(fmt.Sprintf("Placing pivot %s in final position %d", FormatValue(pv), final),
			pivot(final), swapped(final, high))
	} else {
		q.snapshot(fmt.Sprintf("Pivot %s already in correct position %d", FormatValue(pv), final),
			pivot(final))
	}

	q.snapshot(fmt.Sprintf("Partition complete: elements <= %s are left of index %d, elements > %s are right",
		FormatValue(pv), final, FormatValue(pv)),
		pivot(final),
		highlight(append(span(low, final-1), span(final+1, high)...)...),
		meta(MetaPhase, PhasePartitionComplete), meta(MetaLow, low), meta(MetaHigh, high), meta(MetaDepth, depth))
	return final
}
