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

// MergeSort is a top-down merge sort.
//
// Description:
//
//	Every split records a step highlighting the range being divided. Each
//	merge records a start step, one step per placement marking the two
//	compared source positions and the written position, one step per drained
//	element, and a final step marking the merged range. Comparisons count
//	once per pairwise comparison. Merging writes values rather than
//	exchanging them, so swaps stay at zero.
type MergeSort struct {
	runContext
}

// NewMergeSort creates a MergeSort over a copy of input.
func NewMergeSort(input []float64, opts ...Option) *MergeSort {
	return &MergeSort{runContext: newRunContext(KindMerge, input, opts)}
}

// Run sorts the input. See Algorithm.Run.
func (m *MergeSort) Run() []float64 {
	return m.execute(func() {
		m.snapshot("Starting Merge Sort", highlight(span(0, len(m.work)-1)...))
		m.sortRange(0, len(m.work)-1, 0)
		m.snapshot("Merge Sort Complete", highlight(span(0, len(m.work)-1)...))
	})
}

func (m *MergeSort) sortRange(left, right, depth int) {
	if left >= right {
		return
	}
	mid := (left + right) / 2
	m.snapshot(fmt.Sprintf("Dividing subarray at indices %d-%d (mid=%d)", left, right, mid),
		highlight(span(left, right)...),
		meta(MetaPhase, "divide"), meta("left", left), meta("right", right), meta("mid", mid), meta(MetaDepth, depth))

	m.sortRange(left, mid, depth+1)
	m.sortRange(mid+1, right, depth+1)
	m.merge(left, mid, right, depth)

	m.snapshot(fmt.Sprintf("Merged subarray [%d-%d]: %s", left, right, FormatValues(m.work[left:right+1])),
		swapped(span(left, right)...),
		meta(MetaPhase, "merged"), meta("left", left), meta("right", right), meta(MetaDepth, depth))
}

func (m *MergeSort) merge(left, mid, right, depth int) {
	lhs := cloneFloats(m.work[left : mid+1])
	rhs := cloneFloats(m.work[mid+1 : right+1])

	m.snapshot(fmt.Sprintf("Merging sorted subarrays: %s and %s", FormatValues(lhs), FormatValues(rhs)),
		highlight(span(left, right)...),
		meta(MetaPhase, "merge"), meta("left", left), meta("mid", mid), meta("right", right), meta(MetaDepth, depth))

	li, ri, pos := 0, 0, left
	for li < len(lhs) && ri < len(rhs) {
		m.perf.addComparison()
		cmp := compare(left+li, mid+1+ri)
		if lhs[li] <= rhs[ri] {
			m.work[pos] = lhs[li]
			m.snapshot(fmt.Sprintf("Placing %s from left subarray at position %d", FormatValue(lhs[li]), pos),
				cmp, swapped(pos), meta("source", "left"))
			li++
		} else {
			m.work[pos] = rhs[ri]
			m.snapshot(fmt.Sprintf("Placing %s from right subarray at position %d", FormatValue(rhs[ri]), pos),
				cmp, swapped(pos), meta("source", "right"))
			ri++
		}
		pos++
	}
	for ; li < len(lhs); li++ {
		m.work[pos] = lhs[li]
		m.snapshot(fmt.Sprintf("Adding remaining element %s from left at position %d", FormatValue(lhs[li]), pos),
			swapped(pos), meta("source", "left"))
		pos++
	}
	for ; ri < len(rhs); ri++ {
		m.work[pos] = rhs[ri]
		m.snapshot(fmt.Sprintf("Adding remaining element %s from right at position %d", FormatValue(rhs[ri]), pos),
			swapped(pos), meta("source", "right"))
		pos++
	}
}
