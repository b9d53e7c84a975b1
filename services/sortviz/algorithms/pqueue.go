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
	"container/heap"
	"fmt"
)

// PriorityQueueSort builds a min-heap and extracts the minimum n times.
//
// Description:
//
//	Steps are recorded before and after the heap is built, then once per
//	extraction. An extraction step shows the sorted result so far followed
//	by the remaining heap, with the newly extracted position marked as
//	swapped and the heap highlighted.
//
//	Comparisons and swaps inside the heap are not counted. The counters of
//	this algorithm therefore stay at zero.
type PriorityQueueSort struct {
	runContext
}

// NewPriorityQueueSort creates a PriorityQueueSort over a copy of input.
func NewPriorityQueueSort(input []float64, opts ...Option) *PriorityQueueSort {
	return &PriorityQueueSort{runContext: newRunContext(KindPriorityQueue, input, opts)}
}

// Run sorts the input. See Algorithm.Run.
func (p *PriorityQueueSort) Run() []float64 {
	return p.execute(p.sort)
}

func (p *PriorityQueueSort) sort() {
	n := len(p.work)
	p.snapshot("Starting Priority Queue Sort (using min-heap)", highlight(span(0, n-1)...))

	p.snapshot("Building min-heap from array", meta(MetaPhase, "heapify"))
	h := minHeap(cloneFloats(p.work))
	heap.Init(&h)
	copy(p.work, h)
	p.snapshot("Min-heap built", highlight(span(0, n-1)...), meta(MetaPhase, "heap_built"))

	result := make([]float64, 0, n)
	for len(h) > 0 {
		v := heap.Pop(&h).(float64)
		result = append(result, v)
		copy(p.work, result)
		copy(p.work[len(result):], h)
		p.snapshot(fmt.Sprintf("Extracted minimum: %s (heap size now %d)", FormatValue(v), len(h)),
			swapped(len(result)-1),
			highlight(span(len(result), n-1)...),
			meta(MetaPhase, "extract"), meta("heap_size", len(h)))
	}

	p.snapshot("Priority Queue Sort Complete", highlight(span(0, n-1)...))
}

// =============================================================================
// Min-Heap
// =============================================================================

// minHeap is a min-heap of values for container/heap. The slice itself is
// the heap array, so its layout can be copied into a step.
type minHeap []float64

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *minHeap) Push(x any) { *h = append(*h, x.(float64)) }

func (h *minHeap) Pop() any {
	old := *h
	n := len(old) - 1
	v := old[n]
	*h = old[:n]
	return v
}
