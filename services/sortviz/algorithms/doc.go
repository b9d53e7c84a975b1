// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package algorithms provides instrumented sorting algorithms for sortviz.
//
// Each algorithm sorts a private working copy of its input and records an
// ordered trace of Step values describing every comparison, swap, partition
// decision and merge placement it performs. The trace is intended to be
// replayed by renderers, so every Step carries a full snapshot of the working
// array rather than a diff.
//
// # Algorithms
//
//   - MergeSort: top-down merge sort, one step per placement
//   - QuickSort: Lomuto partition around the last element
//   - SelectionSort: minimum scan over the unsorted suffix
//   - PriorityQueueSort: min-heap build followed by repeated extraction
//
// # Re-running
//
// Run always starts from the original input. It resets the working copy, the
// trace and the counters before executing, so calling Run twice produces two
// identical traces rather than one concatenated trace.
//
// # Counters
//
// Comparisons and swaps are counted by merge, quick and selection sort.
// PriorityQueueSort does not count the comparisons or swaps performed inside
// its heap; its counters stay at zero and are not comparable to the others.
//
// # Thread Safety
//
// Algorithm instances are not safe for concurrent use. Step and Performance
// values returned by accessors are copies and may be shared freely.
package algorithms
