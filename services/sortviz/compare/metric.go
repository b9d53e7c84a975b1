// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package compare

import (
	"fmt"
	"strings"
	"time"

	"github.com/AleutianAI/sortviz/services/sortviz/algorithms"
)

// Metric names a ranking dimension. Lower values rank first for every metric.
type Metric string

const (
	MetricExecutionTime Metric = "execution_time"
	MetricComparisons   Metric = "comparisons"
	MetricSwaps         Metric = "swaps"
	MetricTotalSteps    Metric = "total_steps"
)

// Metrics returns every ranking metric in report order.
func Metrics() []Metric {
	return []Metric{MetricExecutionTime, MetricComparisons, MetricSwaps, MetricTotalSteps}
}

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool {
	for _, known := range Metrics() {
		if m == known {
			return true
		}
	}
	return false
}

// ParseMetric validates a metric name.
//
// Outputs:
//   - Metric: The metric.
//   - error: ErrInvalidMetric if name is not recognized.
func ParseMetric(name string) (Metric, error) {
	m := Metric(strings.TrimSpace(name))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q (must be one of %v)", ErrInvalidMetric, name, Metrics())
	}
	return m, nil
}

// value extracts m from a result.
func (m Metric) value(elapsed time.Duration, perf algorithms.Performance) int64 {
	switch m {
	case MetricExecutionTime:
		return int64(elapsed)
	case MetricComparisons:
		return int64(perf.Comparisons)
	case MetricSwaps:
		return int64(perf.Swaps)
	case MetricTotalSteps:
		return int64(perf.StepCount)
	default:
		return 0
	}
}
