// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package compare runs several algorithms over the same input and ranks them.
package compare

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/AleutianAI/sortviz/services/sortviz/algorithms"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("sortviz.compare")

// -----------------------------------------------------------------------------
// Result
// -----------------------------------------------------------------------------

// Result is one completed algorithm held by a Comparator.
//
// Thread Safety: Treat Algorithm as read-only.
type Result struct {
	// Name is the display name the result is stored under.
	Name string

	// Algorithm is the completed instance.
	Algorithm algorithms.Algorithm

	// Elapsed is the execution time used for ranking. AddAlgorithm measures
	// it around Run; AddResult takes it from the algorithm's counters.
	Elapsed time.Duration
}

// Summary returns the flat performance summary of r.
func (r Result) Summary() algorithms.Summary {
	s := algorithms.Summarize(r.Algorithm)
	s.Algorithm = r.Name
	s.ExecutionTime = r.Elapsed
	return s
}

// -----------------------------------------------------------------------------
// Report
// -----------------------------------------------------------------------------

// Report is the outcome of a comparison.
//
// A report of an empty comparator has no summaries and no rankings.
type Report struct {
	DatasetSize int                  `json:"dataset_size"`
	Algorithms  []algorithms.Summary `json:"algorithms"`
	Rankings    map[Metric][]string  `json:"rankings"`
}

// Empty reports whether the report holds no results.
func (r Report) Empty() bool {
	return len(r.Algorithms) == 0
}

// Summary returns the summary stored under name.
func (r Report) Summary(name string) (algorithms.Summary, bool) {
	for _, s := range r.Algorithms {
		if s.Algorithm == name {
			return s, true
		}
	}
	return algorithms.Summary{}, false
}

// -----------------------------------------------------------------------------
// Comparator
// -----------------------------------------------------------------------------

// Option configures a Comparator.
type Option func(*Comparator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Comparator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Comparator runs algorithms over one shared input and ranks the results.
//
// Description:
//
//	Results are keyed by display name and kept in insertion order. Adding a
//	result under an existing name replaces it in place, keeping its original
//	position. Rankings sort ascending and break ties by that order.
//
//	Every algorithm receives its own copy of the input. Algorithms run one
//	at a time so that their execution times are measured in isolation.
//
// Thread Safety: Safe for concurrent use. Concurrent AddAlgorithm calls are
// serialized.
type Comparator struct {
	mu      sync.Mutex
	input   []float64
	results map[string]*Result
	order   []string
	logger  *slog.Logger
}

// New creates a Comparator over a copy of input.
func New(input []float64, opts ...Option) *Comparator {
	c := &Comparator{
		input:   append([]float64{}, input...),
		results: make(map[string]*Result),
		logger:  slog.Default().With(slog.String("component", "comparator")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Input returns a copy of the shared input.
func (c *Comparator) Input() []float64 {
	return append([]float64{}, c.input...)
}

// AddAlgorithm constructs an algorithm over a fresh copy of the input, runs
// it, and stores it.
//
// Description:
//
//	The execution time stored for ranking is measured around Run by the
//	comparator itself. The result is stored under name, or under the
//	algorithm's default display name when name is empty.
//
// Inputs:
//   - ctx: Context for tracing. Must not be nil.
//   - ctor: The constructor. Must not be nil.
//   - name: Optional display name.
//
// Outputs:
//   - algorithms.Algorithm: The completed instance. Treat as read-only.
//   - error: ErrNilConstructor if ctor is nil.
func (c *Comparator) AddAlgorithm(ctx context.Context, ctor algorithms.Constructor, name string) (algorithms.Algorithm, error) {
	if ctor == nil {
		return nil, ErrNilConstructor
	}

	var opts []algorithms.Option
	if name != "" {
		opts = append(opts, algorithms.WithName(name))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	algo := ctor(c.Input(), opts...)

	_, span := tracer.Start(ctx, "compare.AddAlgorithm",
		trace.WithAttributes(
			attribute.String("algorithm", algo.Name()),
			attribute.Int("input_size", len(c.input)),
		),
	)
	start := time.Now()
	algo.Run()
	elapsed := time.Since(start)
	span.SetAttributes(
		attribute.Int64("duration_ns", int64(elapsed)),
		attribute.Int("steps", algo.Performance().StepCount),
	)
	span.End()

	c.store(&Result{Name: algo.Name(), Algorithm: algo, Elapsed: elapsed})

	c.logger.Debug("algorithm compared",
		slog.String("algorithm", algo.Name()),
		slog.Duration("duration", elapsed),
		slog.Int("comparisons", algo.Performance().Comparisons),
		slog.Int("swaps", algo.Performance().Swaps),
		slog.Int("steps", algo.Performance().StepCount),
	)
	return algo, nil
}

// AddResult stores an algorithm the caller has already run.
//
// The execution time used for ranking is the algorithm's own elapsed time.
func (c *Comparator) AddResult(name string, algo algorithms.Algorithm) error {
	if algo == nil {
		return ErrNilAlgorithm
	}
	if name == "" {
		name = algo.Name()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(&Result{Name: name, Algorithm: algo, Elapsed: algo.Performance().Elapsed})
	return nil
}

// store inserts or replaces r. Callers hold c.mu.
func (c *Comparator) store(r *Result) {
	if _, ok := c.results[r.Name]; !ok {
		c.order = append(c.order, r.Name)
	}
	c.results[r.Name] = r
}

// Results returns the stored results in insertion order.
func (c *Comparator) Results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Result, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, *c.results[name])
	}
	return out
}

// Len returns the number of stored results.
func (c *Comparator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Report summarizes and ranks every stored result.
//
// Outputs:
//   - Report: For each metric, names sorted ascending with ties in insertion
//     order. With no results, the report has no summaries and no rankings.
func (c *Comparator) Report() Report {
	results := c.Results()

	report := Report{
		DatasetSize: len(c.input),
		Algorithms:  make([]algorithms.Summary, 0, len(results)),
		Rankings:    make(map[Metric][]string),
	}
	if len(results) == 0 {
		return report
	}
	for _, r := range results {
		report.Algorithms = append(report.Algorithms, r.Summary())
	}
	for _, m := range Metrics() {
		report.Rankings[m] = rank(results, m)
	}
	return report
}

// Ranking returns the names ordered by metric.
func (c *Comparator) Ranking(metric Metric) ([]string, error) {
	m, err := ParseMetric(string(metric))
	if err != nil {
		return nil, err
	}
	return rank(c.Results(), m), nil
}

// BestAlgorithm returns the name ranked first by metric.
//
// Outputs:
//   - string: The best name.
//   - error: ErrInvalidMetric for an unknown metric, checked first.
//     ErrNoResults if nothing has been added.
func (c *Comparator) BestAlgorithm(metric Metric) (string, error) {
	m, err := ParseMetric(string(metric))
	if err != nil {
		return "", err
	}
	ranking := rank(c.Results(), m)
	if len(ranking) == 0 {
		return "", ErrNoResults
	}
	return ranking[0], nil
}

// Clear removes every stored result.
func (c *Comparator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = make(map[string]*Result)
	c.order = nil
}

// rank sorts results by metric, stable over insertion order.
func rank(results []Result, metric Metric) []string {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b Result) int {
		return cmp.Compare(
			metric.value(a.Elapsed, a.Algorithm.Performance()),
			metric.value(b.Elapsed, b.Algorithm.Performance()),
		)
	})
	names := make([]string, len(sorted))
	for i, r := range sorted {
		names[i] = r.Name
	}
	return names
}
