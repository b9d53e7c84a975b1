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
	"context"
	"testing"
	"time"

	"github.com/AleutianAI/sortviz/services/sortviz/algorithms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

// fixedAlgorithm is an already-run algorithm with preset counters.
type fixedAlgorithm struct {
	name string
	perf algorithms.Performance
}

func (f *fixedAlgorithm) Name() string          { return f.name }
func (f *fixedAlgorithm) Kind() algorithms.Kind { return algorithms.KindSelection }
func (f *fixedAlgorithm) Input() []float64      { return []float64{} }
func (f *fixedAlgorithm) Run() []float64        { return []float64{} }
func (f *fixedAlgorithm) Reset()                {}
func (f *fixedAlgorithm) Info() algorithms.Info {
	return algorithms.LookupInfo(algorithms.KindSelection)
}
func (f *fixedAlgorithm) Steps() []algorithms.Step            { return nil }
func (f *fixedAlgorithm) Performance() algorithms.Performance { return f.perf }

func fixed(name string, comparisons, swaps, steps int, elapsed time.Duration) *fixedAlgorithm {
	return &fixedAlgorithm{name: name, perf: algorithms.Performance{
		Comparisons: comparisons,
		Swaps:       swaps,
		StepCount:   steps,
		Elapsed:     elapsed,
	}}
}

func mergeCtor(in []float64, opts ...algorithms.Option) algorithms.Algorithm {
	return algorithms.NewMergeSort(in, opts...)
}

func selectionCtor(in []float64, opts ...algorithms.Option) algorithms.Algorithm {
	return algorithms.NewSelectionSort(in, opts...)
}

// =============================================================================
// AddAlgorithm
// =============================================================================

func TestAddAlgorithm(t *testing.T) {
	ctx := context.Background()

	t.Run("runs over a private copy", func(t *testing.T) {
		input := []float64{5, 2, 9, 1}
		c := New(input)

		algo, err := c.AddAlgorithm(ctx, mergeCtor, "")
		require.NoError(t, err)

		assert.Equal(t, "Merge Sort", algo.Name())
		assert.NotEmpty(t, algo.Steps(), "algorithm was run")
		assert.Equal(t, []float64{5, 2, 9, 1}, input)
		assert.Equal(t, []float64{5, 2, 9, 1}, c.Input())
		assert.Equal(t, []float64{5, 2, 9, 1}, algo.Input())
	})

	t.Run("custom name", func(t *testing.T) {
		c := New([]float64{3, 1, 2})
		algo, err := c.AddAlgorithm(ctx, mergeCtor, "mine")
		require.NoError(t, err)
		assert.Equal(t, "mine", algo.Name())

		results := c.Results()
		require.Len(t, results, 1)
		assert.Equal(t, "mine", results[0].Name)
		assert.Positive(t, results[0].Elapsed)
	})

	t.Run("nil constructor", func(t *testing.T) {
		c := New([]float64{1})
		_, err := c.AddAlgorithm(ctx, nil, "")
		assert.ErrorIs(t, err, ErrNilConstructor)
		assert.Zero(t, c.Len())
	})

	t.Run("same name replaces in place", func(t *testing.T) {
		c := New([]float64{3, 1, 2})
		_, err := c.AddAlgorithm(ctx, mergeCtor, "a")
		require.NoError(t, err)
		_, err = c.AddAlgorithm(ctx, selectionCtor, "b")
		require.NoError(t, err)
		_, err = c.AddAlgorithm(ctx, selectionCtor, "a")
		require.NoError(t, err)

		results := c.Results()
		require.Len(t, results, 2)
		assert.Equal(t, "a", results[0].Name)
		assert.Equal(t, algorithms.KindSelection, results[0].Algorithm.Kind())
		assert.Equal(t, "b", results[1].Name)
	})
}

func TestAddResult(t *testing.T) {
	c := New([]float64{1, 2, 3})

	require.NoError(t, c.AddResult("x", fixed("ignored", 1, 2, 3, 7*time.Millisecond)))
	require.NoError(t, c.AddResult("", fixed("own-name", 1, 2, 3, time.Millisecond)))
	assert.ErrorIs(t, c.AddResult("nil", nil), ErrNilAlgorithm)

	results := c.Results()
	require.Len(t, results, 2)
	assert.Equal(t, "x", results[0].Name)
	assert.Equal(t, 7*time.Millisecond, results[0].Elapsed, "self-reported time is used")
	assert.Equal(t, "own-name", results[1].Name)
}

// =============================================================================
// Report and Rankings
// =============================================================================

func TestReport_RanksAscending(t *testing.T) {
	c := New([]float64{1, 2, 3})
	require.NoError(t, c.AddResult("fifteen", fixed("fifteen", 15, 1, 30, 3*time.Millisecond)))
	require.NoError(t, c.AddResult("five", fixed("five", 5, 3, 10, 2*time.Millisecond)))
	require.NoError(t, c.AddResult("ten", fixed("ten", 10, 2, 20, 1*time.Millisecond)))

	report := c.Report()

	assert.Equal(t, 3, report.DatasetSize)
	assert.Len(t, report.Algorithms, 3)
	assert.Equal(t, []string{"five", "ten", "fifteen"}, report.Rankings[MetricComparisons])
	assert.Equal(t, []string{"fifteen", "ten", "five"}, report.Rankings[MetricSwaps])
	assert.Equal(t, []string{"five", "ten", "fifteen"}, report.Rankings[MetricTotalSteps])
	assert.Equal(t, []string{"ten", "five", "fifteen"}, report.Rankings[MetricExecutionTime])

	best, err := c.BestAlgorithm(MetricComparisons)
	require.NoError(t, err)
	assert.Equal(t, "five", best)

	s, ok := report.Summary("ten")
	require.True(t, ok)
	assert.Equal(t, 10, s.Comparisons)
	assert.Equal(t, time.Millisecond, s.ExecutionTime)
}

func TestReport_TiesKeepInsertionOrder(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.AddResult("second", fixed("second", 4, 0, 9, 0)))
	require.NoError(t, c.AddResult("first", fixed("first", 4, 0, 9, 0)))
	require.NoError(t, c.AddResult("low", fixed("low", 1, 0, 9, 0)))

	report := c.Report()
	assert.Equal(t, []string{"low", "second", "first"}, report.Rankings[MetricComparisons])
	assert.Equal(t, []string{"second", "first", "low"}, report.Rankings[MetricSwaps])

	best, err := c.BestAlgorithm(MetricTotalSteps)
	require.NoError(t, err)
	assert.Equal(t, "second", best)
}

func TestReport_RealAlgorithms(t *testing.T) {
	c := New([]float64{64, 34, 25, 12, 22, 11, 90})
	for _, ctor := range []algorithms.Constructor{mergeCtor, selectionCtor} {
		_, err := c.AddAlgorithm(context.Background(), ctor, "")
		require.NoError(t, err)
	}

	report := c.Report()
	require.Len(t, report.Rankings, len(Metrics()))
	for _, m := range Metrics() {
		assert.ElementsMatch(t, []string{"Merge Sort", "Selection Sort"}, report.Rankings[m])
	}
	assert.Equal(t, "Merge Sort", report.Rankings[MetricSwaps][0], "merging performs no swaps")
}

func TestReport_Empty(t *testing.T) {
	c := New([]float64{1, 2})

	report := c.Report()
	assert.True(t, report.Empty())
	assert.Equal(t, 2, report.DatasetSize)
	assert.Empty(t, report.Rankings)

	_, err := c.BestAlgorithm(MetricComparisons)
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestBestAlgorithm_InvalidMetric(t *testing.T) {
	c := New(nil)

	_, err := c.BestAlgorithm("speed")
	assert.ErrorIs(t, err, ErrInvalidMetric, "metric is validated before emptiness")

	require.NoError(t, c.AddResult("a", fixed("a", 1, 1, 1, 0)))
	_, err = c.BestAlgorithm("speed")
	assert.ErrorIs(t, err, ErrInvalidMetric)

	_, err = c.Ranking("speed")
	assert.ErrorIs(t, err, ErrInvalidMetric)
}

func TestBestAlgorithm_PaddedMetricRanksByThatMetric(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.AddResult("sel", fixed("sel", 10, 3, 32, 0)))
	require.NoError(t, c.AddResult("merge", fixed("merge", 5, 0, 20, 0)))

	best, err := c.BestAlgorithm(" comparisons")
	require.NoError(t, err)
	assert.Equal(t, "merge", best)

	best, err = c.BestAlgorithm("comparisons\n")
	require.NoError(t, err)
	assert.Equal(t, "merge", best)

	ranking, err := c.Ranking(" comparisons ")
	require.NoError(t, err)
	assert.Equal(t, []string{"merge", "sel"}, ranking)
}

func TestClear(t *testing.T) {
	c := New([]float64{2, 1})
	_, err := c.AddAlgorithm(context.Background(), mergeCtor, "")
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	c.Clear()

	assert.Zero(t, c.Len())
	assert.True(t, c.Report().Empty())

	_, err = c.AddAlgorithm(context.Background(), mergeCtor, "")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestParseMetric(t *testing.T) {
	for _, m := range Metrics() {
		got, err := ParseMetric(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMetric("memory_usage")
	assert.ErrorIs(t, err, ErrInvalidMetric)
}
