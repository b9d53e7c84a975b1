// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sortviz

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sortviz/services/sortviz/compare"
	"github.com/AleutianAI/sortviz/services/sortviz/registry"
	"github.com/AleutianAI/sortviz/services/sortviz/storage/badger"
	"github.com/AleutianAI/sortviz/services/sortviz/traceio"
)

type recordingPublisher struct {
	names []string
}

func (p *recordingPublisher) Upload(_ context.Context, name string, _ traceio.Document) (string, error) {
	p.names = append(p.names, name)
	return "mem://" + name, nil
}

func newService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	reg, err := registry.New()
	require.NoError(t, err)
	return New(reg, opts...)
}

func newStore(t *testing.T) *badger.TraceStore {
	t.Helper()
	db, err := badger.Open(badger.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return badger.NewTraceStore(db)
}

func TestService_Run(t *testing.T) {
	svc := newService(t)
	input := []float64{64, 25, 12, 22, 11}

	result, err := svc.Run(context.Background(), "selection_sort", input)
	require.NoError(t, err)

	assert.Equal(t, []float64{11, 12, 22, 25, 64}, result.Sorted)
	assert.Equal(t, []float64{64, 25, 12, 22, 11}, input, "input is not modified")
	assert.Equal(t, "Selection Sort", result.Document.Summary.Algorithm)
	assert.Equal(t, 10, result.Document.Summary.Comparisons)
	assert.Equal(t, 3, result.Document.Summary.Swaps)
	assert.Len(t, result.Document.Steps, 32)
	assert.NoError(t, traceio.Validate(result.Document))
	assert.Equal(t, result.Sorted, result.Document.FinalState())
}

func TestService_RunErrors(t *testing.T) {
	svc := newService(t, WithMaxInputSize(3))
	ctx := context.Background()

	_, err := svc.Run(ctx, "bogo_sort", []float64{1})
	assert.ErrorIs(t, err, registry.ErrUnknownAlgorithm)

	_, err = svc.Run(ctx, "merge_sort", []float64{4, 3, 2, 1})
	assert.ErrorIs(t, err, ErrInputTooLarge)

	_, err = svc.Run(ctx, "merge_sort", []float64{1, math.NaN()})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, 3, svc.MaxInputSize())
}

func TestService_RunEmptyInput(t *testing.T) {
	svc := newService(t)
	result, err := svc.Run(context.Background(), "quick_sort", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Sorted)
	assert.NotNil(t, result.Sorted)
	assert.Empty(t, result.Document.Steps)
}

func TestService_Compare(t *testing.T) {
	svc := newService(t)
	report, err := svc.Compare(context.Background(), nil, []float64{5, 2, 8, 1, 9, 3})
	require.NoError(t, err)

	assert.Equal(t, 6, report.DatasetSize)
	require.Len(t, report.Algorithms, 4)
	names := make([]string, len(report.Algorithms))
	for i, s := range report.Algorithms {
		names[i] = s.Algorithm
	}
	assert.Equal(t, []string{"Merge Sort", "Quick Sort", "Selection Sort", "Priority Queue Sort"}, names)
	for _, m := range compare.Metrics() {
		assert.Len(t, report.Rankings[m], 4, m)
	}
	merge, ok := report.Summary("Merge Sort")
	require.True(t, ok)
	assert.Zero(t, merge.Swaps)
}

func TestService_CompareSubsetAndErrors(t *testing.T) {
	svc := newService(t, WithMaxInputSize(10))
	ctx := context.Background()

	report, err := svc.Compare(ctx, []string{"quick_sort", "merge_sort"}, []float64{3, 1, 2})
	require.NoError(t, err)
	require.Len(t, report.Algorithms, 2)
	assert.Equal(t, "Quick Sort", report.Algorithms[0].Algorithm)

	_, err = svc.Compare(ctx, []string{"quick_sort", "nope"}, []float64{3, 1, 2})
	assert.ErrorIs(t, err, registry.ErrUnknownAlgorithm)

	_, err = svc.Compare(ctx, nil, make([]float64, 11))
	assert.ErrorIs(t, err, ErrInputTooLarge)
}

func TestService_StorageDisabled(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	assert.False(t, svc.StorageEnabled())

	_, err := svc.SaveTrace(ctx, traceio.Document{})
	assert.ErrorIs(t, err, ErrStorageDisabled)
	_, err = svc.LoadTrace(ctx, "x")
	assert.ErrorIs(t, err, ErrStorageDisabled)
	_, err = svc.ListTraces(ctx)
	assert.ErrorIs(t, err, ErrStorageDisabled)
	assert.ErrorIs(t, svc.DeleteTrace(ctx, "x"), ErrStorageDisabled)
	_, err = svc.Publish(ctx, "x", traceio.Document{})
	assert.ErrorIs(t, err, ErrPublishDisabled)
}

func TestService_TraceLifecycle(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(t, WithStore(newStore(t)), WithPublisher(pub))
	ctx := context.Background()
	require.True(t, svc.StorageEnabled())

	result, err := svc.Run(ctx, "priority_queue_sort", []float64{9, 7, 8})
	require.NoError(t, err)

	meta, err := svc.SaveTrace(ctx, result.Document)
	require.NoError(t, err)

	metas, err := svc.ListTraces(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, meta.ID, metas[0].ID)

	doc, err := svc.LoadTrace(ctx, meta.ID)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 8, 9}, doc.FinalState())

	uri, err := svc.Publish(ctx, meta.ID, doc)
	require.NoError(t, err)
	assert.Equal(t, "mem://"+meta.ID, uri)
	assert.Equal(t, []string{meta.ID}, pub.names)

	require.NoError(t, svc.DeleteTrace(ctx, meta.ID))
	_, err = svc.LoadTrace(ctx, meta.ID)
	assert.ErrorIs(t, err, badger.ErrTraceNotFound)
}

func TestService_PublishValidates(t *testing.T) {
	svc := newService(t, WithPublisher(&recordingPublisher{}))
	_, err := svc.Publish(context.Background(), "bad", traceio.Document{Version: 99})
	assert.ErrorIs(t, err, traceio.ErrMalformedTrace)
}
