// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sortviz ties the algorithm registry, the comparator and trace
// storage together for the CLI and the HTTP API.
package sortviz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/sortviz/services/sortviz/algorithms"
	"github.com/AleutianAI/sortviz/services/sortviz/compare"
	"github.com/AleutianAI/sortviz/services/sortviz/dataset"
	"github.com/AleutianAI/sortviz/services/sortviz/registry"
	"github.com/AleutianAI/sortviz/services/sortviz/storage/badger"
	"github.com/AleutianAI/sortviz/services/sortviz/telemetry"
	"github.com/AleutianAI/sortviz/services/sortviz/traceio"
)

var (
	// ErrInputTooLarge is returned when a dataset exceeds the size limit.
	ErrInputTooLarge = errors.New("input too large")

	// ErrInvalidInput is returned for datasets containing NaN or infinity.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorageDisabled is returned by trace storage calls when no store is
	// configured.
	ErrStorageDisabled = errors.New("trace storage disabled")

	// ErrPublishDisabled is returned by Publish when no uploader is configured.
	ErrPublishDisabled = errors.New("trace publishing disabled")
)

// DefaultMaxInputSize bounds datasets when no limit is configured.
const DefaultMaxInputSize = 10000

// Publisher uploads trace documents somewhere durable.
type Publisher interface {
	Upload(ctx context.Context, name string, doc traceio.Document) (string, error)
}

// RunResult is the outcome of one algorithm run.
type RunResult struct {
	// Sorted is the sorted output.
	Sorted []float64 `json:"sorted"`

	// Document holds the summary and full trace.
	Document traceio.Document `json:"trace"`
}

// Service runs algorithms and manages their traces.
//
// Thread Safety: Safe for concurrent use.
type Service struct {
	registry  *registry.Registry
	store     *badger.TraceStore
	publisher Publisher
	metrics   *telemetry.Metrics
	logger    *slog.Logger
	maxInput  int
}

// Option configures a Service.
type Option func(*Service)

// WithStore enables trace storage.
func WithStore(store *badger.TraceStore) Option {
	return func(s *Service) { s.store = store }
}

// WithPublisher enables Publish.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics records runs on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMaxInputSize sets the largest accepted dataset. n <= 0 keeps the
// default.
func WithMaxInputSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxInput = n
		}
	}
}

// New creates a Service over reg.
func New(reg *registry.Registry, opts ...Option) *Service {
	s := &Service{
		registry: reg,
		logger:   slog.Default().With(slog.String("component", "sortviz")),
		maxInput: DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the algorithm registry.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// MaxInputSize returns the dataset size limit.
func (s *Service) MaxInputSize() int {
	return s.maxInput
}

// StorageEnabled reports whether traces can be saved.
func (s *Service) StorageEnabled() bool {
	return s.store != nil
}

func (s *Service) checkInput(input []float64) error {
	if len(input) > s.maxInput {
		return fmt.Errorf("%w: %d values (max %d)", ErrInputTooLarge, len(input), s.maxInput)
	}
	if err := dataset.Validate(input); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// Run executes the algorithm registered under id over input.
//
// Description:
//
//	The input is checked against the size limit and for non-finite values
//	before anything runs. The run is named by the algorithm's display name.
//	The returned document carries the complete trace.
//
// Inputs:
//
//	ctx - Context for tracing.
//	id - Registry identifier, such as "quick_sort".
//	input - The dataset. It is not modified.
//
// Outputs:
//
//	*RunResult - Sorted output and trace document.
//	error - ErrInputTooLarge, ErrInvalidInput or registry.ErrUnknownAlgorithm.
func (s *Service) Run(ctx context.Context, id string, input []float64) (result *RunResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "sortviz.Run", trace.WithAttributes(
		attribute.String("algorithm", id),
		attribute.Int("input_size", len(input)),
	))
	defer span.End()
	logger := telemetry.LoggerWithTrace(ctx, s.logger)

	if err := s.checkInput(input); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	info, err := s.registry.Info(id)
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordError(ctx, "registry")
		return nil, err
	}
	algo, err := s.registry.Create(id, input, algorithms.WithName(info.DisplayName))
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordError(ctx, "registry")
		return nil, err
	}

	sorted := algo.Run()
	perf := algo.Performance()
	s.metrics.RecordRun(ctx, id, perf.Elapsed.Seconds(), int64(perf.StepCount),
		int64(perf.Comparisons), int64(perf.Swaps), nil)
	span.SetAttributes(
		attribute.Int("steps", perf.StepCount),
		attribute.Int("comparisons", perf.Comparisons),
		attribute.Int("swaps", perf.Swaps),
	)
	telemetry.SetSpanOK(span)

	logger.Info("algorithm run",
		slog.String("algorithm", id),
		slog.Int("input_size", len(input)),
		slog.Int("steps", perf.StepCount),
		slog.Int("comparisons", perf.Comparisons),
		slog.Int("swaps", perf.Swaps),
		slog.Duration("elapsed", perf.Elapsed),
	)
	return &RunResult{Sorted: sorted, Document: traceio.NewDocument(algo)}, nil
}

// Compare runs each algorithm in ids over input and ranks them. An empty
// ids compares every registered algorithm.
func (s *Service) Compare(ctx context.Context, ids []string, input []float64) (report compare.Report, err error) {
	if len(ids) == 0 {
		ids = s.registry.Available()
	}
	ctx, span := telemetry.StartSpan(ctx, "sortviz.Compare", trace.WithAttributes(
		attribute.StringSlice("algorithms", ids),
		attribute.Int("input_size", len(input)),
	))
	defer span.End()
	defer func() {
		if s.metrics != nil {
			s.metrics.ComparisonsRun.Add(ctx, 1)
		}
		if err != nil {
			telemetry.RecordError(span, err)
			s.metrics.RecordError(ctx, "compare")
		}
	}()

	if err := s.checkInput(input); err != nil {
		return compare.Report{}, err
	}

	ctors := make([]algorithms.Constructor, len(ids))
	for i, id := range ids {
		ctor, err := s.registry.Constructor(id)
		if err != nil {
			return compare.Report{}, err
		}
		ctors[i] = ctor
	}

	c := compare.New(input, compare.WithLogger(s.logger))
	start := time.Now()
	for i, ctor := range ctors {
		algo, err := c.AddAlgorithm(ctx, ctor, "")
		if err != nil {
			return compare.Report{}, fmt.Errorf("compare %s: %w", ids[i], err)
		}
		perf := algo.Performance()
		s.metrics.RecordRun(ctx, ids[i], perf.Elapsed.Seconds(), int64(perf.StepCount),
			int64(perf.Comparisons), int64(perf.Swaps), nil)
	}

	report = c.Report()
	telemetry.LoggerWithTrace(ctx, s.logger).Info("comparison complete",
		slog.Int("algorithms", len(ids)),
		slog.Int("input_size", len(input)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}

// SaveTrace stores doc.
func (s *Service) SaveTrace(ctx context.Context, doc traceio.Document) (badger.TraceMeta, error) {
	if s.store == nil {
		return badger.TraceMeta{}, ErrStorageDisabled
	}
	return s.store.Save(ctx, doc)
}

// LoadTrace returns the trace stored under id.
func (s *Service) LoadTrace(ctx context.Context, id string) (traceio.Document, error) {
	if s.store == nil {
		return traceio.Document{}, ErrStorageDisabled
	}
	return s.store.Load(ctx, id)
}

// ListTraces returns metadata of every stored trace, oldest first.
func (s *Service) ListTraces(ctx context.Context) ([]badger.TraceMeta, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	return s.store.List(ctx)
}

// DeleteTrace removes the trace stored under id.
func (s *Service) DeleteTrace(ctx context.Context, id string) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	return s.store.Delete(ctx, id)
}

// Publish uploads doc under name and returns where it went.
func (s *Service) Publish(ctx context.Context, name string, doc traceio.Document) (string, error) {
	if s.publisher == nil {
		return "", ErrPublishDisabled
	}
	if err := traceio.Validate(doc); err != nil {
		return "", err
	}
	return s.publisher.Upload(ctx, name, doc)
}
