// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics contains the instruments recorded by sortviz.
//
// Description:
//
//	Sort runs, comparator runs, trace storage and the HTTP API each get
//	counters and histograms. All names use the "sortviz_" prefix.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// --- Run Metrics ---

	// RunsTotal counts algorithm runs by algorithm and status.
	RunsTotal metric.Int64Counter

	// RunDuration records algorithm run duration in seconds.
	RunDuration metric.Float64Histogram

	// StepsRecorded counts step records produced, by algorithm.
	StepsRecorded metric.Int64Counter

	// Comparisons counts element comparisons, by algorithm.
	Comparisons metric.Int64Counter

	// Swaps counts element swaps, by algorithm.
	Swaps metric.Int64Counter

	// --- Comparator Metrics ---

	// ComparisonsRun counts comparator sessions by status.
	ComparisonsRun metric.Int64Counter

	// --- Storage Metrics ---

	// TraceStoreOps counts trace store operations by operation and status.
	TraceStoreOps metric.Int64Counter

	// --- HTTP Metrics ---

	// HTTPRequestsTotal counts HTTP requests by method, route and status.
	HTTPRequestsTotal metric.Int64Counter

	// HTTPRequestDuration records HTTP request duration in seconds.
	HTTPRequestDuration metric.Float64Histogram

	// StreamClients tracks open step-stream connections.
	StreamClients metric.Int64UpDownCounter

	// --- Error Metrics ---

	// ErrorsTotal counts errors by component.
	ErrorsTotal metric.Int64Counter
}

// NewMetrics registers every instrument with meter.
//
// Inputs:
//
//	meter - The OTel meter to register with.
//
// Outputs:
//
//	*Metrics - The initialized instruments.
//	error - Non-nil if any registration fails.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.RunsTotal, err = meter.Int64Counter(
		"sortviz_runs_total",
		metric.WithDescription("Total algorithm runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create runs_total: %w", err)
	}

	m.RunDuration, err = meter.Float64Histogram(
		"sortviz_run_duration_seconds",
		metric.WithDescription("Algorithm run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.00001, 0.0001, 0.001, 0.01, 0.1, 1, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("create run_duration: %w", err)
	}

	m.StepsRecorded, err = meter.Int64Counter(
		"sortviz_steps_recorded_total",
		metric.WithDescription("Total step records produced"),
		metric.WithUnit("{step}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create steps_recorded_total: %w", err)
	}

	m.Comparisons, err = meter.Int64Counter(
		"sortviz_comparisons_total",
		metric.WithDescription("Total element comparisons"),
		metric.WithUnit("{comparison}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create comparisons_total: %w", err)
	}

	m.Swaps, err = meter.Int64Counter(
		"sortviz_swaps_total",
		metric.WithDescription("Total element swaps"),
		metric.WithUnit("{swap}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create swaps_total: %w", err)
	}

	m.ComparisonsRun, err = meter.Int64Counter(
		"sortviz_comparator_runs_total",
		metric.WithDescription("Total comparator sessions"),
		metric.WithUnit("{comparison}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create comparator_runs_total: %w", err)
	}

	m.TraceStoreOps, err = meter.Int64Counter(
		"sortviz_trace_store_operations_total",
		metric.WithDescription("Total trace store operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace_store_operations_total: %w", err)
	}

	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"sortviz_http_requests_total",
		metric.WithDescription("Total HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_requests_total: %w", err)
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"sortviz_http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_request_duration: %w", err)
	}

	m.StreamClients, err = meter.Int64UpDownCounter(
		"sortviz_stream_clients",
		metric.WithDescription("Open step stream connections"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create stream_clients: %w", err)
	}

	m.ErrorsTotal, err = meter.Int64Counter(
		"sortviz_errors_total",
		metric.WithDescription("Total errors by component"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create errors_total: %w", err)
	}

	return m, nil
}

// RecordRun records one finished algorithm run. A nil receiver is a no-op.
func (m *Metrics) RecordRun(ctx context.Context, algorithm string, seconds float64, steps, comparisons, swaps int64, err error) {
	if m == nil {
		return
	}
	algo := metric.WithAttributes(attribute.String("algorithm", algorithm))
	m.RunsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("algorithm", algorithm),
		attribute.String("status", statusOf(err)),
	))
	if err != nil {
		m.RecordError(ctx, "run")
		return
	}
	m.RunDuration.Record(ctx, seconds, algo)
	m.StepsRecorded.Add(ctx, steps, algo)
	m.Comparisons.Add(ctx, comparisons, algo)
	m.Swaps.Add(ctx, swaps, algo)
}

// RecordStoreOp records one trace store operation. A nil receiver is a no-op.
func (m *Metrics) RecordStoreOp(ctx context.Context, operation string, err error) {
	if m == nil {
		return
	}
	m.TraceStoreOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", statusOf(err)),
	))
	if err != nil {
		m.RecordError(ctx, "storage")
	}
}

// RecordError increments the error counter for component. A nil receiver is
// a no-op.
func (m *Metrics) RecordError(ctx context.Context, component string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("component", component)))
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
