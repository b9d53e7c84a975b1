// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"github.com/AleutianAI/sortviz/services/sortviz/algorithms"
	"github.com/AleutianAI/sortviz/services/sortviz/compare"
	"github.com/AleutianAI/sortviz/services/sortviz/storage/badger"
	"github.com/AleutianAI/sortviz/services/sortviz/traceio"
)

// =============================================================================
// Requests
// =============================================================================

// RunRequest is the body of POST /v1/sortviz/run.
type RunRequest struct {
	// Algorithm is the registry identifier, e.g. "quick_sort".
	Algorithm string `json:"algorithm" binding:"required"`

	// Input is the dataset. An empty dataset is allowed.
	Input []float64 `json:"input"`

	// Save stores the trace when storage is enabled.
	Save bool `json:"save,omitempty"`

	// OmitSteps drops the step records from the response.
	OmitSteps bool `json:"omit_steps,omitempty"`
}

// CompareRequest is the body of POST /v1/sortviz/compare.
type CompareRequest struct {
	// Algorithms lists registry identifiers. Empty compares all of them.
	Algorithms []string `json:"algorithms,omitempty"`

	// Input is the dataset every algorithm sorts.
	Input []float64 `json:"input"`
}

// =============================================================================
// Responses
// =============================================================================

// HealthResponse is returned by GET /v1/sortviz/health.
type HealthResponse struct {
	Status     string `json:"status"`
	Algorithms int    `json:"algorithms"`
	Storage    bool   `json:"storage"`
}

// AlgorithmsResponse is returned by GET /v1/sortviz/algorithms.
type AlgorithmsResponse struct {
	Algorithms []algorithms.Info `json:"algorithms"`
}

// RunResponse is returned by POST /v1/sortviz/run.
type RunResponse struct {
	// TraceID is set when the trace was saved.
	TraceID string            `json:"trace_id,omitempty"`
	Sorted  []float64         `json:"sorted"`
	Summary traceio.Summary   `json:"summary"`
	Steps   []algorithms.Step `json:"steps,omitempty"`
}

// CompareResponse is returned by POST /v1/sortviz/compare.
type CompareResponse struct {
	DatasetSize int                         `json:"dataset_size"`
	Algorithms  []traceio.Summary           `json:"algorithms"`
	Rankings    map[compare.Metric][]string `json:"rankings"`
	Best        map[compare.Metric]string   `json:"best"`
}

// TracesResponse is returned by GET /v1/sortviz/traces.
type TracesResponse struct {
	Traces []badger.TraceMeta `json:"traces"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is a stable machine readable error code.
	Code string `json:"code,omitempty"`
}

// =============================================================================
// Stream messages
// =============================================================================

// Stream message types.
const (
	StreamStart = "start"
	StreamStep  = "step"
	StreamDone  = "done"
)

// StreamMessage is one frame sent on GET /v1/sortviz/stream.
//
// A stream sends one "start" frame carrying the summary, one "step" frame
// per step record and a final "done" frame.
type StreamMessage struct {
	Type    string           `json:"type"`
	Summary *traceio.Summary `json:"summary,omitempty"`
	Step    *algorithms.Step `json:"step,omitempty"`
	Total   int              `json:"total,omitempty"`
}

func newCompareResponse(report compare.Report) CompareResponse {
	resp := CompareResponse{
		DatasetSize: report.DatasetSize,
		Algorithms:  make([]traceio.Summary, 0, len(report.Algorithms)),
		Rankings:    report.Rankings,
		Best:        make(map[compare.Metric]string, len(report.Rankings)),
	}
	for _, s := range report.Algorithms {
		resp.Algorithms = append(resp.Algorithms, traceio.SummaryFrom(s))
	}
	for m, names := range report.Rankings {
		if len(names) > 0 {
			resp.Best[m] = names[0]
		}
	}
	return resp
}
