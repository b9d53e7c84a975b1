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
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/sortviz/services/sortviz"
	"github.com/AleutianAI/sortviz/services/sortviz/algorithms"
	"github.com/AleutianAI/sortviz/services/sortviz/compare"
	"github.com/AleutianAI/sortviz/services/sortviz/registry"
	"github.com/AleutianAI/sortviz/services/sortviz/storage/badger"
	"github.com/AleutianAI/sortviz/services/sortviz/telemetry"
	"github.com/AleutianAI/sortviz/services/sortviz/traceio"
)

// MaxTraceBodySize bounds the body of POST /v1/sortviz/traces.
const MaxTraceBodySize = 32 << 20

// Config configures Handlers.
type Config struct {
	// StepsPerSecond paces /stream. Zero or less sends steps unpaced.
	StepsPerSecond float64

	// StreamBurst is the number of steps sent back to back before pacing
	// applies. Minimum 1.
	StreamBurst int

	// Metrics records HTTP and stream metrics. Optional.
	Metrics *telemetry.Metrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Handlers serves the sortviz HTTP API.
//
// Thread Safety: Safe for concurrent use.
type Handlers struct {
	svc     *sortviz.Service
	cfg     Config
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// NewHandlers creates handlers over svc.
func NewHandlers(svc *sortviz.Service, cfg Config) *Handlers {
	if cfg.StreamBurst < 1 {
		cfg.StreamBurst = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		svc:     svc,
		cfg:     cfg,
		metrics: cfg.Metrics,
		logger:  logger.With(slog.String("component", "server")),
	}
}

// HandleHealth handles GET /v1/sortviz/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:     "healthy",
		Algorithms: len(h.svc.Registry().Available()),
		Storage:    h.svc.StorageEnabled(),
	})
}

// HandleListAlgorithms handles GET /v1/sortviz/algorithms.
//
// Response:
//
//	200 OK: AlgorithmsResponse in registration order
func (h *Handlers) HandleListAlgorithms(c *gin.Context) {
	entries := h.svc.Registry().Entries()
	resp := AlgorithmsResponse{Algorithms: make([]algorithms.Info, 0, len(entries))}
	for _, e := range entries {
		resp.Algorithms = append(resp.Algorithms, e.Info)
	}
	c.JSON(http.StatusOK, resp)
}

// HandleGetAlgorithm handles GET /v1/sortviz/algorithms/:id.
//
// Response:
//
//	200 OK: algorithms.Info
//	404 Not Found: Unknown algorithm
func (h *Handlers) HandleGetAlgorithm(c *gin.Context) {
	info, err := h.svc.Registry().Info(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
			Code:  "UNKNOWN_ALGORITHM",
		})
		return
	}
	c.JSON(http.StatusOK, info)
}

// HandleRun handles POST /v1/sortviz/run.
//
// Description:
//
//	Runs one algorithm over the request input and returns the sorted
//	output, the summary and, unless omitted, every step record. With
//	Save set the trace is also stored and its ID returned.
//
// Request Body:
//
//	RunRequest
//
// Response:
//
//	200 OK: RunResponse
//	400 Bad Request: Invalid body, unknown algorithm or non-finite input
//	413 Request Entity Too Large: Input above the size limit
//	503 Service Unavailable: Save requested without storage
func (h *Handlers) HandleRun(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleRun")

	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if req.Input == nil {
		req.Input = []float64{}
	}
	if req.Save && !h.svc.StorageEnabled() {
		h.writeError(c, logger, sortviz.ErrStorageDisabled)
		return
	}

	ctx := c.Request.Context()
	result, err := h.svc.Run(ctx, req.Algorithm, req.Input)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}

	resp := RunResponse{
		Sorted:  result.Sorted,
		Summary: result.Document.Summary,
	}
	if !req.OmitSteps {
		resp.Steps = result.Document.Steps
	}
	if req.Save {
		meta, err := h.svc.SaveTrace(ctx, result.Document)
		if err != nil {
			h.writeError(c, logger, err)
			return
		}
		resp.TraceID = meta.ID
	}
	c.JSON(http.StatusOK, resp)
}

// HandleCompare handles POST /v1/sortviz/compare.
//
// Request Body:
//
//	CompareRequest
//
// Response:
//
//	200 OK: CompareResponse
//	400 Bad Request: Invalid body, unknown algorithm or non-finite input
//	413 Request Entity Too Large: Input above the size limit
func (h *Handlers) HandleCompare(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleCompare")

	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if req.Input == nil {
		req.Input = []float64{}
	}

	report, err := h.svc.Compare(c.Request.Context(), req.Algorithms, req.Input)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, newCompareResponse(report))
}

// HandleListTraces handles GET /v1/sortviz/traces.
func (h *Handlers) HandleListTraces(c *gin.Context) {
	logger := h.logger.With("request_id", getOrCreateRequestID(c), "handler", "HandleListTraces")

	metas, err := h.svc.ListTraces(c.Request.Context())
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, TracesResponse{Traces: metas})
}

// HandleImportTrace handles POST /v1/sortviz/traces.
//
// Description:
//
//	Stores a trace document supplied by the client. The document is
//	schema checked and its internal consistency validated before it is
//	written.
//
// Response:
//
//	201 Created: badger.TraceMeta
//	400 Bad Request: Malformed trace
//	503 Service Unavailable: Storage disabled
func (h *Handlers) HandleImportTrace(c *gin.Context) {
	logger := h.logger.With("request_id", getOrCreateRequestID(c), "handler", "HandleImportTrace")

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxTraceBodySize))
	if err != nil {
		logger.Warn("Failed to read request body", "error", err)
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: "Request body too large",
			Code:  "BODY_TOO_LARGE",
		})
		return
	}
	doc, err := traceio.Unmarshal(body)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	meta, err := h.svc.SaveTrace(c.Request.Context(), doc)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	logger.Info("Trace imported", "trace_id", meta.ID, "algorithm", meta.Algorithm)
	c.JSON(http.StatusCreated, meta)
}

// HandleGetTrace handles GET /v1/sortviz/traces/:id.
//
// Response:
//
//	200 OK: traceio.Document
//	400 Bad Request: Malformed ID
//	404 Not Found: No such trace
func (h *Handlers) HandleGetTrace(c *gin.Context) {
	logger := h.logger.With("request_id", getOrCreateRequestID(c), "handler", "HandleGetTrace")

	doc, err := h.svc.LoadTrace(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// HandleDeleteTrace handles DELETE /v1/sortviz/traces/:id.
//
// Response:
//
//	204 No Content: Deleted
//	404 Not Found: No such trace
func (h *Handlers) HandleDeleteTrace(c *gin.Context) {
	logger := h.logger.With("request_id", getOrCreateRequestID(c), "handler", "HandleDeleteTrace")

	if err := h.svc.DeleteTrace(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// =============================================================================
// Helpers
// =============================================================================

// errorStatus maps service errors to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, registry.ErrUnknownAlgorithm):
		return http.StatusBadRequest, "UNKNOWN_ALGORITHM"
	case errors.Is(err, sortviz.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge, "INPUT_TOO_LARGE"
	case errors.Is(err, sortviz.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, compare.ErrInvalidMetric):
		return http.StatusBadRequest, "INVALID_METRIC"
	case errors.Is(err, traceio.ErrMalformedTrace):
		return http.StatusBadRequest, "MALFORMED_TRACE"
	case errors.Is(err, badger.ErrInvalidTraceID):
		return http.StatusBadRequest, "INVALID_TRACE_ID"
	case errors.Is(err, badger.ErrTraceNotFound):
		return http.StatusNotFound, "TRACE_NOT_FOUND"
	case errors.Is(err, sortviz.ErrStorageDisabled):
		return http.StatusServiceUnavailable, "STORAGE_DISABLED"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func (h *Handlers) writeError(c *gin.Context, logger *slog.Logger, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "error", err, "code", code)
		h.metrics.RecordError(c.Request.Context(), "server")
	} else {
		logger.Warn("Request rejected", "error", err, "code", code)
	}
	c.JSON(status, ErrorResponse{
		Error: err.Error(),
		Code:  code,
	})
}

// getOrCreateRequestID echoes X-Request-ID or assigns a new one.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
