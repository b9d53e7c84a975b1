// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server exposes the sortviz service over HTTP.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/sortviz/services/sortviz/telemetry"
)

// RegisterRoutes registers the sortviz endpoints.
//
// Description:
//
//	Registers all /v1/sortviz/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	GET    /v1/sortviz/health - Liveness and capabilities
//	GET    /v1/sortviz/algorithms - List algorithms with complexity info
//	GET    /v1/sortviz/algorithms/:id - Describe one algorithm
//	POST   /v1/sortviz/run - Run one algorithm and return its trace
//	POST   /v1/sortviz/compare - Run several algorithms and rank them
//	GET    /v1/sortviz/traces - List stored traces
//	POST   /v1/sortviz/traces - Import a trace document
//	GET    /v1/sortviz/traces/:id - Fetch a stored trace
//	DELETE /v1/sortviz/traces/:id - Delete a stored trace
//	GET    /v1/sortviz/stream - Stream a trace over a WebSocket
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	sv := rg.Group("/sortviz")
	{
		sv.GET("/health", handlers.HandleHealth)

		sv.GET("/algorithms", handlers.HandleListAlgorithms)
		sv.GET("/algorithms/:id", handlers.HandleGetAlgorithm)

		sv.POST("/run", handlers.HandleRun)
		sv.POST("/compare", handlers.HandleCompare)

		sv.GET("/traces", handlers.HandleListTraces)
		sv.POST("/traces", handlers.HandleImportTrace)
		sv.GET("/traces/:id", handlers.HandleGetTrace)
		sv.DELETE("/traces/:id", handlers.HandleDeleteTrace)

		sv.GET("/stream", handlers.HandleStream)
	}
}

// NewRouter builds the gin engine serving handlers.
//
// Description:
//
//	Applies recovery, OpenTelemetry request tracing and request metrics,
//	then registers the API under /v1. When metricsHandler is non-nil it
//	is served at GET /metrics.
func NewRouter(handlers *Handlers, metricsHandler http.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(telemetry.TracerName))
	router.Use(requestMetrics(handlers.metrics))

	RegisterRoutes(router.Group("/v1"), handlers)

	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}
	return router
}

// requestMetrics counts requests and records their latency. A nil m
// disables it.
func requestMetrics(m *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("route", route),
			attribute.String("status", strconv.Itoa(c.Writer.Status())),
		)
		ctx := c.Request.Context()
		m.HTTPRequestsTotal.Add(ctx, 1, attrs)
		m.HTTPRequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}
