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
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/sortviz/services/sortviz/dataset"
	"github.com/AleutianAI/sortviz/services/sortviz/traceio"
)

// streamWriteTimeout bounds each frame write.
const streamWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
}

func sendJSON(ws *websocket.Conn, v any) error {
	if err := ws.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return err
	}
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}

// HandleStream handles GET /v1/sortviz/stream.
//
// Description:
//
//	Streams a trace over a WebSocket, one step per frame, paced by the
//	configured steps per second. The trace is either produced on the fly
//	from ?algorithm=quick_sort&data=3,1,2 or loaded with ?trace=<id>.
//	?rate=<steps per second> overrides the pacing for this stream.
//
//	Bad parameters are answered with a plain JSON error before the
//	connection is upgraded.
//
// Response:
//
//	101 Switching Protocols: StreamMessage frames
//	400 Bad Request: Missing or invalid parameters
//	404 Not Found: No such trace
func (h *Handlers) HandleStream(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleStream")

	limit, err := h.streamLimit(c.Query("rate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_RATE",
		})
		return
	}

	doc, ok := h.resolveStreamTrace(c, logger)
	if !ok {
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("failed to upgrade the websocket", "error", err)
		return
	}
	defer ws.Close()

	if h.metrics != nil {
		h.metrics.StreamClients.Add(context.Background(), 1)
		defer h.metrics.StreamClients.Add(context.Background(), -1)
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	logger.Info("Stream started",
		"algorithm", doc.Summary.Algorithm,
		"steps", len(doc.Steps),
		"rate", float64(limit))

	sent, err := streamDocument(ctx, ws, doc, rate.NewLimiter(limit, h.cfg.StreamBurst))
	if err != nil {
		logger.Info("Stream ended early", "sent", sent, "error", err)
		return
	}
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(streamWriteTimeout))
	logger.Info("Stream complete", "sent", sent)
}

// streamLimit resolves the pacing for one stream.
func (h *Handlers) streamLimit(override string) (rate.Limit, error) {
	sps := h.cfg.StepsPerSecond
	if override != "" {
		v, err := strconv.ParseFloat(override, 64)
		if err != nil || v <= 0 {
			return 0, errors.New("rate must be a positive number")
		}
		sps = v
	}
	if sps <= 0 {
		return rate.Inf, nil
	}
	return rate.Limit(sps), nil
}

// resolveStreamTrace produces the document to stream, writing an error
// response and returning false when it cannot.
func (h *Handlers) resolveStreamTrace(c *gin.Context, logger *slog.Logger) (traceio.Document, bool) {
	ctx := c.Request.Context()
	if id := c.Query("trace"); id != "" {
		doc, err := h.svc.LoadTrace(ctx, id)
		if err != nil {
			h.writeError(c, logger, err)
			return traceio.Document{}, false
		}
		return doc, true
	}

	algorithm := c.Query("algorithm")
	if algorithm == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "either trace or algorithm is required",
			Code:  "INVALID_REQUEST",
		})
		return traceio.Document{}, false
	}
	input, err := dataset.ParseList(c.Query("data"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_INPUT",
		})
		return traceio.Document{}, false
	}
	result, err := h.svc.Run(ctx, algorithm, input)
	if err != nil {
		h.writeError(c, logger, err)
		return traceio.Document{}, false
	}
	return result.Document, true
}

// streamDocument writes the start, step and done frames of doc. It returns
// the number of steps sent.
func streamDocument(ctx context.Context, ws *websocket.Conn, doc traceio.Document, limiter *rate.Limiter) (int, error) {
	summary := doc.Summary
	if err := sendJSON(ws, StreamMessage{
		Type:    StreamStart,
		Summary: &summary,
		Total:   len(doc.Steps),
	}); err != nil {
		return 0, err
	}

	for i := range doc.Steps {
		if err := limiter.Wait(ctx); err != nil {
			return i, err
		}
		if err := sendJSON(ws, StreamMessage{Type: StreamStep, Step: &doc.Steps[i]}); err != nil {
			return i, err
		}
	}

	if err := sendJSON(ws, StreamMessage{Type: StreamDone, Total: len(doc.Steps)}); err != nil {
		return len(doc.Steps), err
	}
	return len(doc.Steps), nil
}
