// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/AleutianAI/sortviz/services/sortviz/telemetry"
	"github.com/AleutianAI/sortviz/services/sortviz/traceio"
)

var (
	// ErrTraceNotFound is returned when no trace has the requested ID.
	ErrTraceNotFound = errors.New("trace not found")

	// ErrInvalidTraceID is returned for IDs that are not UUIDs.
	ErrInvalidTraceID = errors.New("invalid trace id")
)

const (
	docPrefix  = "trace/doc/"
	metaPrefix = "trace/meta/"
)

// TraceMeta describes a stored trace without its steps.
type TraceMeta struct {
	ID          string    `json:"id"`
	Algorithm   string    `json:"algorithm"`
	ArraySize   int       `json:"array_size"`
	TotalSteps  int       `json:"total_steps"`
	Comparisons int       `json:"comparisons"`
	Swaps       int       `json:"swaps"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
}

// TraceStore persists trace documents.
//
// Description:
//
//	Each trace is stored twice under its UUID: the full document and a
//	small TraceMeta used for listing. Both are written in one transaction.
//	Loaded documents pass the same validation as imported files.
//
// Thread Safety: Safe for concurrent use.
type TraceStore struct {
	db      *DB
	metrics *telemetry.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// TraceStoreOption configures a TraceStore.
type TraceStoreOption func(*TraceStore)

// WithMetrics records store operations on m.
func WithMetrics(m *telemetry.Metrics) TraceStoreOption {
	return func(s *TraceStore) { s.metrics = m }
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) TraceStoreOption {
	return func(s *TraceStore) { s.logger = logger }
}

// NewTraceStore creates a TraceStore on db. db must stay open while the
// store is used.
func NewTraceStore(db *DB, opts ...TraceStoreOption) *TraceStore {
	s := &TraceStore{
		db:     db,
		logger: slog.Default().With(slog.String("component", "trace_store")),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores doc under a new ID.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	doc - The trace to store. It is validated first.
//
// Outputs:
//
//	TraceMeta - Metadata of the stored trace, including its ID.
//	error - Wraps traceio.ErrMalformedTrace for invalid documents.
func (s *TraceStore) Save(ctx context.Context, doc traceio.Document) (meta TraceMeta, err error) {
	defer func() { s.metrics.RecordStoreOp(ctx, "save", err) }()

	if err := traceio.Validate(doc); err != nil {
		return TraceMeta{}, err
	}
	fingerprint, err := traceio.Fingerprint(doc.Steps)
	if err != nil {
		return TraceMeta{}, err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return TraceMeta{}, fmt.Errorf("encoding trace: %w", err)
	}

	meta = TraceMeta{
		ID:          uuid.NewString(),
		Algorithm:   doc.Summary.Algorithm,
		ArraySize:   doc.Summary.ArraySize,
		TotalSteps:  doc.Summary.TotalSteps,
		Comparisons: doc.Summary.Comparisons,
		Swaps:       doc.Summary.Swaps,
		Fingerprint: fingerprint,
		CreatedAt:   s.now().UTC(),
	}
	metaBody, err := json.Marshal(meta)
	if err != nil {
		return TraceMeta{}, fmt.Errorf("encoding trace meta: %w", err)
	}

	err = s.db.Update(ctx, func(txn *badger.Txn) error {
		if err := txn.Set([]byte(docPrefix+meta.ID), body); err != nil {
			return err
		}
		return txn.Set([]byte(metaPrefix+meta.ID), metaBody)
	})
	if err != nil {
		return TraceMeta{}, fmt.Errorf("saving trace: %w", err)
	}

	s.logger.Debug("trace saved",
		slog.String("id", meta.ID),
		slog.String("algorithm", meta.Algorithm),
		slog.Int("steps", meta.TotalSteps),
	)
	return meta, nil
}

// Load returns the document stored under id.
func (s *TraceStore) Load(ctx context.Context, id string) (doc traceio.Document, err error) {
	defer func() { s.metrics.RecordStoreOp(ctx, "load", err) }()

	id, err = canonicalID(id)
	if err != nil {
		return traceio.Document{}, err
	}

	var body []byte
	err = s.db.View(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(docPrefix + id))
		if err != nil {
			return err
		}
		body, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return traceio.Document{}, fmt.Errorf("%w: %s", ErrTraceNotFound, id)
	}
	if err != nil {
		return traceio.Document{}, fmt.Errorf("loading trace: %w", err)
	}
	return traceio.Unmarshal(body)
}

// Meta returns the metadata stored under id.
func (s *TraceStore) Meta(ctx context.Context, id string) (TraceMeta, error) {
	id, err := canonicalID(id)
	if err != nil {
		return TraceMeta{}, err
	}

	var meta TraceMeta
	err = s.db.View(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return TraceMeta{}, fmt.Errorf("%w: %s", ErrTraceNotFound, id)
	}
	if err != nil {
		return TraceMeta{}, fmt.Errorf("loading trace meta: %w", err)
	}
	return meta, nil
}

// List returns metadata of every stored trace, oldest first.
func (s *TraceStore) List(ctx context.Context) (metas []TraceMeta, err error) {
	defer func() { s.metrics.RecordStoreOp(ctx, "list", err) }()

	metas = []TraceMeta{}
	err = s.db.View(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(metaPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var meta TraceMeta
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			})
			if err != nil {
				return fmt.Errorf("decoding %s: %w", bytes.Clone(it.Item().Key()), err)
			}
			metas = append(metas, meta)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing traces: %w", err)
	}

	slices.SortFunc(metas, func(a, b TraceMeta) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return metas, nil
}

// Delete removes the trace stored under id.
func (s *TraceStore) Delete(ctx context.Context, id string) (err error) {
	defer func() { s.metrics.RecordStoreOp(ctx, "delete", err) }()

	id, err = canonicalID(id)
	if err != nil {
		return err
	}
	err = s.db.Update(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(metaPrefix + id)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(docPrefix + id)); err != nil {
			return err
		}
		return txn.Delete([]byte(metaPrefix + id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrTraceNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("deleting trace: %w", err)
	}
	s.logger.Debug("trace deleted", slog.String("id", id))
	return nil
}

// canonicalID returns id in the lowercase hyphenated form keys are built
// from. Braced, urn:uuid: and uppercase spellings resolve to the same trace.
func canonicalID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTraceID, id)
	}
	return u.String(), nil
}
