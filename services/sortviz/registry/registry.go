// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package registry maps algorithm identifiers to constructors and static
// complexity information.
//
// A Registry is built explicitly with New and passed to its users. It holds
// no mutable state after construction and is safe for concurrent use.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/sortviz/pkg/validation"
	"github.com/AleutianAI/sortviz/services/sortviz/algorithms"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrUnknownAlgorithm indicates that an identifier is not registered.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// =============================================================================
// Prometheus Metrics
// =============================================================================

var registryLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sortviz_registry_lookups_total",
	Help: "Total registry lookups by operation and result",
}, []string{"operation", "result"})

func recordLookup(operation string, err error) {
	result := "hit"
	if err != nil {
		result = "miss"
	}
	registryLookups.WithLabelValues(operation, result).Inc()
}

// =============================================================================
// Registry
// =============================================================================

// Entry is one registered algorithm.
type Entry struct {
	ID          string
	Constructor algorithms.Constructor
	Info        algorithms.Info
}

// Registry is an immutable table of algorithms.
//
// Thread Safety: Safe for concurrent use.
type Registry struct {
	entries map[string]Entry
	order   []string
}

// constructors binds every algorithm family to its constructor.
var constructors = map[algorithms.Kind]algorithms.Constructor{
	algorithms.KindMerge: func(in []float64, opts ...algorithms.Option) algorithms.Algorithm {
		return algorithms.NewMergeSort(in, opts...)
	},
	algorithms.KindQuick: func(in []float64, opts ...algorithms.Option) algorithms.Algorithm {
		return algorithms.NewQuickSort(in, opts...)
	},
	algorithms.KindSelection: func(in []float64, opts ...algorithms.Option) algorithms.Algorithm {
		return algorithms.NewSelectionSort(in, opts...)
	},
	algorithms.KindPriorityQueue: func(in []float64, opts ...algorithms.Option) algorithms.Algorithm {
		return algorithms.NewPriorityQueueSort(in, opts...)
	},
}

// New builds the registry of every built-in algorithm in catalog order.
//
// Outputs:
//   - *Registry: The registry.
//   - error: Non-nil if the catalog is broken or names an algorithm without
//     a constructor.
func New() (*Registry, error) {
	infos, err := algorithms.Catalog()
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	r := &Registry{
		entries: make(map[string]Entry, len(infos)),
		order:   make([]string, 0, len(infos)),
	}
	for _, info := range infos {
		if err := validation.ValidateAlgorithmID(info.ID); err != nil {
			return nil, fmt.Errorf("catalog entry: %w", err)
		}
		ctor, ok := constructors[algorithms.Kind(info.ID)]
		if !ok {
			return nil, fmt.Errorf("catalog entry %q has no constructor", info.ID)
		}
		r.entries[info.ID] = Entry{ID: info.ID, Constructor: ctor, Info: info}
		r.order = append(r.order, info.ID)
	}
	return r, nil
}

// MustNew is New for program initialization. It panics on error.
func MustNew() *Registry {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Available returns the registered identifiers in a fixed order.
func (r *Registry) Available() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Entries returns every entry in registry order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

// Create constructs the algorithm registered as id over a copy of input.
//
// Description:
//
//	The display name defaults to id. Options are applied after the default,
//	so WithName overrides it.
//
// Outputs:
//   - algorithms.Algorithm: A fresh, un-run instance.
//   - error: ErrUnknownAlgorithm if id is not registered.
func (r *Registry) Create(id string, input []float64, opts ...algorithms.Option) (algorithms.Algorithm, error) {
	e, err := r.lookup(id)
	recordLookup("create", err)
	if err != nil {
		return nil, err
	}
	all := append([]algorithms.Option{algorithms.WithName(id)}, opts...)
	return e.Constructor(input, all...), nil
}

// Constructor returns the constructor registered as id.
//
// The returned constructor keeps the family's default display name.
func (r *Registry) Constructor(id string) (algorithms.Constructor, error) {
	e, err := r.lookup(id)
	recordLookup("constructor", err)
	if err != nil {
		return nil, err
	}
	return e.Constructor, nil
}

// Info returns the static information of id without running anything.
func (r *Registry) Info(id string) (algorithms.Info, error) {
	e, err := r.lookup(id)
	recordLookup("info", err)
	if err != nil {
		return algorithms.Info{}, err
	}
	return e.Info, nil
}

func (r *Registry) lookup(id string) (Entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownAlgorithm, id, strings.Join(r.order, ", "))
	}
	return e, nil
}
