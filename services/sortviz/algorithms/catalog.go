// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package algorithms

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Catalog
// =============================================================================

//go:embed catalog.yaml
var catalogYAML []byte

// Info is the static complexity information of an algorithm family.
type Info struct {
	ID              string `json:"id" yaml:"id" validate:"required"`
	DisplayName     string `json:"display_name" yaml:"display_name" validate:"required"`
	TimeComplexity  string `json:"time_complexity" yaml:"time_complexity" validate:"required"`
	SpaceComplexity string `json:"space_complexity" yaml:"space_complexity" validate:"required"`
	Stability       string `json:"stability" yaml:"stability" validate:"required"`
	Description     string `json:"description" yaml:"description" validate:"required"`
}

type catalogFile struct {
	Algorithms []Info `yaml:"algorithms" validate:"required,min=1,dive"`
}

var (
	catalogOnce    sync.Once
	catalogEntries map[Kind]Info
	catalogOrder   []Kind
	catalogErr     error
)

// loadCatalog parses the embedded catalog on first use.
func loadCatalog() (map[Kind]Info, []Kind, error) {
	catalogOnce.Do(func() {
		catalogEntries, catalogOrder, catalogErr = parseCatalog(catalogYAML)
	})
	return catalogEntries, catalogOrder, catalogErr
}

func parseCatalog(data []byte) (map[Kind]Info, []Kind, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := validator.New().Struct(file); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	entries := make(map[Kind]Info, len(file.Algorithms))
	order := make([]Kind, 0, len(file.Algorithms))
	for _, info := range file.Algorithms {
		k := Kind(info.ID)
		if _, dup := entries[k]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidCatalog, info.ID)
		}
		entries[k] = info
		order = append(order, k)
	}
	return entries, order, nil
}

// Catalog returns every catalog entry in catalog order.
//
// Outputs:
//   - []Info: Entries in registry order.
//   - error: Wraps ErrInvalidCatalog if the embedded catalog is broken.
func Catalog() ([]Info, error) {
	entries, order, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	out := make([]Info, 0, len(order))
	for _, k := range order {
		out = append(out, entries[k])
	}
	return out, nil
}

// FindInfo returns the catalog entry for kind.
//
// Outputs:
//   - Info: The entry.
//   - error: ErrUnknownKind if kind is not catalogued.
func FindInfo(kind Kind) (Info, error) {
	entries, _, err := loadCatalog()
	if err != nil {
		return Info{}, err
	}
	info, ok := entries[kind]
	if !ok {
		return Info{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return info, nil
}

// LookupInfo returns the catalog entry for kind. It panics if kind is not
// catalogued; use FindInfo for untrusted input.
func LookupInfo(kind Kind) Info {
	info, err := FindInfo(kind)
	if err != nil {
		panic(err)
	}
	return info
}
