// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package compare

import "errors"

var (
	// ErrInvalidMetric indicates a ranking metric name that is not recognized.
	ErrInvalidMetric = errors.New("invalid metric")

	// ErrNoResults indicates that the comparator holds no results.
	ErrNoResults = errors.New("no results")

	// ErrNilConstructor indicates that AddAlgorithm received a nil constructor.
	ErrNilConstructor = errors.New("constructor must not be nil")

	// ErrNilAlgorithm indicates that AddResult received a nil algorithm.
	ErrNilAlgorithm = errors.New("algorithm must not be nil")
)
