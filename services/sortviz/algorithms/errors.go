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

import "errors"

var (
	// ErrUnknownKind indicates that no catalog entry exists for a Kind.
	ErrUnknownKind = errors.New("unknown algorithm kind")

	// ErrInvalidCatalog indicates that the embedded catalog failed to load.
	ErrInvalidCatalog = errors.New("invalid algorithm catalog")
)
