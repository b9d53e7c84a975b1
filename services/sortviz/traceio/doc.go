// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package traceio exports and imports sortviz traces.
//
// A trace document holds a summary block and the ordered list of steps of one
// algorithm run. Exported documents import back to values equal to the
// originals. Imports are validated against an embedded JSON schema and the
// trace invariants; any failure is reported as ErrMalformedTrace and nothing
// is partially reconstructed.
package traceio
