// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation checks user-provided names before they reach storage
// keys or object paths.
//
// Trace names end up in Cloud Storage object paths and algorithm identifiers
// end up in database keys, metric labels and URLs. Validating them up front
// keeps path traversal and label explosions out of those layers.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxObjectNameLength caps a published trace name.
const MaxObjectNameLength = 200

// algorithmIDPattern matches lowercase snake_case identifiers.
var algorithmIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// objectSegmentPattern matches one path segment of an object name.
var objectSegmentPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidateAlgorithmID validates an algorithm identifier such as "merge_sort".
//
// Valid identifiers:
//   - 1-64 characters
//   - Start with a lowercase letter
//   - Lowercase letters, digits and underscores only
func ValidateAlgorithmID(id string) error {
	if id == "" {
		return fmt.Errorf("algorithm id cannot be empty")
	}
	if !algorithmIDPattern.MatchString(id) {
		return fmt.Errorf("invalid algorithm id %q (must be lowercase snake_case, at most 64 chars)", id)
	}
	return nil
}

// ValidateObjectName validates a name used to build an object path.
//
// Names may contain slash-separated segments of letters, digits, dots,
// underscores and hyphens. Absolute paths, empty segments and "." or ".."
// segments are rejected.
//
// Example:
//
//	if err := validation.ValidateObjectName(name); err != nil {
//	    return "", fmt.Errorf("publish: %w", err)
//	}
func ValidateObjectName(name string) error {
	if name == "" {
		return fmt.Errorf("object name cannot be empty")
	}
	if len(name) > MaxObjectNameLength {
		return fmt.Errorf("object name too long: %d chars (max %d)", len(name), MaxObjectNameLength)
	}
	if strings.HasPrefix(name, "/") {
		return fmt.Errorf("object name %q must be relative", name)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("object name %q has an invalid path segment", name)
		}
		if !objectSegmentPattern.MatchString(seg) {
			return fmt.Errorf("object name %q contains unsupported characters", name)
		}
	}
	return nil
}

// SanitizeObjectName trims surrounding whitespace and validates the result.
func SanitizeObjectName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if err := ValidateObjectName(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}
