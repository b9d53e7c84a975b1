// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dataset loads, saves and generates input sequences for sortviz.
//
// Text datasets hold one numeric literal per line. Blank lines are skipped.
// Integers and floating point values may be mixed freely.
package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AleutianAI/sortviz/services/sortviz/algorithms"
)

var (
	// ErrInvalidNumber indicates a token that is not a numeric literal.
	ErrInvalidNumber = errors.New("invalid number")

	// ErrNonFinite indicates a NaN or infinite value.
	ErrNonFinite = errors.New("non-finite value")

	// ErrUnknownPattern indicates an unsupported generation pattern.
	ErrUnknownPattern = errors.New("unknown pattern")

	// ErrInvalidOptions indicates generation options that fail validation.
	ErrInvalidOptions = errors.New("invalid generation options")
)

// =============================================================================
// Reading
// =============================================================================

// Read parses one number per non-empty line from r.
//
// Inputs:
//   - r: The source.
//   - source: Name used in error messages, e.g. the file path.
//
// Outputs:
//   - []float64: The values in order. Never nil.
//   - error: Wraps ErrInvalidNumber naming the offending line.
func Read(r io.Reader, source string) ([]float64, error) {
	values := []float64{}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			continue
		}
		v, err := parseNumber(s)
		if err != nil {
			return nil, fmt.Errorf("%w in %s at line %d: %s", err, source, line, s)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	return values, nil
}

// ReadFile parses the dataset at path.
func ReadFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()
	return Read(f, path)
}

// ParseList parses values separated by commas and/or whitespace, as typed
// by a user: "3, 1, 2" or "3 1 2".
func ParseList(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	values := make([]float64, 0, len(fields))
	for i, f := range fields {
		v, err := parseNumber(f)
		if err != nil {
			return nil, fmt.Errorf("%w at position %d: %s", err, i+1, f)
		}
		values = append(values, v)
	}
	return values, nil
}

// parseNumber accepts integer and floating point literals.
func parseNumber(s string) (float64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return float64(n), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidNumber
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNonFinite
	}
	return v, nil
}

// Validate rejects NaN and infinite values, which have no total order.
func Validate(values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w at index %d", ErrNonFinite, i)
		}
	}
	return nil
}

// =============================================================================
// Writing
// =============================================================================

// Write writes one value per line. Whole numbers are written without a
// fractional part.
func Write(w io.Writer, values []float64) error {
	bw := bufio.NewWriter(w)
	for _, v := range values {
		if _, err := bw.WriteString(algorithms.FormatValue(v) + "\n"); err != nil {
			return fmt.Errorf("writing dataset: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}
	return nil
}

// SaveFile writes values to path, creating parent directories.
func SaveFile(path string, values []float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating dataset: %w", err)
	}
	if err := Write(f, values); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
