// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package traceio

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/AleutianAI/sortviz/services/sortviz/algorithms"
	"github.com/gowebpki/jcs"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// FormatVersion is the document version written by this package.
const FormatVersion = 1

// MaxDocumentBytes bounds the size of an imported document.
const MaxDocumentBytes = 256 << 20

// =============================================================================
// Document
// =============================================================================

// Summary is the summary block of a trace document.
type Summary struct {
	Algorithm       string          `json:"algorithm"`
	ArraySize       int             `json:"array_size"`
	ExecutionTimeNS int64           `json:"execution_time_ns"`
	ExecutionTime   float64         `json:"execution_time"`
	Comparisons     int             `json:"comparisons"`
	Swaps           int             `json:"swaps"`
	TotalSteps      int             `json:"total_steps"`
	ComplexityInfo  algorithms.Info `json:"complexity_info"`
}

// SummaryFrom converts a run summary. ExecutionTime is in seconds.
func SummaryFrom(s algorithms.Summary) Summary {
	return Summary{
		Algorithm:       s.Algorithm,
		ArraySize:       s.ArraySize,
		ExecutionTimeNS: int64(s.ExecutionTime),
		ExecutionTime:   s.ExecutionTime.Seconds(),
		Comparisons:     s.Comparisons,
		Swaps:           s.Swaps,
		TotalSteps:      s.TotalSteps,
		ComplexityInfo:  s.Complexity,
	}
}

// RunSummary converts back to a run summary.
func (s Summary) RunSummary() algorithms.Summary {
	return algorithms.Summary{
		Algorithm:     s.Algorithm,
		ArraySize:     s.ArraySize,
		ExecutionTime: time.Duration(s.ExecutionTimeNS),
		Comparisons:   s.Comparisons,
		Swaps:         s.Swaps,
		TotalSteps:    s.TotalSteps,
		Complexity:    s.ComplexityInfo,
	}
}

// Document is a persisted trace.
type Document struct {
	Version int               `json:"version"`
	Summary Summary           `json:"summary"`
	Steps   []algorithms.Step `json:"steps"`
}

// NewDocument captures the summary and trace of a completed algorithm.
func NewDocument(a algorithms.Algorithm) Document {
	return FromParts(algorithms.Summarize(a), a.Steps())
}

// FromParts builds a document from a summary and a trace.
func FromParts(s algorithms.Summary, steps []algorithms.Step) Document {
	if steps == nil {
		steps = []algorithms.Step{}
	}
	return Document{
		Version: FormatVersion,
		Summary: SummaryFrom(s),
		Steps:   steps,
	}
}

// FinalState returns the array state of the last step, or nil for an empty
// trace.
func (d Document) FinalState() []float64 {
	if len(d.Steps) == 0 {
		return nil
	}
	return d.Steps[len(d.Steps)-1].Clone().ArrayState
}

// =============================================================================
// Export
// =============================================================================

// Marshal encodes doc as indented JSON.
func Marshal(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding trace: %w", err)
	}
	return data, nil
}

// Encode writes doc to w.
func Encode(w io.Writer, doc Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	return nil
}

// ExportFile writes doc to path, creating parent directories.
func ExportFile(path string, doc Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// Import
// =============================================================================

//go:embed trace.schema.json
var traceSchemaJSON string

const traceSchemaURL = "https://sortviz.schemas.local/trace.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func traceSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(traceSchemaURL, strings.NewReader(traceSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("trace schema load failed: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(traceSchemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("trace schema compile failed: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// Unmarshal decodes and validates a document.
//
// Outputs:
//   - Document: The decoded document.
//   - error: Wraps ErrMalformedTrace if data is not a valid trace.
func Unmarshal(data []byte) (Document, error) {
	schema, err := traceSchema()
	if err != nil {
		return Document{}, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedTrace, err)
	}
	if err := schema.Validate(generic); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedTrace, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedTrace, err)
	}
	if err := Validate(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Decode reads and validates a document from r.
func Decode(r io.Reader) (Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentBytes+1))
	if err != nil {
		return Document{}, fmt.Errorf("reading trace: %w", err)
	}
	if len(data) > MaxDocumentBytes {
		return Document{}, fmt.Errorf("%w: document exceeds %d bytes", ErrMalformedTrace, MaxDocumentBytes)
	}
	return Unmarshal(data)
}

// ImportFile reads and validates the document at path.
func ImportFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Validate checks the trace invariants of doc.
//
// Description:
//
//	Sequence numbers must be exactly 1..N, every array state must have
//	Summary.ArraySize values, every index must lie inside the array state
//	and no index set may repeat a position. Summary.TotalSteps must equal N.
//
// Outputs:
//   - error: Wraps ErrMalformedTrace on the first violation.
func Validate(doc Document) error {
	if doc.Version != FormatVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrMalformedTrace, doc.Version)
	}
	if doc.Summary.TotalSteps != len(doc.Steps) {
		return fmt.Errorf("%w: summary reports %d steps, document has %d",
			ErrMalformedTrace, doc.Summary.TotalSteps, len(doc.Steps))
	}
	n := doc.Summary.ArraySize
	for i, s := range doc.Steps {
		if s.Sequence != i+1 {
			return fmt.Errorf("%w: step %d has step_number %d", ErrMalformedTrace, i+1, s.Sequence)
		}
		if len(s.ArrayState) != n {
			return fmt.Errorf("%w: step %d has %d values, want %d",
				ErrMalformedTrace, s.Sequence, len(s.ArrayState), n)
		}
		sets := []struct {
			name string
			idx  []int
		}{
			{"highlighted_indices", s.Highlighted},
			{"comparison_indices", s.Compared},
			{"swapped_indices", s.Swapped},
		}
		for _, set := range sets {
			if err := checkIndexSet(set.idx, n); err != nil {
				return fmt.Errorf("%w: step %d %s: %v", ErrMalformedTrace, s.Sequence, set.name, err)
			}
		}
		if s.Pivot != nil && (*s.Pivot < 0 || *s.Pivot >= n) {
			return fmt.Errorf("%w: step %d pivot_index %d out of range", ErrMalformedTrace, s.Sequence, *s.Pivot)
		}
	}
	return nil
}

func checkIndexSet(set []int, n int) error {
	if set == nil {
		return errors.New("missing")
	}
	seen := make(map[int]struct{}, len(set))
	for _, i := range set {
		if i < 0 || i >= n {
			return fmt.Errorf("index %d out of range", i)
		}
		if _, dup := seen[i]; dup {
			return fmt.Errorf("index %d repeated", i)
		}
		seen[i] = struct{}{}
	}
	return nil
}

// =============================================================================
// Fingerprint
// =============================================================================

// Fingerprint returns the hex SHA-256 of the RFC 8785 canonical JSON of steps.
//
// Two traces have the same fingerprint exactly when they record the same
// events, regardless of how their documents were formatted.
func Fingerprint(steps []algorithms.Step) (string, error) {
	if steps == nil {
		steps = []algorithms.Step{}
	}
	raw, err := json.Marshal(steps)
	if err != nil {
		return "", fmt.Errorf("encoding steps: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalizing steps: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
