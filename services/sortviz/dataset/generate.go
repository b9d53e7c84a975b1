// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dataset

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-playground/validator/v10"
)

// Pattern selects the shape of generated data.
type Pattern string

const (
	PatternRandom       Pattern = "random"
	PatternSorted       Pattern = "sorted"
	PatternReverse      Pattern = "reverse"
	PatternNearlySorted Pattern = "nearly_sorted"
	PatternDuplicates   Pattern = "duplicates"
)

// Patterns returns every supported pattern.
func Patterns() []Pattern {
	return []Pattern{PatternRandom, PatternSorted, PatternReverse, PatternNearlySorted, PatternDuplicates}
}

// MaxGeneratedSize bounds Options.Size.
const MaxGeneratedSize = 1_000_000

// Options configures Generate.
type Options struct {
	// Size is the number of values. Must be in [0, MaxGeneratedSize].
	Size int `validate:"gte=0,lte=1000000"`

	// Min and Max bound the values, inclusive.
	Min int `validate:"ltefield=Max"`
	Max int

	// Pattern is the data shape. Default: PatternRandom.
	Pattern Pattern

	// Seed makes generation reproducible. Zero seeds from the clock.
	Seed uint64
}

// DefaultOptions returns options for 10 random values in [0, 100].
func DefaultOptions() Options {
	return Options{Size: 10, Min: 0, Max: 100, Pattern: PatternRandom}
}

var optionsValidator = validator.New()

// Generate produces test data.
//
// Description:
//
//	sorted and reverse spread values evenly between Min and Max.
//	nearly_sorted starts sorted and swaps Size/10 random pairs.
//	duplicates draws Size values from a pool of Size/3+1 random values.
//
// Outputs:
//   - []float64: The generated values. Never nil.
//   - error: ErrInvalidOptions or ErrUnknownPattern.
func Generate(opts Options) ([]float64, error) {
	if opts.Pattern == "" {
		opts.Pattern = PatternRandom
	}
	if err := optionsValidator.Struct(opts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	n := opts.Size
	randint := func() float64 {
		return float64(opts.Min + rng.IntN(opts.Max-opts.Min+1))
	}
	step := (opts.Max - opts.Min) / max(n-1, 1)

	out := make([]float64, n)
	switch opts.Pattern {
	case PatternRandom:
		for i := range out {
			out[i] = randint()
		}
	case PatternSorted:
		for i := range out {
			out[i] = float64(opts.Min + i*step)
		}
	case PatternReverse:
		for i := range out {
			out[i] = float64(opts.Max - i*step)
		}
	case PatternNearlySorted:
		for i := range out {
			out[i] = float64(opts.Min + i*step)
		}
		for k := 0; k < n/10; k++ {
			i, j := rng.IntN(n), rng.IntN(n)
			out[i], out[j] = out[j], out[i]
		}
	case PatternDuplicates:
		pool := make([]float64, n/3+1)
		for i := range pool {
			pool[i] = randint()
		}
		for i := range out {
			out[i] = pool[rng.IntN(len(pool))]
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, opts.Pattern)
	}
	return out, nil
}

// ParsePattern validates a pattern name.
func ParsePattern(name string) (Pattern, error) {
	for _, p := range Patterns() {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPattern, name)
}
