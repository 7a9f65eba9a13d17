package engine

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidOptions is returned when analysis options fail validation
var ErrInvalidOptions = errors.New("invalid analysis options")

// ChunkFailure decides what a failed model call for one chunk does to the analysis
type ChunkFailure string

const (
	// ChunkFailureDegrade records the failure and continues; the chunk yields no findings
	ChunkFailureDegrade ChunkFailure = "degrade"
	// ChunkFailureAbort cancels the remaining chunks and fails the analysis
	ChunkFailureAbort ChunkFailure = "abort"
)

// weightTolerance is how far the weight sum may drift from 1.0
const weightTolerance = 1e-6

// Options configures one Analyzer
type Options struct {
	Weights              map[Theme]float64
	ChunkSize            int
	Overlap              int
	Concurrency          int
	ModelTimeout         time.Duration
	ModelRetries         int
	ChunkFailure         ChunkFailure
	DefaultJurisdictions []string
	Scope                string
}

// DefaultWeights is the weight map used when none is configured
func DefaultWeights() map[Theme]float64 {
	return map[Theme]float64{
		ThemePrivacy:          0.35,
		ThemeSecurityControls: 0.25,
		ThemeContractFairness: 0.15,
		ThemeVendorSharing:    0.10,
		ThemeDomainExemption:  0.15,
	}
}

// DefaultOptions returns options that pass Validate
func DefaultOptions() Options {
	return Options{
		Weights:              DefaultWeights(),
		ChunkSize:            6000,
		Overlap:              400,
		Concurrency:          4,
		ModelTimeout:         60 * time.Second,
		ModelRetries:         1,
		ChunkFailure:         ChunkFailureDegrade,
		DefaultJurisdictions: []string{"AU"},
	}
}

// Validate fails fast on weights that do not sum to 1.0 and on impossible chunk bounds
func (o Options) Validate() error {
	if len(o.Weights) == 0 {
		return fmt.Errorf("%w: no weights configured", ErrInvalidOptions)
	}
	var sum float64
	for theme, w := range o.Weights {
		if !theme.Valid() {
			return fmt.Errorf("%w: unknown theme %q in weights", ErrInvalidOptions, theme)
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight for %s must be a non-negative number, got %v", ErrInvalidOptions, theme, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights must sum to 1.0, got %.6f", ErrInvalidOptions, sum)
	}
	if o.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidOptions, o.ChunkSize)
	}
	if o.Overlap < 0 || o.Overlap >= o.ChunkSize {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidOptions, o.ChunkSize, o.Overlap)
	}
	if o.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalidOptions, o.Concurrency)
	}
	if o.ModelTimeout < 0 {
		return fmt.Errorf("%w: model timeout cannot be negative", ErrInvalidOptions)
	}
	if o.ModelRetries < 0 {
		return fmt.Errorf("%w: model retries cannot be negative", ErrInvalidOptions)
	}
	switch o.ChunkFailure {
	case ChunkFailureDegrade, ChunkFailureAbort, "":
	default:
		return fmt.Errorf("%w: unknown chunk failure policy %q", ErrInvalidOptions, o.ChunkFailure)
	}
	return nil
}
