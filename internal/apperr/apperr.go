// Package apperr defines the error kinds shared by the detection and scoring
// stages.
//
// Stages wrap these sentinels with context using fmt.Errorf and %w, so callers
// test for a kind with errors.Is:
//
//	if errors.Is(err, apperr.ErrInvalidInput) {
//	    // bad image or configuration, nothing ran
//	}
//
// A layout with zero detected boxes is not an error. It is reported through
// pipeline.Result.Degenerate with a score of 0.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a malformed image (zero dimensions, undecodable)
	// or an out-of-range configuration value. The pipeline stops before any
	// stage runs.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRenderFailure marks a visualization failure. It never invalidates
	// the score computed for the same image.
	ErrRenderFailure = errors.New("render failure")
)

// InvalidInputf returns an error wrapping ErrInvalidInput with a formatted message.
func InvalidInputf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// RenderFailuref returns an error wrapping ErrRenderFailure with a formatted message.
func RenderFailuref(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrRenderFailure, fmt.Sprintf(format, args...))
}
