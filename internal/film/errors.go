package film

import (
	"fmt"
	"strings"
)

// MissingFeatureWarning reports training rows dropped because a feature field was missing.
// It is diagnostic only: the fit still proceeds on the remaining rows.
type MissingFeatureWarning struct {
	Removed int
	Fields  []string
}

func (w *MissingFeatureWarning) String() string {
	return fmt.Sprintf("some fields contained NAs: %d records removed (fields: %s)", w.Removed, strings.Join(w.Fields, ", "))
}

// DegenerateModelError is returned when a regression cannot be fit from the training rows.
type DegenerateModelError struct {
	Rows     int
	Features int
	Cause    error
}

func (e *DegenerateModelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("degenerate model with %d rows and %d features: %v", e.Rows, e.Features, e.Cause)
	}
	return fmt.Sprintf("degenerate model: %d rows cannot determine %d features plus intercept", e.Rows, e.Features)
}

func (e *DegenerateModelError) Unwrap() error {
	return e.Cause
}

// SchemaMismatchError is returned when a record lacks a field a model or scorer needs.
type SchemaMismatchError struct {
	Field string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("unknown field \"%s\"", e.Field)
}

// DegenerateScoreError is returned when R² is undefined for a set of predictions.
type DegenerateScoreError struct {
	Rows int
	RSS  float64
}

func (e *DegenerateScoreError) Error() string {
	if e.Rows == 0 {
		return "cannot score: no rows with both an actual value and a prediction"
	}
	return fmt.Sprintf("cannot score: zero-variance target over %d rows with residual sum of squares %g", e.Rows, e.RSS)
}
