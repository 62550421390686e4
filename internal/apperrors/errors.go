package apperrors

import (
	"errors"
	"fmt"
)

// DataAccessError means the record file (or another backing source) could not
// be read. It is fatal during startup.
type DataAccessError struct {
	Path string
	Err  error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("data access failed for %s: %v", e.Path, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }

func NewDataAccessError(path string, err error) *DataAccessError {
	return &DataAccessError{Path: path, Err: err}
}

// ExtractionFailure means the entity-extraction fallback call failed. It is
// always recovered locally and resolves to the Unknown sentinel.
type ExtractionFailure struct {
	Err error
}

func (e *ExtractionFailure) Error() string {
	return fmt.Sprintf("entity extraction failed: %v", e.Err)
}

func (e *ExtractionFailure) Unwrap() error { return e.Err }

// GenerationFailure means a collaborator call (question synthesis, extraction
// fallback or final recommendation) failed. Recovered at the call site and
// surfaced as an apology string, never as a raw error.
type GenerationFailure struct {
	Stage string // "question", "extraction", "recommendation"
	Err   error
}

func (e *GenerationFailure) Error() string {
	return fmt.Sprintf("generation failed at %s: %v", e.Stage, e.Err)
}

func (e *GenerationFailure) Unwrap() error { return e.Err }

func NewGenerationFailure(stage string, err error) *GenerationFailure {
	return &GenerationFailure{Stage: stage, Err: err}
}

// ErrEmptyResult marks a generation call that returned empty output. Distinct
// from GenerationFailure so callers can show guidance instead of an apology.
var ErrEmptyResult = errors.New("generation returned empty output")

const (
	// EmptyResultMessage is shown when the model produced no usable text
	EmptyResultMessage = "I could not produce a recommendation from the available study data. " +
		"Please try rephrasing your question or provide more detail about the diagnosis."

	apologyPrefix = "I'm sorry, something went wrong while preparing your recommendation. " +
		"Please try again in a moment."
)

// Apology formats the fixed user-facing apology. The technical detail is
// appended in a clearly marked developer suffix so it never reads as part of
// the clinical answer.
func Apology(err error) string {
	if err == nil {
		return apologyPrefix
	}
	return fmt.Sprintf("%s (for developers: %v)", apologyPrefix, err)
}

// IsDataAccess reports whether err wraps a DataAccessError
func IsDataAccess(err error) bool {
	var target *DataAccessError
	return errors.As(err, &target)
}

// IsGenerationFailure reports whether err wraps a GenerationFailure
func IsGenerationFailure(err error) bool {
	var target *GenerationFailure
	return errors.As(err, &target)
}
