package tabular

import (
	"errors"
	"fmt"
)

// Common loading errors
var (
	// ErrEmptySheet is returned when the first sheet of a workbook has no rows.
	ErrEmptySheet = errors.New("sheet contains no rows")

	// ErrHeaderNotFound is returned when no row matches the header predicate.
	ErrHeaderNotFound = errors.New("header row not found")

	// ErrMissingColumn is returned when a required column is absent from the header row.
	ErrMissingColumn = errors.New("missing required column")

	// ErrUnreadableWorkbook is returned when the input is not a readable .xlsx workbook.
	ErrUnreadableWorkbook = errors.New("unreadable workbook")
)

// LoadError wraps errors with the file and operation that failed while loading a table.
type LoadError struct {
	// Op is the operation that failed (e.g., "ReadFirstSheet", "Column").
	Op string

	// File is the display name of the uploaded file, if known.
	File string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	prefix := "tabular: " + e.Op
	if e.File != "" {
		prefix = fmt.Sprintf("tabular: %s (%s)", e.Op, e.File)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s failed: %s: %v", prefix, e.Details, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", prefix, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *LoadError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewLoadError creates a new LoadError.
func NewLoadError(op, file string, err error, details string) *LoadError {
	return &LoadError{
		Op:      op,
		File:    file,
		Err:     err,
		Details: details,
	}
}
