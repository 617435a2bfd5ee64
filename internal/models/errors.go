package models

import (
	"fmt"
	"strings"
)

// ValidationError represents a data validation error on a single row.
// The row is dropped; it never aborts a stage.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}

// NetworkError is returned when a download fails in transport or with a non-success status
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsTransient returns true for transport failures and 5xx responses.
// Nothing retries on it; it only classifies the failure for logs.
func (e *NetworkError) IsTransient() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}

// SchemaError is returned when a CSV header has none of the columns a stage needs
type SchemaError struct {
	Path    string
	Missing []string
	Columns []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("no usable data in %s: missing %s (columns: %s)",
		e.Path, strings.Join(e.Missing, ", "), strings.Join(e.Columns, ", "))
}

// IsTransient returns false as schema errors are permanent
func (e *SchemaError) IsTransient() bool {
	return false
}

// InsufficientDataError is returned when a computation has too few observations
type InsufficientDataError struct {
	Operation string
	Required  int
	Got       int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s requires at least %d observations, got %d", e.Operation, e.Required, e.Got)
}

// IsTransient returns false as the input will not grow by itself
func (e *InsufficientDataError) IsTransient() bool {
	return false
}

// MissingInputError is returned when an optional input file is absent or unusable
type MissingInputError struct {
	Path   string
	Reason string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("optional input %s unavailable: %s", e.Path, e.Reason)
}

// IsTransient returns false as the file will not appear by itself
func (e *MissingInputError) IsTransient() bool {
	return false
}
