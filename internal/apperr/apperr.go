// Package apperr defines the local error kinds shared by the pipeline
// components: bad user input, capacity limits and out-of-range indices.
// Remote failures live with the media service client.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports input that was rejected before any state changed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CapacityError is returned when a bounded collection is already full.
// It is a kind of validation failure.
type CapacityError struct {
	What  string
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s limit reached: at most %d allowed", e.What, e.Limit)
}

// RangeError reports an index outside the bounds of a local collection.
type RangeError struct {
	What  string
	Index int
	Len   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s index %d out of range [0,%d)", e.What, e.Index, e.Len)
}

func Validation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError or a CapacityError.
func IsValidation(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	var ce *CapacityError
	return errors.As(err, &ce)
}

func IsRange(err error) bool {
	var re *RangeError
	return errors.As(err, &re)
}

// IsLocal reports whether err is one of the kinds handled without any
// remote call: validation, capacity or range.
func IsLocal(err error) bool {
	return IsValidation(err) || IsRange(err)
}
