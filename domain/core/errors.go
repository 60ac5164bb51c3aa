package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Pipeline-level errors (abort the whole run)
	ErrDataSource    = errors.New("data source unavailable")
	ErrParse         = fmt.Errorf("%w: parse failure", ErrDataSource)
	ErrConfigInvalid = errors.New("invalid configuration")

	// Group-level errors (recorded per group, never escalated)
	ErrInsufficientData  = errors.New("insufficient data for regression")
	ErrNumericDegeneracy = errors.New("non-finite regression result")

	// Lookup errors
	ErrNotFound       = errors.New("resource not found")
	ErrColumnNotFound = fmt.Errorf("%w: column", ErrNotFound)
	ErrRunNotFound    = fmt.Errorf("%w: run", ErrNotFound)
)

// Error constructors with context
func NewDataSourceError(source string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDataSource, source, err)
}

func NewConfigError(param string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrConfigInvalid, param, reason)
}

func NewInsufficientDataError(entity, crop string, distinctYears int) error {
	return fmt.Errorf("%w: group (%s, %s) has %d distinct year(s)", ErrInsufficientData, entity, crop, distinctYears)
}

func NewDegeneracyError(entity, crop string, field string) error {
	return fmt.Errorf("%w: group (%s, %s) produced non-finite %s", ErrNumericDegeneracy, entity, crop, field)
}

// Error checking helpers
func IsDataSourceError(err error) bool {
	return errors.Is(err, ErrDataSource)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfigInvalid)
}

// IsGroupError reports whether err is recoverable at group granularity.
func IsGroupError(err error) bool {
	return errors.Is(err, ErrInsufficientData) || errors.Is(err, ErrNumericDegeneracy)
}
