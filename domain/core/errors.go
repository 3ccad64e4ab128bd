package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrResultNotFound  = fmt.Errorf("%w: analysis result", ErrNotFound)
	ErrDatasetNotFound = fmt.Errorf("%w: dataset", ErrNotFound)

	// Validation errors
	ErrMissingConfig    = errors.New("analysis config is required")
	ErrMissingDataset   = errors.New("dataset is required")
	ErrInvalidParameter = errors.New("invalid analysis parameter")
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrUnsupportedType  = errors.New("unsupported analysis type")

	// Lifecycle errors
	ErrResultFinalized = errors.New("analysis result already finalized")
	ErrPoolClosed      = errors.New("worker pool closed")
	ErrTimeout         = errors.New("analysis timed out")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewParameterError(field string, reason string) error {
	return fmt.Errorf("%w %s: %s", ErrInvalidParameter, field, reason)
}

func NewInsufficientDataError(required, actual int, what string) error {
	return fmt.Errorf("%w: need at least %d %s, got %d", ErrInsufficientData, required, what, actual)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrMissingConfig) ||
		errors.Is(err, ErrMissingDataset) ||
		errors.Is(err, ErrInvalidParameter) ||
		errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrUnsupportedType)
}
