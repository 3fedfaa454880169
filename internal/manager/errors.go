package manager

import (
	"errors"

	"g2pd/internal/backend"
)

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ key string }

func (e tooBusyError) Error() string { return "too busy: " + e.key }

// ErrTooBusy returns the backpressure error for the given queue key.
func ErrTooBusy(key string) error { return tooBusyError{key: key} }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var target tooBusyError
	return errors.As(err, &target)
}

// modelNotFoundError is returned when a requested variant is not present in the catalog.
type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.id }

// ErrModelNotFound returns an error for a variant name missing from the catalog.
func ErrModelNotFound(id string) error { return modelNotFoundError{id: id} }

// IsModelNotFound reports whether the error indicates a missing variant.
func IsModelNotFound(err error) bool {
	var target modelNotFoundError
	return errors.As(err, &target)
}

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool { return backend.IsDependencyUnavailable(err) }
