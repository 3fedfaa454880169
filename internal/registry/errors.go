package registry

import (
	"errors"
	"fmt"
)

// familyNotFoundError is returned when a base family is absent from the catalog.
type familyNotFoundError struct{ name string }

func (e familyNotFoundError) Error() string { return fmt.Sprintf("model family not found: %s", e.name) }

// ErrFamilyNotFound constructs a familyNotFoundError.
func ErrFamilyNotFound(name string) error { return familyNotFoundError{name: name} }

// IsFamilyNotFound reports whether err is a family-not-found error.
func IsFamilyNotFound(err error) bool {
	var target familyNotFoundError
	return errors.As(err, &target)
}

// invalidCatalogError describes a structurally broken catalog.
type invalidCatalogError struct{ msg string }

func (e invalidCatalogError) Error() string { return "invalid catalog: " + e.msg }

func errInvalidCatalog(format string, args ...any) error {
	return invalidCatalogError{msg: fmt.Sprintf(format, args...)}
}

// IsInvalidCatalog reports whether err is a catalog validation error.
func IsInvalidCatalog(err error) bool {
	var target invalidCatalogError
	return errors.As(err, &target)
}
