package g2p

import (
	"errors"
	"fmt"

	"g2pd/internal/manifest"
)

// fileNotFoundError signals a manifest that cannot be opened or an output
// path that cannot be created.
type fileNotFoundError struct {
	path string
	err  error
}

func (e fileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s: %v", e.path, e.err)
}

func (e fileNotFoundError) Unwrap() error { return e.err }

// IsFileNotFound reports whether err indicates a missing manifest or an
// unwritable output path.
func IsFileNotFound(err error) bool {
	var target fileNotFoundError
	return errors.As(err, &target)
}

// parseError signals a manifest line that is not a JSON object.
type parseError struct {
	path string
	line int
	err  error
}

func (e parseError) Error() string {
	return fmt.Sprintf("parse %s line %d: %v", e.path, e.line, e.err)
}

func (e parseError) Unwrap() error { return e.err }

// IsParse reports whether err indicates a malformed manifest line, either
// from the converter or straight from a manifest.Reader.
func IsParse(err error) bool {
	var target parseError
	if errors.As(err, &target) {
		return true
	}
	var pe *manifest.ParseError
	return errors.As(err, &pe)
}

// indexError signals that the prediction count does not match the manifest.
type indexError struct {
	line        int // 1-based line without a prediction, 0 when predictions are surplus
	predictions int
	records     int
}

func (e indexError) Error() string {
	if e.line > 0 {
		return fmt.Sprintf("prediction index out of range: no prediction for manifest line %d (%d predictions)", e.line, e.predictions)
	}
	return fmt.Sprintf("prediction count mismatch: %d predictions for %d manifest lines", e.predictions, e.records)
}

// IsIndex reports whether err indicates a prediction/manifest count mismatch.
func IsIndex(err error) bool {
	var target indexError
	return errors.As(err, &target)
}

// invalidOptionError signals an unusable conversion option.
type invalidOptionError struct{ msg string }

func (e invalidOptionError) Error() string { return "invalid option: " + e.msg }

// IsInvalidOption reports whether err indicates bad conversion options.
func IsInvalidOption(err error) bool {
	var target invalidOptionError
	return errors.As(err, &target)
}
