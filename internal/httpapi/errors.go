package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"g2pd/internal/g2p"
	"g2pd/internal/manager"
	"g2pd/internal/manifest"
	"g2pd/internal/registry"
	"g2pd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var he HTTPError
	var pe *manifest.ParseError
	switch {
	case manager.IsModelNotFound(err), g2p.IsFileNotFound(err), registry.IsFamilyNotFound(err):
		return http.StatusNotFound
	case g2p.IsInvalidOption(err), g2p.IsParse(err), errors.As(err, &pe):
		return http.StatusBadRequest
	case g2p.IsIndex(err):
		return http.StatusUnprocessableEntity
	case manager.IsTooBusy(err):
		return http.StatusTooManyRequests
	case manager.IsDependencyUnavailable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &he):
		return he.StatusCode()
	default:
		return http.StatusInternalServerError
	}
}
