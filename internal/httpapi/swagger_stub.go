//go:build !swagger

package httpapi

import "github.com/go-chi/chi/v5"

// MountSwagger does nothing unless built with -tags=swagger.
func MountSwagger(r chi.Router) {}
