package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrUpstream       = errors.New("upstream unavailable")
	ErrInvalidRequest = errors.New("invalid request")
)

// GeocodingError means the region could not be resolved to coordinates.
type GeocodingError struct {
	Query string
}

func (e *GeocodingError) Error() string {
	return fmt.Sprintf("geocoding: no results for %q", e.Query)
}
