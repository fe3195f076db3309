package usecase

import "errors"

// Sentinel errors returned by the services in this package. The HTTP
// layer maps each one to a status code, so wrap them with %w.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
