package backend

import "errors"

var (
	// ErrBackendNotFound is returned by Current when no backend has been installed.
	ErrBackendNotFound = errors.New("cache backend is not set")
	// ErrBackendFailure wraps transport-level failures of a backend operation.
	ErrBackendFailure = errors.New("cache backend operation failed")
	// ErrBadPattern is returned when a glob passed to ClearPattern is malformed.
	ErrBadPattern = errors.New("malformed glob pattern")
)
