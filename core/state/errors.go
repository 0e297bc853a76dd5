package state

import "errors"

var (
	// ErrInvalidState is returned when the token is unknown, already
	// consumed, or expired out of the store.
	ErrInvalidState = errors.New("invalid or expired state")
	// ErrStateData wraps failures to parse or validate a stored state
	// document.
	ErrStateData = errors.New("malformed state data")
	// ErrStateExpired is returned when the token is present but past its
	// expiry.
	ErrStateExpired = errors.New("state has expired")
)
