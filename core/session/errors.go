package session

import "errors"

var (
	// ErrTokenInvalid is returned for malformed tokens, bad signatures, and
	// undecodable JWTs.
	ErrTokenInvalid = errors.New("invalid session token")
	// ErrInvalidPayload is returned when a JWT decodes but its claims do
	// not have the expected shape.
	ErrInvalidPayload = errors.New("invalid JWT payload")
	// ErrNotFound is returned when the session does not exist in the backend.
	ErrNotFound = errors.New("session not found")
	// ErrExpired is returned when the session is past its expiry.
	ErrExpired = errors.New("session has expired")
	// ErrInvalidated is returned when the session status is not active.
	ErrInvalidated = errors.New("session is not active")
	// ErrSecurityViolation is returned when a client binding check fails.
	ErrSecurityViolation = errors.New("session security check failed")
	// ErrInvalidConfig is returned by NewManager for an invalid configuration.
	ErrInvalidConfig = errors.New("invalid session configuration")
)
