package cache

import "errors"

var (
	// ErrStaleTTLRequired is returned by New when a stale mode is selected
	// without a stale TTL to advertise.
	ErrStaleTTLRequired = errors.New("stale_ttl must be set if stale is used")
	// ErrInvalidStaleMode is returned for a stale mode other than
	// StaleError or StaleRevalidate.
	ErrInvalidStaleMode = errors.New("invalid stale mode")
)
