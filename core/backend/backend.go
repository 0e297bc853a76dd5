package backend

import (
	"context"
	"time"
)

// Backend is the single API surface for swapping cache stores. All
// implementations must be safe for concurrent use.
//
// Get returns (nil, nil) for absent, expired, or undecodable entries;
// errors are reserved for transport failures. Set with ttl <= 0 stores
// the value without expiry. Clear removes every key owned by this
// backend instance (scoped by key prefix for shared stores).
type Backend interface {
	Get(ctx context.Context, key string) (*ETagContent, error)
	Set(ctx context.Context, key string, value ETagContent, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error

	// ClearPath removes entries whose parsed path component equals path.
	// With includeParams false only entries with an empty query string are
	// removed. Returns the number of entries cleared.
	ClearPath(ctx context.Context, path string, includeParams bool) (int, error)

	// ClearPattern removes entries whose parsed path component matches the
	// shell-style glob. Returns the number of entries cleared. Backends
	// without key enumeration return 0.
	ClearPattern(ctx context.Context, pattern string) (int, error)
}

// Introspector is implemented by backends that can enumerate their
// contents. The monitoring surface and session fan-out operations degrade
// to no-ops when the backend does not implement it.
type Introspector interface {
	Keys(ctx context.Context) ([]string, error)
	Snapshot(ctx context.Context) ([]Entry, error)
}
