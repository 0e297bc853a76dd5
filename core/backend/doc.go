// Package backend defines the storage abstraction shared by the response
// cache, session manager, and one-shot state manager, together with the
// in-process memory driver and the process-wide backend slot.
//
// A Backend stores opaque ETagContent values under string keys with an
// optional TTL. Drivers for external stores live under
// integration/backend; all of them speak the same JSON payload produced
// by EncodePayload and accepted by DecodePayload, so entries written by
// one driver remain readable by another.
//
// # Basic Usage
//
//	mem := backend.NewMemory()
//	mem.StartCleanup(context.Background())
//	defer mem.StopCleanup()
//
//	err := mem.Set(ctx, key, backend.ETagContent{
//		ETag:    etag,
//		Content: backend.BytesContent(body),
//	}, 60*time.Second)
//
//	hit, err := mem.Get(ctx, key)
//	if hit == nil {
//		// miss or expired
//	}
//
// Get reports misses, expired entries, and undecodable stored documents
// as (nil, nil); only transport-level failures surface as errors wrapping
// ErrBackendFailure.
//
// # Key format
//
// Cache keys are built from four request fields joined by the "|||"
// separator (see BuildKey). Drivers that support scoped invalidation
// parse stored keys back with ParseKey and match ClearPath and
// ClearPattern against the path component.
//
// # Process-wide slot
//
// SetCurrent installs a Backend for code that does not carry an explicit
// reference, typically once at startup. Current returns
// ErrBackendNotFound while the slot is empty. Tests that touch the slot
// must call ResetCurrent.
package backend
