// Package monitor exposes read-only cache introspection over HTTP.
//
// Routes returns a chi router with two endpoints, GET /cached-hits and
// GET /cached-records, mountable under any prefix:
//
//	r := chi.NewRouter()
//	r.Mount("/debug/cache", monitor.Routes(b))
//
// Both endpoints respond 200 with zeroed counts when the backend is
// absent or does not support introspection.
package monitor
