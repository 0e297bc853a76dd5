// Package cache provides ETag-validated HTTP response caching as net/http
// middleware.
//
// The middleware caches GET responses in a backend store, serves
// conditional requests with 304 Not Modified, and emits a Cache-Control
// header assembled from the configured directives.
//
// # Usage
//
//	mw, err := cache.New(
//		cache.WithTTL(60*time.Second),
//		cache.WithPublic(),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	mux.Handle("/api/items", mw(itemsHandler))
//
// On a miss the wrapped handler runs once, its body is fingerprinted into
// a weak ETag (W/"..."), and the response is stored for the configured
// TTL. Subsequent GETs are served from the store without invoking the
// handler; requests carrying a matching If-None-Match receive 304 with no
// body.
//
// Without WithBackend the middleware uses the process-wide slot from
// core/backend, installing a default memory backend on first use when the
// slot is empty. Handler errors and panics are never swallowed, and a
// failing backend degrades to pass-through behaviour.
//
// Two concurrent misses on the same key may both invoke the handler;
// stampede protection is out of scope.
package cache
