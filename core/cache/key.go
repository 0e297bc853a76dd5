package cache

import (
	"net/http"

	"github.com/dmitrymomot/cachex/core/backend"
)

// KeyFunc builds a cache key from a request. Implementations must be pure
// functions of the request and perform no I/O.
type KeyFunc func(r *http.Request) string

// RequestKey is the default KeyFunc: it joins the request method, Host
// header (literally, including any port), path, and raw query string with
// the backend key separator.
func RequestKey(r *http.Request) string {
	return backend.BuildKey(r.Method, r.Host, r.URL.Path, r.URL.RawQuery)
}
