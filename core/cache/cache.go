package cache

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/cachex/core/backend"
)

type config struct {
	ttl      time.Duration
	hasTTL   bool
	staleTTL time.Duration
	hasStale bool
	stale    StaleMode

	noCache        bool
	noStore        bool
	public         bool
	private        bool
	immutable      bool
	mustRevalidate bool

	keyFunc KeyFunc
	backend backend.Backend
	logger  *slog.Logger
}

// Option configures the cache middleware.
type Option func(*config)

// WithTTL sets the store duration and the max-age directive.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.ttl = ttl
		c.hasTTL = true
	}
}

// WithStaleTTL sets the value advertised by the stale directive selected
// with WithStale.
func WithStaleTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.staleTTL = ttl
		c.hasStale = true
	}
}

// WithStale selects the stale directive. Requires WithStaleTTL.
func WithStale(mode StaleMode) Option {
	return func(c *config) {
		c.stale = mode
	}
}

// WithNoCache emits no-cache and suppresses the store write.
func WithNoCache() Option {
	return func(c *config) {
		c.noCache = true
	}
}

// WithNoStore emits no-store alone and suppresses the store write.
func WithNoStore() Option {
	return func(c *config) {
		c.noStore = true
	}
}

// WithPublic emits the public scope directive. Wins over WithPrivate when
// both are set.
func WithPublic() Option {
	return func(c *config) {
		c.public = true
	}
}

// WithPrivate emits the private scope directive.
func WithPrivate() Option {
	return func(c *config) {
		c.private = true
	}
}

// WithImmutable emits the immutable directive.
func WithImmutable() Option {
	return func(c *config) {
		c.immutable = true
	}
}

// WithMustRevalidate emits the must-revalidate directive.
func WithMustRevalidate() Option {
	return func(c *config) {
		c.mustRevalidate = true
	}
}

// WithKeyFunc overrides the default request key builder.
func WithKeyFunc(fn KeyFunc) Option {
	return func(c *config) {
		if fn != nil {
			c.keyFunc = fn
		}
	}
}

// WithBackend pins the middleware to a specific backend instead of the
// process-wide slot.
func WithBackend(b backend.Backend) Option {
	return func(c *config) {
		c.backend = b
	}
}

// WithLogger sets the logger for degraded-path warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds the caching middleware. It fails when a stale mode is
// selected without a stale TTL, or when the stale mode is unknown.
func New(opts ...Option) (func(http.Handler) http.Handler, error) {
	cfg := &config{
		keyFunc: RequestKey,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch cfg.stale {
	case "", StaleRevalidate, StaleError:
	default:
		return nil, ErrInvalidStaleMode
	}
	if cfg.stale != "" && !cfg.hasStale {
		return nil, ErrStaleTTLRequired
	}

	e := &engine{config: cfg}
	return e.middleware, nil
}

// Must is like New but panics on a configuration error. Intended for
// route tables built at startup.
func Must(opts ...Option) func(http.Handler) http.Handler {
	mw, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return mw
}

type engine struct {
	config *config

	resolveOnce sync.Once
	resolved    backend.Backend
}

// store resolves the backend lazily on first use, installing a default
// memory backend into the process-wide slot when none is set.
func (e *engine) store() backend.Backend {
	e.resolveOnce.Do(func() {
		if e.config.backend != nil {
			e.resolved = e.config.backend
			return
		}
		b, err := backend.Current()
		if err != nil {
			mem := backend.NewMemory()
			backend.SetCurrent(mem)
			e.config.logger.Info("no cache backend set, installing default memory backend")
			b = mem
		}
		e.resolved = b
	})
	return e.resolved
}

func (e *engine) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only GET responses are cached.
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		cfg := e.config
		b := e.store()
		key := cfg.keyFunc(r)
		ifNoneMatch := r.Header.Get("If-None-Match")

		hit, err := b.Get(r.Context(), key)
		if err != nil {
			cfg.logger.WarnContext(r.Context(), "cache lookup failed", "key", key, "error", err)
			hit = nil
		}

		if hit != nil {
			if ifNoneMatch == hit.ETag {
				w.Header().Set("ETag", hit.ETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
			e.replay(w, hit)
			return
		}

		rec := newRecorder()
		next.ServeHTTP(rec, r)
		body := rec.body.Bytes()

		etag := fmt.Sprintf(`W/"%x"`, md5.Sum(body))

		storable := cfg.hasTTL && !cfg.noStore && !cfg.noCache && rec.status == http.StatusOK
		if storable {
			value := backend.ETagContent{ETag: etag, Content: backend.BytesContent(body)}
			if err := b.Set(r.Context(), key, value, cfg.ttl); err != nil {
				cfg.logger.WarnContext(r.Context(), "cache store failed", "key", key, "error", err)
			}
		}

		if ifNoneMatch == etag {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return
		}

		header := w.Header()
		for name, values := range rec.header {
			header[name] = values
		}
		header.Set("ETag", etag)
		if cc := cfg.cacheControlHeader(); cc != "" {
			header.Set("Cache-Control", cc)
		}
		w.WriteHeader(rec.status)
		w.Write(body) //nolint:errcheck // nothing useful to do with a client write error
	})
}

// replay reconstructs a 200 response from a cached entry without invoking
// the inner handler.
func (e *engine) replay(w http.ResponseWriter, hit *backend.ETagContent) {
	body := hit.Content.Bytes()

	header := w.Header()
	header.Set("ETag", hit.ETag)
	if cc := e.config.cacheControlHeader(); cc != "" {
		header.Set("Cache-Control", cc)
	}
	if len(body) > 0 {
		header.Set("Content-Type", http.DetectContentType(body))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(body) //nolint:errcheck
}

// recorder buffers the inner handler's response so the body can be
// fingerprinted before anything reaches the client.
type recorder struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newRecorder() *recorder {
	return &recorder{
		header: make(http.Header),
		status: http.StatusOK,
	}
}

func (r *recorder) Header() http.Header {
	return r.header
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
}

func (r *recorder) Write(p []byte) (int, error) {
	return r.body.Write(p)
}
