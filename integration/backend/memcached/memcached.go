package memcached

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/dmitrymomot/cachex/core/backend"
)

// DefaultKeyPrefix scopes this driver's keys on a shared Memcached
// cluster.
const DefaultKeyPrefix = "cachex:"

// ErrClientRequired is returned by New when no client is supplied.
var ErrClientRequired = errors.New("memcached client is required")

// ErrServersRequired is returned by NewFromServers when the server list
// is empty.
var ErrServersRequired = errors.New("at least one memcached server address is required")

// Client is the narrow slice of *memcache.Client the driver needs,
// extracted so tests can substitute a fake.
type Client interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Delete(key string) error
	FlushAll() error
}

// Backend implements backend.Backend over a Memcached client. It does
// not implement backend.Introspector: the protocol cannot enumerate keys.
type Backend struct {
	client Client
	prefix string
	logger *slog.Logger
}

// Option configures the driver.
type Option func(*Backend)

// WithKeyPrefix overrides the key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(b *Backend) {
		if prefix != "" {
			b.prefix = prefix
		}
	}
}

// WithLogger sets the logger used for unsupported-operation warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a Memcached cache backend over an existing client. It
// fails at construction time when the client is missing.
func New(client Client, opts ...Option) (*Backend, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	b := &Backend{
		client: client,
		prefix: DefaultKeyPrefix,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// NewFromServers creates a driver with its own client for the given
// server addresses.
func NewFromServers(servers []string, opts ...Option) (*Backend, error) {
	if len(servers) == 0 {
		return nil, ErrServersRequired
	}
	return New(memcache.New(servers...), opts...)
}

// Get loads and decodes the entry. Missing keys and undecodable
// documents are reported as (nil, nil).
func (b *Backend) Get(ctx context.Context, key string) (*backend.ETagContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	item, err := b.client.Get(b.prefix + key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(backend.ErrBackendFailure, err)
	}

	value, ok := backend.DecodePayload(item.Value)
	if !ok {
		return nil, nil
	}
	return &value, nil
}

// Set stores the entry with the TTL as whole seconds of server-side
// expiration.
func (b *Backend) Set(ctx context.Context, key string, value backend.ETagContent, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := backend.EncodePayload(value)
	if err != nil {
		return errors.Join(backend.ErrBackendFailure, err)
	}

	item := &memcache.Item{Key: b.prefix + key, Value: data}
	if ttl > 0 {
		item.Expiration = int32(ttl / time.Second)
	}
	if err := b.client.Set(item); err != nil {
		return errors.Join(backend.ErrBackendFailure, err)
	}
	return nil
}

// Delete removes the key. Deleting an absent key is not an error.
func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := b.client.Delete(b.prefix + key); err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return errors.Join(backend.ErrBackendFailure, err)
	}
	return nil
}

// Clear flushes the server. The protocol offers no prefix-scoped
// deletion, so this affects everything on the cluster.
func (b *Backend) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := b.client.FlushAll(); err != nil {
		return errors.Join(backend.ErrBackendFailure, err)
	}
	return nil
}

// ClearPath degrades to an exact single-key delete when includeParams is
// false, treating p as the full cache key. With includeParams the
// operation requires key enumeration and is unsupported.
func (b *Backend) ClearPath(ctx context.Context, p string, includeParams bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if includeParams {
		b.logger.WarnContext(ctx, "memcached backend does not support pattern matching", "path", p)
		return 0, nil
	}

	err := b.client.Delete(b.prefix + p)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Join(backend.ErrBackendFailure, err)
	}
	return 1, nil
}

// ClearPattern is unsupported by the protocol: it returns 0 after
// logging a warning.
func (b *Backend) ClearPattern(ctx context.Context, pattern string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	b.logger.WarnContext(ctx, "memcached backend does not support pattern matching", "pattern", pattern)
	return 0, nil
}
