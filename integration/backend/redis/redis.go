package redis

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/cachex/core/backend"
)

// DefaultKeyPrefix scopes this driver's keys in a shared Redis database.
const DefaultKeyPrefix = "cachex:"

const defaultScanBatchSize = 1000

// Backend implements backend.Backend and backend.Introspector over a
// Redis client.
type Backend struct {
	client    redis.UniversalClient
	prefix    string
	batchSize int64
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

// WithScanBatchSize sets the SCAN cursor page size used by the clear and
// introspection operations.
func WithScanBatchSize(size int) Option {
	return func(b *Backend) {
		if size > 0 {
			b.batchSize = int64(size)
		}
	}
}

// New creates a Redis cache backend over an existing client.
func New(client redis.UniversalClient, opts ...Option) *Backend {
	b := &Backend{
		client:    client,
		prefix:    DefaultKeyPrefix,
		batchSize: defaultScanBatchSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Get loads and decodes the entry. Missing keys and undecodable
// documents are reported as (nil, nil).
func (b *Backend) Get(ctx context.Context, key string) (*backend.ETagContent, error) {
	data, err := b.client.Get(ctx, b.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(backend.ErrBackendFailure, err)
	}

	value, ok := backend.DecodePayload(data)
	if !ok {
		return nil, nil
	}
	return &value, nil
}

// Set stores the entry as the shared JSON payload, delegating expiry to
// the server-side TTL primitive.
func (b *Backend) Set(ctx context.Context, key string, value backend.ETagContent, ttl time.Duration) error {
	data, err := backend.EncodePayload(value)
	if err != nil {
		return errors.Join(backend.ErrBackendFailure, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := b.client.Set(ctx, b.prefix+key, data, ttl).Err(); err != nil {
		return errors.Join(backend.ErrBackendFailure, err)
	}
	return nil
}

// Delete removes the key. Deleting an absent key is not an error.
func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, b.prefix+key).Err(); err != nil {
		return errors.Join(backend.ErrBackendFailure, err)
	}
	return nil
}

// Clear scans the driver's prefix and deletes in batches.
func (b *Backend) Clear(ctx context.Context) error {
	_, err := b.deleteMatching(ctx, func(string) bool { return true })
	return err
}

// ClearPath removes entries whose parsed path component equals p; without
// includeParams only entries with an empty query string are removed.
func (b *Backend) ClearPath(ctx context.Context, p string, includeParams bool) (int, error) {
	return b.deleteMatching(ctx, func(key string) bool {
		_, _, keyPath, query := backend.ParseKey(key)
		if keyPath != p {
			return false
		}
		return includeParams || query == ""
	})
}

// ClearPattern removes entries whose parsed path component matches the
// shell-style glob.
func (b *Backend) ClearPattern(ctx context.Context, pattern string) (int, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, backend.ErrBadPattern
	}
	return b.deleteMatching(ctx, func(key string) bool {
		_, _, keyPath, _ := backend.ParseKey(key)
		matched, _ := path.Match(pattern, keyPath)
		return matched
	})
}

// Keys lists all keys under the prefix, with the prefix stripped.
func (b *Backend) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := b.scan(ctx, func(full string) error {
		keys = append(keys, strings.TrimPrefix(full, b.prefix))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Snapshot returns every entry under the prefix with its remaining TTL
// converted to an absolute expiry.
func (b *Backend) Snapshot(ctx context.Context) ([]backend.Entry, error) {
	var fullKeys []string
	if err := b.scan(ctx, func(full string) error {
		fullKeys = append(fullKeys, full)
		return nil
	}); err != nil {
		return nil, err
	}

	now := time.Now()
	entries := make([]backend.Entry, 0, len(fullKeys))
	for _, full := range fullKeys {
		data, err := b.client.Get(ctx, full).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, errors.Join(backend.ErrBackendFailure, err)
		}
		value, ok := backend.DecodePayload(data)
		if !ok {
			continue
		}

		entry := backend.Entry{Key: strings.TrimPrefix(full, b.prefix), Value: value}
		if ttl, err := b.client.PTTL(ctx, full).Result(); err == nil && ttl > 0 {
			entry.ExpiresAt = now.Add(ttl)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// scan walks the prefix with a non-blocking cursor.
func (b *Backend) scan(ctx context.Context, fn func(fullKey string) error) error {
	var cursor uint64
	for {
		keys, next, err := b.client.Scan(ctx, cursor, b.prefix+"*", b.batchSize).Result()
		if err != nil {
			return errors.Join(backend.ErrBackendFailure, err)
		}
		for _, key := range keys {
			if err := fn(key); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// deleteMatching scans the prefix and deletes matching keys in batches.
func (b *Backend) deleteMatching(ctx context.Context, match func(key string) bool) (int, error) {
	var batch []string
	deleted := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := b.client.Del(ctx, batch...).Err(); err != nil {
			return errors.Join(backend.ErrBackendFailure, err)
		}
		deleted += len(batch)
		batch = batch[:0]
		return nil
	}

	err := b.scan(ctx, func(full string) error {
		if !match(strings.TrimPrefix(full, b.prefix)) {
			return nil
		}
		batch = append(batch, full)
		if int64(len(batch)) >= b.batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return deleted, err
	}
	if err := flush(); err != nil {
		return deleted, err
	}
	return deleted, nil
}
