package memcached_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cachex/core/backend"
	"github.com/dmitrymomot/cachex/integration/backend/memcached"
)

// fakeClient implements the driver's client interface over a map.
type fakeClient struct {
	mu    sync.Mutex
	items map[string]*memcache.Item
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: make(map[string]*memcache.Item)}
}

func (f *fakeClient) Get(key string) (*memcache.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[key]
	if !ok {
		return nil, memcache.ErrCacheMiss
	}
	return item, nil
}

func (f *fakeClient) Set(item *memcache.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[item.Key] = item
	return nil
}

func (f *fakeClient) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[key]; !ok {
		return memcache.ErrCacheMiss
	}
	delete(f.items, key)
	return nil
}

func (f *fakeClient) FlushAll() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = make(map[string]*memcache.Item)
	return nil
}

func value(etag, content string) backend.ETagContent {
	return backend.ETagContent{ETag: etag, Content: backend.TextContent(content)}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil client fails", func(t *testing.T) {
		t.Parallel()

		_, err := memcached.New(nil)
		assert.ErrorIs(t, err, memcached.ErrClientRequired)
	})

	t.Run("empty server list fails", func(t *testing.T) {
		t.Parallel()

		_, err := memcached.NewFromServers(nil)
		assert.ErrorIs(t, err, memcached.ErrServersRequired)
	})
}

func TestBackend_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newFakeClient()
	b, err := memcached.New(client)
	require.NoError(t, err)

	key := backend.BuildKey("GET", "localhost:8000", "/api/test", "")
	require.NoError(t, b.Set(ctx, key, value(`W/"abc"`, `{"count":1}`), time.Minute))

	// Stored under the driver prefix with a whole-second expiration.
	item, err := client.Get("cachex:" + key)
	require.NoError(t, err)
	assert.Equal(t, int32(60), item.Expiration)
	assert.JSONEq(t, `{"etag":"W/\"abc\"","content":"{\"count\":1}"}`, string(item.Value))

	got, err := b.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `W/"abc"`, got.ETag)
	assert.Equal(t, `{"count":1}`, string(got.Content.Bytes()))
}

func TestBackend_MissAndCorruption(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newFakeClient()
	b, err := memcached.New(client)
	require.NoError(t, err)

	t.Run("absent key is a miss", func(t *testing.T) {
		got, err := b.Get(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("undecodable document is a miss", func(t *testing.T) {
		require.NoError(t, client.Set(&memcache.Item{Key: "cachex:broken", Value: []byte(`{not json`)}))

		got, err := b.Get(ctx, "broken")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestBackend_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b, err := memcached.New(newFakeClient())
	require.NoError(t, err)

	require.NoError(t, b.Set(ctx, "k", value("e", "v"), time.Minute))
	require.NoError(t, b.Delete(ctx, "k"))
	require.NoError(t, b.Delete(ctx, "k"), "deleting an absent key is fine")

	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBackend_Clear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newFakeClient()
	b, err := memcached.New(client)
	require.NoError(t, err)

	require.NoError(t, b.Set(ctx, "k1", value("e", "v"), time.Minute))
	require.NoError(t, b.Set(ctx, "k2", value("e", "v"), time.Minute))

	require.NoError(t, b.Clear(ctx))
	assert.Empty(t, client.items)
}

func TestBackend_ClearPath(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("exact delete without params", func(t *testing.T) {
		t.Parallel()

		b, err := memcached.New(newFakeClient())
		require.NoError(t, err)

		key := backend.BuildKey("GET", "h", "/api/users", "")
		require.NoError(t, b.Set(ctx, key, value("e", "v"), time.Minute))

		n, err := b.ClearPath(ctx, key, false)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = b.ClearPath(ctx, key, false)
		require.NoError(t, err)
		assert.Equal(t, 0, n, "already gone")
	})

	t.Run("with params warns and removes nothing", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		client := newFakeClient()
		b, err := memcached.New(client, memcached.WithLogger(logger))
		require.NoError(t, err)

		key := backend.BuildKey("GET", "h", "/api/users", "page=2")
		require.NoError(t, b.Set(ctx, key, value("e", "v"), time.Minute))

		n, err := b.ClearPath(ctx, "/api/users", true)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		assert.Len(t, client.items, 1)
		assert.Contains(t, buf.String(), "does not support pattern matching")
	})
}

func TestBackend_ClearPattern(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	b, err := memcached.New(newFakeClient(), memcached.WithLogger(logger))
	require.NoError(t, err)

	n, err := b.ClearPattern(context.Background(), "/api/*")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Contains(t, buf.String(), "does not support pattern matching")
}

func TestBackend_ContextCancellation(t *testing.T) {
	t.Parallel()

	b, err := memcached.New(newFakeClient())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = b.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, b.Set(ctx, "k", value("e", "v"), time.Minute), context.Canceled)
	assert.ErrorIs(t, b.Delete(ctx, "k"), context.Canceled)
	assert.ErrorIs(t, b.Clear(ctx), context.Canceled)
}

func TestBackend_CustomPrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newFakeClient()
	b, err := memcached.New(client, memcached.WithKeyPrefix("edge:"))
	require.NoError(t, err)

	require.NoError(t, b.Set(ctx, "k", value("e", "v"), time.Minute))

	_, err = client.Get("edge:k")
	assert.NoError(t, err)
	_, err = client.Get("cachex:k")
	assert.ErrorIs(t, err, memcache.ErrCacheMiss)
}
