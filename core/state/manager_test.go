package state_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cachex/core/backend"
	"github.com/dmitrymomot/cachex/core/security"
	"github.com/dmitrymomot/cachex/core/state"
)

func newManager(t *testing.T, opts ...state.Option) (*state.Manager, *backend.Memory) {
	t.Helper()

	sec, err := security.NewFromString(strings.Repeat("s", 32))
	require.NoError(t, err)

	mem := backend.NewMemory()
	return state.NewManager(mem, sec, opts...), mem
}

func TestManager_CreateConsume(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mgr, mem := newManager(t)

	token, err := mgr.Create(ctx, map[string]any{"redirect": "/dashboard"}, 0)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Persisted under the default prefix with the token as its tag.
	stored, err := mem.Get(ctx, "oauth_state:"+token)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, token, stored.ETag)

	data, err := mgr.Consume(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, token, data.State)
	assert.Equal(t, "/dashboard", data.Metadata["redirect"])
	assert.WithinDuration(t, time.Now().Add(state.DefaultTTL), data.ExpiresAt, 5*time.Second)

	_, err = mgr.Consume(ctx, token)
	assert.ErrorIs(t, err, state.ErrInvalidState, "second consume must fail")
}

func TestManager_Validate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mgr, _ := newManager(t)

	token, err := mgr.Create(ctx, nil, time.Minute)
	require.NoError(t, err)

	assert.True(t, mgr.Validate(ctx, token))
	assert.True(t, mgr.Validate(ctx, token), "validate does not consume")
	assert.False(t, mgr.Validate(ctx, "unknown"))
	assert.False(t, mgr.Validate(ctx, ""))

	_, err = mgr.Consume(ctx, token)
	require.NoError(t, err)
	assert.False(t, mgr.Validate(ctx, token), "consumed tokens no longer validate")
}

func TestManager_Metadata(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mgr, _ := newManager(t)

	token, err := mgr.Create(ctx, map[string]any{"provider": "github"}, time.Minute)
	require.NoError(t, err)

	md := mgr.Metadata(ctx, token)
	require.NotNil(t, md)
	assert.Equal(t, "github", md["provider"])

	assert.True(t, mgr.Validate(ctx, token), "metadata reads do not consume")
	assert.Nil(t, mgr.Metadata(ctx, "unknown"))
}

func TestManager_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mgr, _ := newManager(t)

	token, err := mgr.Create(ctx, nil, time.Minute)
	require.NoError(t, err)

	existed, err := mgr.Delete(ctx, token)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = mgr.Delete(ctx, token)
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = mgr.Consume(ctx, token)
	assert.ErrorIs(t, err, state.ErrInvalidState)
}

func TestManager_Expiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mgr, mem := newManager(t)

	token, err := mgr.Create(ctx, nil, 50*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)

	// The backend drops the record at its TTL, so the token reads as
	// unknown rather than expired.
	assert.False(t, mgr.Validate(ctx, token))
	_, err = mgr.Consume(ctx, token)
	assert.ErrorIs(t, err, state.ErrInvalidState)

	// A record that outlives its own expiry field still fails, now with
	// the expiry sentinel.
	doc := `{"state":"tok","created_at":"2025-01-01T00:00:00Z","expires_at":"2025-01-01T00:10:00Z"}`
	require.NoError(t, mem.Set(ctx, "oauth_state:tok",
		backend.ETagContent{ETag: "tok", Content: backend.TextContent(doc)}, time.Minute))

	_, err = mgr.Consume(ctx, "tok")
	assert.ErrorIs(t, err, state.ErrStateExpired)
	assert.False(t, mgr.Validate(ctx, "tok"))
	assert.Nil(t, mgr.Metadata(ctx, "tok"))
}

func TestManager_CorruptRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mgr, mem := newManager(t)

	put := func(token, doc string) {
		t.Helper()
		require.NoError(t, mem.Set(ctx, "oauth_state:"+token,
			backend.ETagContent{ETag: token, Content: backend.TextContent(doc)}, time.Minute))
	}

	t.Run("unparseable document", func(t *testing.T) {
		put("broken", `{not json`)

		_, err := mgr.Consume(ctx, "broken")
		require.ErrorIs(t, err, state.ErrStateData)
		assert.Contains(t, err.Error(), "failed to parse state data")
		assert.False(t, mgr.Validate(ctx, "broken"))
	})

	t.Run("non object document", func(t *testing.T) {
		put("list", `[1,2,3]`)

		_, err := mgr.Consume(ctx, "list")
		require.ErrorIs(t, err, state.ErrStateData)
		assert.Contains(t, err.Error(), "unexpected state data format")
	})

	t.Run("object missing required fields", func(t *testing.T) {
		put("empty", `{"metadata":{}}`)

		_, err := mgr.Consume(ctx, "empty")
		require.ErrorIs(t, err, state.ErrStateData)
		assert.Contains(t, err.Error(), "invalid state data structure")
	})
}

func TestManager_CustomPrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mgr, mem := newManager(t, state.WithKeyPrefix("csrf_state:"))

	token, err := mgr.Create(ctx, nil, time.Minute)
	require.NoError(t, err)

	stored, err := mem.Get(ctx, "csrf_state:"+token)
	require.NoError(t, err)
	assert.NotNil(t, stored)

	keys, err := mem.Keys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "csrf_state:"))
}
