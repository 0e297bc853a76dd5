package backend_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cachex/core/backend"
)

func TestEncodePayload(t *testing.T) {
	t.Parallel()

	t.Run("text content encodes as JSON string", func(t *testing.T) {
		t.Parallel()

		data, err := backend.EncodePayload(backend.ETagContent{
			ETag:    `W/"abc"`,
			Content: backend.TextContent(`{"count":1}`),
		})
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Equal(t, `W/"abc"`, doc["etag"])
		assert.Equal(t, `{"count":1}`, doc["content"])
	})

	t.Run("non-UTF8 bytes encode as byte array", func(t *testing.T) {
		t.Parallel()

		data, err := backend.EncodePayload(backend.ETagContent{
			ETag:    "e",
			Content: backend.BytesContent([]byte{0xff, 0xfe, 0x01}),
		})
		require.NoError(t, err)

		var doc struct {
			Content []int `json:"content"`
		}
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Equal(t, []int{255, 254, 1}, doc.Content)
	})
}

func TestDecodePayload(t *testing.T) {
	t.Parallel()

	t.Run("round trip for text", func(t *testing.T) {
		t.Parallel()

		original := backend.ETagContent{ETag: "e1", Content: backend.TextContent("hello")}
		data, err := backend.EncodePayload(original)
		require.NoError(t, err)

		decoded, ok := backend.DecodePayload(data)
		require.True(t, ok)
		assert.True(t, original.Equal(decoded))
	})

	t.Run("round trip for binary bytes", func(t *testing.T) {
		t.Parallel()

		original := backend.ETagContent{ETag: "e2", Content: backend.BytesContent([]byte{0xff, 0x00, 0x80})}
		data, err := backend.EncodePayload(original)
		require.NoError(t, err)

		decoded, ok := backend.DecodePayload(data)
		require.True(t, ok)
		assert.True(t, original.Equal(decoded))
	})

	t.Run("accepts structured content", func(t *testing.T) {
		t.Parallel()

		decoded, ok := backend.DecodePayload([]byte(`{"etag":"e","content":{"a":1}}`))
		require.True(t, ok)
		assert.Equal(t, "e", decoded.ETag)
		assert.JSONEq(t, `{"a":1}`, string(decoded.Content.Bytes()))
	})

	t.Run("malformed documents decode to a miss", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{
			"not json",
			`{"etag":"e"}`,
			`{"content":"x"}`,
			`{"etag":"e","content":[1,2,999]}`,
			`[1,2,3]`,
		} {
			_, ok := backend.DecodePayload([]byte(raw))
			assert.False(t, ok, "payload %q should not decode", raw)
		}
	})
}

func TestContent(t *testing.T) {
	t.Parallel()

	t.Run("kinds and sizes", func(t *testing.T) {
		t.Parallel()

		text := backend.TextContent("héllo")
		assert.Equal(t, "str", text.Kind())
		assert.Equal(t, len("héllo"), text.Size())

		raw := backend.BytesContent([]byte{1, 2, 3})
		assert.Equal(t, "bytes", raw.Kind())
		assert.Equal(t, 3, raw.Size())
	})

	t.Run("JSON content marshals the value", func(t *testing.T) {
		t.Parallel()

		c, err := backend.JSONContent(map[string]int{"count": 1})
		require.NoError(t, err)
		assert.Equal(t, "str", c.Kind())
		assert.JSONEq(t, `{"count":1}`, string(c.Bytes()))
	})

	t.Run("bytes are copied defensively", func(t *testing.T) {
		t.Parallel()

		src := []byte("abc")
		c := backend.BytesContent(src)
		src[0] = 'x'
		assert.Equal(t, []byte("abc"), c.Bytes())

		out := c.Bytes()
		out[0] = 'y'
		assert.Equal(t, []byte("abc"), c.Bytes())
	})
}
