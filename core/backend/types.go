package backend

import (
	"bytes"
	"encoding/json"
	"time"
	"unicode/utf8"
)

type contentKind uint8

const (
	kindBytes contentKind = iota
	kindText
)

// Content is a cached payload. It is either raw bytes or UTF-8 text;
// structured values are stored as their JSON text form. The zero value is
// empty bytes content.
type Content struct {
	kind contentKind
	raw  []byte
}

// BytesContent wraps raw bytes. The slice is copied.
func BytesContent(b []byte) Content {
	return Content{kind: kindBytes, raw: bytes.Clone(b)}
}

// TextContent wraps a UTF-8 string.
func TextContent(s string) Content {
	return Content{kind: kindText, raw: []byte(s)}
}

// JSONContent marshals v and stores the resulting document as text.
func JSONContent(v any) (Content, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Content{}, err
	}
	return Content{kind: kindText, raw: data}, nil
}

// Kind reports the payload kind: "bytes" or "str".
func (c Content) Kind() string {
	if c.kind == kindText {
		return "str"
	}
	return "bytes"
}

// Bytes returns a copy of the payload bytes. For text content this is the
// UTF-8 encoding.
func (c Content) Bytes() []byte {
	return bytes.Clone(c.raw)
}

// Size returns the payload size in bytes.
func (c Content) Size() int {
	return len(c.raw)
}

// Equal reports value equality of kind and bytes.
func (c Content) Equal(other Content) bool {
	return c.kind == other.kind && bytes.Equal(c.raw, other.raw)
}

// isUTF8 reports whether the bytes form valid UTF-8, which decides the
// JSON wire representation of the content field.
func (c Content) isUTF8() bool {
	return utf8.Valid(c.raw)
}

// ETagContent pairs a cache validator with its payload. Values are
// immutable once stored; mutations must produce a new instance.
type ETagContent struct {
	ETag    string
	Content Content
}

// Equal reports value equality.
func (e ETagContent) Equal(other ETagContent) bool {
	return e.ETag == other.ETag && e.Content.Equal(other.Content)
}

// Clone returns a defensive copy.
func (e ETagContent) Clone() ETagContent {
	return ETagContent{ETag: e.ETag, Content: Content{kind: e.Content.kind, raw: bytes.Clone(e.Content.raw)}}
}

// CacheItem is a stored record. A zero ExpiresAt means the item never
// expires on its own.
type CacheItem struct {
	Value     ETagContent
	ExpiresAt time.Time
}

// Expired reports whether the item is past its expiry at the given time.
func (it CacheItem) Expired(now time.Time) bool {
	return !it.ExpiresAt.IsZero() && !it.ExpiresAt.After(now)
}

// Entry is a single introspection record returned by Snapshot.
type Entry struct {
	Key       string
	Value     ETagContent
	ExpiresAt time.Time
}
