package backend

import (
	"encoding/json"
)

// payload is the JSON wire form shared by the remote drivers:
// {"etag": "...", "content": <string | array-of-int>}. Bytes are emitted
// as a JSON string when they form valid UTF-8 and as an array of byte
// integers otherwise; readers accept both.
type payload struct {
	ETag    *string         `json:"etag"`
	Content json.RawMessage `json:"content"`
}

// EncodePayload serialises an ETagContent to its JSON document form.
func EncodePayload(value ETagContent) ([]byte, error) {
	var content any
	if value.Content.isUTF8() {
		content = string(value.Content.raw)
	} else {
		ints := make([]int, len(value.Content.raw))
		for i, b := range value.Content.raw {
			ints[i] = int(b)
		}
		content = ints
	}
	return json.Marshal(map[string]any{
		"etag":    value.ETag,
		"content": content,
	})
}

// DecodePayload reverses EncodePayload. Malformed JSON, missing required
// fields, and out-of-range byte values report ok=false so that read paths
// can treat the entry as absent.
func DecodePayload(data []byte) (ETagContent, bool) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return ETagContent{}, false
	}
	if p.ETag == nil || len(p.Content) == 0 {
		return ETagContent{}, false
	}

	var s string
	if err := json.Unmarshal(p.Content, &s); err == nil {
		return ETagContent{ETag: *p.ETag, Content: TextContent(s)}, true
	}

	var ints []int
	if err := json.Unmarshal(p.Content, &ints); err == nil {
		raw := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return ETagContent{}, false
			}
			raw[i] = byte(v)
		}
		return ETagContent{ETag: *p.ETag, Content: Content{kind: kindBytes, raw: raw}}, true
	}

	// Structured content is kept in its raw JSON text form.
	if json.Valid(p.Content) {
		return ETagContent{ETag: *p.ETag, Content: TextContent(string(p.Content))}, true
	}

	return ETagContent{}, false
}
