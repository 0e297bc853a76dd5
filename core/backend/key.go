package backend

import "strings"

// KeySeparator joins the four cache key fields. It is chosen so it can
// never collide with ":" (present in host:port and IPv6 literals) or any
// URL-reserved character.
const KeySeparator = "|||"

// UnknownHost substitutes a missing Host header in cache keys.
const UnknownHost = "unknown"

// BuildKey canonicalises a request into the stable cache key
// "method|||host|||path|||query". The query string is the raw encoded
// form and may be empty. An empty host is stored as "unknown".
func BuildKey(method, host, path, query string) string {
	if host == "" {
		host = UnknownHost
	}
	return strings.Join([]string{method, host, path, query}, KeySeparator)
}

// ParseKey is the inverse of BuildKey. Keys with a field count other than
// four yield four empty strings, never an error.
func ParseKey(key string) (method, host, path, query string) {
	parts := strings.Split(key, KeySeparator)
	if len(parts) != 4 {
		return "", "", "", ""
	}
	return parts[0], parts[1], parts[2], parts[3]
}
