package session

import (
	"fmt"
	"strings"
	"time"
)

// Token is the wire form of a simple session token:
// session_id "." signature ["." iso8601-utc].
type Token struct {
	SessionID string
	Signature string
	IssuedAt  *time.Time
}

// String returns the canonical dotted form.
func (t Token) String() string {
	if t.IssuedAt != nil {
		return t.SessionID + "." + t.Signature + "." + t.IssuedAt.UTC().Format(time.RFC3339)
	}
	return t.SessionID + "." + t.Signature
}

// ParseToken parses the dotted form. Tokens whose dotted arity is not 2
// or 3, or whose timestamp is unparseable, fail with ErrTokenInvalid.
func ParseToken(raw string) (Token, error) {
	parts := strings.Split(raw, ".")
	switch len(parts) {
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return Token{}, fmt.Errorf("%w: empty segment", ErrTokenInvalid)
		}
		return Token{SessionID: parts[0], Signature: parts[1]}, nil
	case 3:
		if parts[0] == "" || parts[1] == "" {
			return Token{}, fmt.Errorf("%w: empty segment", ErrTokenInvalid)
		}
		issued, err := time.Parse(time.RFC3339, parts[2])
		if err != nil {
			return Token{}, fmt.Errorf("%w: bad issued-at timestamp", ErrTokenInvalid)
		}
		issued = issued.UTC()
		return Token{SessionID: parts[0], Signature: parts[1], IssuedAt: &issued}, nil
	default:
		return Token{}, fmt.Errorf("%w: expected 2 or 3 dot-separated segments, got %d", ErrTokenInvalid, len(parts))
	}
}
