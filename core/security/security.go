package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

// MinSecretLength is the minimum accepted secret size in bytes.
const MinSecretLength = 32

// ErrSecretTooShort is returned when the secret is shorter than
// MinSecretLength.
var ErrSecretTooShort = errors.New("secret key must be at least 32 bytes")

// Manager holds the signing secret and provides the cryptographic
// helpers. Safe for concurrent use.
type Manager struct {
	secret []byte
}

// New creates a Manager from a raw secret.
func New(secret []byte) (*Manager, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: got %d", ErrSecretTooShort, len(secret))
	}
	return &Manager{secret: append([]byte(nil), secret...)}, nil
}

// NewFromString creates a Manager from a string secret.
func NewFromString(secret string) (*Manager, error) {
	return New([]byte(secret))
}

// Sign returns the lowercase hex HMAC-SHA256 of s (64 characters).
func (m *Manager) Sign(s string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(s))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether sig is the signature of s, in constant time.
func (m *Manager) Verify(s, sig string) bool {
	expected := m.Sign(s)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) == 1
}

// GenerateToken returns a URL-safe random token of n bytes of entropy
// (base64url, no padding). A non-positive n defaults to 32 bytes.
func (m *Manager) GenerateToken(n int) (string, error) {
	if n <= 0 {
		n = 32
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// VerifyCSRF compares an expected and a presented CSRF token in constant
// time.
func (m *Manager) VerifyCSRF(expected, presented string) bool {
	if expected == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}

// HashData returns the hex SHA-256 of s.
func (m *Manager) HashData(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// CheckIPMatch reports whether a session bound to boundIP accepts a
// request from presentedIP. An unbound session matches any client; a
// bound one requires equality.
func CheckIPMatch(boundIP, presentedIP string) bool {
	if boundIP == "" {
		return true
	}
	return boundIP == presentedIP
}

// CheckUserAgentMatch is CheckIPMatch for the User-Agent binding.
func CheckUserAgentMatch(boundUA, presentedUA string) bool {
	if boundUA == "" {
		return true
	}
	return boundUA == presentedUA
}
