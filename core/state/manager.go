package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrymomot/cachex/core/backend"
	"github.com/dmitrymomot/cachex/core/security"
)

// DefaultTTL is the state token lifetime when none is given.
const DefaultTTL = 10 * time.Minute

// DefaultKeyPrefix scopes state records in the backend.
const DefaultKeyPrefix = "oauth_state:"

// Data is a persisted state record.
type Data struct {
	State     string         `json:"state"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Expired reports whether the record is past its expiry.
func (d Data) Expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && !d.ExpiresAt.After(now)
}

// Manager creates and consumes one-shot state tokens.
type Manager struct {
	store  backend.Backend
	sec    *security.Manager
	prefix string
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithKeyPrefix overrides the backend key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(m *Manager) {
		if prefix != "" {
			m.prefix = prefix
		}
	}
}

// NewManager creates a state manager over the given backend.
func NewManager(store backend.Backend, sec *security.Manager, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		sec:    sec,
		prefix: DefaultKeyPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create generates a random state token, persists it with the metadata
// for the given TTL (DefaultTTL when ttl <= 0), and returns the token.
func (m *Manager) Create(ctx context.Context, metadata map[string]any, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	token, err := m.sec.GenerateToken(0)
	if err != nil {
		return "", err
	}

	now := m.now()
	data, err := json.Marshal(Data{
		State:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		Metadata:  metadata,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStateData, err)
	}

	value := backend.ETagContent{ETag: token, Content: backend.TextContent(string(data))}
	if err := m.store.Set(ctx, m.prefix+token, value, ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Consume validates the token, deletes it, and returns its record. A
// second Consume of the same token fails with ErrInvalidState.
func (m *Manager) Consume(ctx context.Context, token string) (*Data, error) {
	data, err := m.read(ctx, token)
	if err != nil {
		return nil, err
	}
	if data.Expired(m.now()) {
		return nil, ErrStateExpired
	}

	if err := m.store.Delete(ctx, m.prefix+token); err != nil {
		return nil, err
	}
	return data, nil
}

// Validate reports whether the token could currently be consumed. It
// never consumes the token and returns false on every error path.
func (m *Manager) Validate(ctx context.Context, token string) bool {
	data, err := m.read(ctx, token)
	if err != nil {
		return false
	}
	return !data.Expired(m.now())
}

// Metadata returns the stored metadata without consuming the token, or
// nil when the token is unknown, expired, or corrupt.
func (m *Manager) Metadata(ctx context.Context, token string) map[string]any {
	data, err := m.read(ctx, token)
	if err != nil || data.Expired(m.now()) {
		return nil
	}
	return data.Metadata
}

// Delete removes the token and reports whether it existed.
func (m *Manager) Delete(ctx context.Context, token string) (bool, error) {
	value, err := m.store.Get(ctx, m.prefix+token)
	if err != nil {
		return false, err
	}
	if value == nil {
		return false, nil
	}
	if err := m.store.Delete(ctx, m.prefix+token); err != nil {
		return false, err
	}
	return true, nil
}

// read loads and parses a stored record. Corrupt documents surface as
// ErrStateData so that destructive and non-destructive readers can decide
// how loudly to fail.
func (m *Manager) read(ctx context.Context, token string) (*Data, error) {
	if token == "" {
		return nil, ErrInvalidState
	}

	value, err := m.store.Get(ctx, m.prefix+token)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, ErrInvalidState
	}

	raw := value.Content.Bytes()
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		// Distinguish a non-object document from a field-level mismatch for
		// clearer diagnostics.
		var probe any
		if json.Unmarshal(raw, &probe) != nil {
			return nil, fmt.Errorf("%w: failed to parse state data", ErrStateData)
		}
		if _, ok := probe.(map[string]any); !ok {
			return nil, fmt.Errorf("%w: unexpected state data format", ErrStateData)
		}
		return nil, fmt.Errorf("%w: invalid state data structure", ErrStateData)
	}
	if data.State == "" || data.ExpiresAt.IsZero() {
		return nil, fmt.Errorf("%w: invalid state data structure", ErrStateData)
	}
	return &data, nil
}
