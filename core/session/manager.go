package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/cachex/core/backend"
	"github.com/dmitrymomot/cachex/core/security"
)

// Manager handles the session lifecycle: creation, token verification,
// sliding renewal, invalidation, and fan-out deletes. All persistence
// goes through the backend under cfg.BackendKeyPrefix.
type Manager struct {
	store backend.Backend
	cfg   Config
	sec   *security.Manager
	now   func() time.Time
}

// NewManager creates a session manager over the given backend.
func NewManager(store backend.Backend, cfg Config) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: backend is required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sec, err := security.NewFromString(cfg.SecretKey)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return &Manager{
		store: store,
		cfg:   cfg,
		sec:   sec,
		now:   time.Now,
	}, nil
}

// Config returns the manager configuration. Used by the HTTP middleware
// for token extraction and cookie emission.
func (m *Manager) Config() Config {
	return m.cfg
}

// Create generates a new active session bound to the given user and
// client details, persists it, and returns it with its serialised token.
func (m *Manager) Create(ctx context.Context, user *User, ip, userAgent string) (*Session, string, error) {
	id, err := m.sec.GenerateToken(0)
	if err != nil {
		return nil, "", err
	}

	now := m.now()
	expires := now.Add(m.cfg.TTL)
	sess := &Session{
		ID:           id,
		Status:       StatusActive,
		User:         user,
		CreatedAt:    now,
		LastAccessed: now,
		ExpiresAt:    &expires,
		IPAddress:    ip,
		UserAgent:    userAgent,
	}

	if err := m.persist(ctx, sess, m.cfg.TTL); err != nil {
		return nil, "", err
	}

	token, err := m.Token(sess)
	if err != nil {
		return nil, "", err
	}
	return sess, token, nil
}

// Token serialises the session into its wire token per the configured
// format.
func (m *Manager) Token(sess *Session) (string, error) {
	switch m.cfg.TokenFormat {
	case TokenFormatJWT:
		return m.encodeJWT(sess.ID, sess.ExpiresAt)
	default:
		issued := m.now().UTC()
		t := Token{
			SessionID: sess.ID,
			Signature: m.sec.Sign(sess.ID),
			IssuedAt:  &issued,
		}
		return t.String(), nil
	}
}

// CSRFToken generates a fresh random CSRF token. Enforcement is left to
// the application.
func (m *Manager) CSRFToken() (string, error) {
	return m.sec.GenerateToken(0)
}

// Get verifies the token, loads the session, and enforces status,
// expiry, and the configured client bindings. When sliding expiration is
// enabled and the session is past the renewal threshold, its expiry is
// extended and re-persisted before returning.
func (m *Manager) Get(ctx context.Context, token, ip, userAgent string) (*Session, error) {
	sessionID, err := m.sessionIDFromToken(token)
	if err != nil {
		return nil, err
	}

	sess, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if sess.Status != StatusActive {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidated, sess.Status)
	}
	if sess.IsExpired() {
		return nil, ErrExpired
	}
	if m.cfg.AbsoluteTimeout > 0 && m.now().Sub(sess.CreatedAt) > m.cfg.AbsoluteTimeout {
		return nil, ErrExpired
	}
	if m.cfg.IPBinding && !security.CheckIPMatch(sess.IPAddress, ip) {
		return nil, fmt.Errorf("%w: IP address mismatch", ErrSecurityViolation)
	}
	if m.cfg.UserAgentBinding && !security.CheckUserAgentMatch(sess.UserAgent, userAgent) {
		return nil, fmt.Errorf("%w: User-Agent mismatch", ErrSecurityViolation)
	}

	if m.cfg.SlidingExpiration && sess.ExpiresAt != nil {
		remaining := sess.ExpiresAt.Sub(m.now())
		threshold := time.Duration((1 - m.cfg.SlidingThreshold) * float64(m.cfg.TTL))
		if remaining < threshold {
			now := m.now()
			expires := now.Add(m.cfg.TTL)
			sess.ExpiresAt = &expires
			sess.LastAccessed = now
			if err := m.persist(ctx, sess, m.cfg.TTL); err != nil {
				return nil, err
			}
		}
	}

	return sess, nil
}

// Update re-persists the session. The backend TTL is clamped to at least
// one second so an already-expired overwrite becomes unreadable almost
// immediately instead of lingering forever.
func (m *Manager) Update(ctx context.Context, sess *Session) error {
	return m.persist(ctx, sess, m.storeTTL(sess))
}

// Delete removes the session record.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, m.cfg.BackendKeyPrefix+sessionID)
}

// RegenerateID assigns the session a fresh identifier, deletes the old
// record, persists under the new one, and returns the session with its
// new token. Used to defeat fixation after privilege changes.
func (m *Manager) RegenerateID(ctx context.Context, sess *Session) (*Session, string, error) {
	newID, err := m.sec.GenerateToken(0)
	if err != nil {
		return nil, "", err
	}

	if err := m.Delete(ctx, sess.ID); err != nil {
		return nil, "", err
	}

	sess = sess.clone()
	sess.ID = newID
	if err := m.persist(ctx, sess, m.storeTTL(sess)); err != nil {
		return nil, "", err
	}

	token, err := m.Token(sess)
	if err != nil {
		return nil, "", err
	}
	return sess, token, nil
}

// Invalidate flips the session status and persists it. The record stays
// in the backend until its TTL so later reads fail with ErrInvalidated
// rather than ErrNotFound.
func (m *Manager) Invalidate(ctx context.Context, sess *Session) error {
	sess.Status = StatusInvalidated
	return m.persist(ctx, sess, m.storeTTL(sess))
}

// CleanupExpired deletes sessions past their expiry and returns the
// count. Backends without introspection yield 0.
func (m *Manager) CleanupExpired(ctx context.Context) (int, error) {
	intro, ok := m.store.(backend.Introspector)
	if !ok {
		return 0, nil
	}

	entries, err := intro.Snapshot(ctx)
	if err != nil {
		return 0, err
	}

	now := m.now()
	deleted := 0
	for _, entry := range entries {
		id, ok := strings.CutPrefix(entry.Key, m.cfg.BackendKeyPrefix)
		if !ok {
			continue
		}

		expired := !entry.ExpiresAt.IsZero() && !entry.ExpiresAt.After(now)
		if !expired {
			sess, err := decodeSession(entry.Value)
			if err != nil {
				continue
			}
			expired = sess.IsExpired()
		}
		if !expired {
			continue
		}

		if err := m.Delete(ctx, id); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// DeleteUserSessions removes every session belonging to the user and
// returns the count. Backends without introspection yield 0.
func (m *Manager) DeleteUserSessions(ctx context.Context, userID string) (int, error) {
	intro, ok := m.store.(backend.Introspector)
	if !ok {
		return 0, nil
	}

	entries, err := intro.Snapshot(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, entry := range entries {
		id, ok := strings.CutPrefix(entry.Key, m.cfg.BackendKeyPrefix)
		if !ok {
			continue
		}
		sess, err := decodeSession(entry.Value)
		if err != nil || sess.User == nil || sess.User.ID != userID {
			continue
		}
		if err := m.Delete(ctx, id); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// sessionIDFromToken verifies the token per the configured format and
// extracts the session id.
func (m *Manager) sessionIDFromToken(raw string) (string, error) {
	switch m.cfg.TokenFormat {
	case TokenFormatJWT:
		return m.decodeJWT(raw)
	default:
		t, err := ParseToken(raw)
		if err != nil {
			return "", err
		}
		if !m.sec.Verify(t.SessionID, t.Signature) {
			return "", fmt.Errorf("%w: signature mismatch", ErrTokenInvalid)
		}
		return t.SessionID, nil
	}
}

// load reads and decodes the persisted session.
func (m *Manager) load(ctx context.Context, sessionID string) (*Session, error) {
	value, err := m.store.Get(ctx, m.cfg.BackendKeyPrefix+sessionID)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, ErrNotFound
	}
	sess, err := decodeSession(*value)
	if err != nil {
		return nil, ErrNotFound
	}
	return sess, nil
}

// persist serialises the session into the backend payload form.
func (m *Manager) persist(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	value := backend.ETagContent{
		ETag:    sess.ID,
		Content: backend.TextContent(string(data)),
	}
	return m.store.Set(ctx, m.cfg.BackendKeyPrefix+sess.ID, value, ttl)
}

// storeTTL derives the backend TTL from the session expiry: at least one
// second when an expiry exists, no expiry otherwise.
func (m *Manager) storeTTL(sess *Session) time.Duration {
	if sess.ExpiresAt == nil {
		return 0
	}
	ttl := sess.ExpiresAt.Sub(m.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}

func decodeSession(value backend.ETagContent) (*Session, error) {
	var sess Session
	if err := json.Unmarshal(value.Content.Bytes(), &sess); err != nil {
		return nil, err
	}
	if sess.ID == "" {
		return nil, ErrNotFound
	}
	return &sess, nil
}
