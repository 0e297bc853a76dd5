package session

import (
	"time"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusActive      Status = "active"
	StatusInvalidated Status = "invalidated"
	StatusExpired     Status = "expired"
)

// User identifies the authenticated principal attached to a session.
type User struct {
	ID          string         `json:"user_id"`
	Username    string         `json:"username,omitempty"`
	Email       string         `json:"email,omitempty"`
	Roles       []string       `json:"roles,omitempty"`
	Permissions []string       `json:"permissions,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether the user carries the given permission.
func (u *User) HasPermission(perm string) bool {
	if u == nil {
		return false
	}
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Flash is a one-display message queued on the session.
type Flash struct {
	Message  string `json:"message"`
	Category string `json:"category"`
}

// Session is the server-side session record. Instances returned by the
// Manager are defensive copies; mutations take effect only through
// Update.
type Session struct {
	ID           string         `json:"session_id"`
	Status       Status         `json:"status"`
	User         *User          `json:"user,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	LastAccessed time.Time      `json:"last_accessed"`
	ExpiresAt    *time.Time     `json:"expires_at,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
	Flashes      []Flash        `json:"flash_messages,omitempty"`
}

// IsExpired reports whether the session is past its expiry. Sessions
// without an expiry never expire.
func (s *Session) IsExpired() bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(time.Now())
}

// IsValid reports whether the session is active and unexpired.
func (s *Session) IsValid() bool {
	return s.Status == StatusActive && !s.IsExpired()
}

// Set stores a value in the session data map.
func (s *Session) Set(key string, value any) {
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	s.Data[key] = value
}

// Get reads a value from the session data map.
func (s *Session) Get(key string) (any, bool) {
	v, ok := s.Data[key]
	return v, ok
}

// AddFlash queues a one-display message.
func (s *Session) AddFlash(message, category string) {
	s.Flashes = append(s.Flashes, Flash{Message: message, Category: category})
}

// PopFlashes returns the queued flash messages and clears the queue.
func (s *Session) PopFlashes() []Flash {
	flashes := s.Flashes
	s.Flashes = nil
	return flashes
}

// clone returns a deep-enough copy for the ownership contract: callers
// may mutate the returned session without affecting stored state.
func (s *Session) clone() *Session {
	cp := *s
	if s.User != nil {
		user := *s.User
		user.Roles = append([]string(nil), s.User.Roles...)
		user.Permissions = append([]string(nil), s.User.Permissions...)
		if s.User.Attributes != nil {
			user.Attributes = make(map[string]any, len(s.User.Attributes))
			for k, v := range s.User.Attributes {
				user.Attributes[k] = v
			}
		}
		cp.User = &user
	}
	if s.ExpiresAt != nil {
		exp := *s.ExpiresAt
		cp.ExpiresAt = &exp
	}
	if s.Data != nil {
		cp.Data = make(map[string]any, len(s.Data))
		for k, v := range s.Data {
			cp.Data[k] = v
		}
	}
	cp.Flashes = append([]Flash(nil), s.Flashes...)
	return &cp
}
