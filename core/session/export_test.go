package session

import "time"

// SetNowFunc overrides the manager clock for deterministic expiry tests.
func (m *Manager) SetNowFunc(now func() time.Time) {
	m.now = now
}
