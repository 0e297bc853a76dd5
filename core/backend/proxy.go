package backend

import "sync"

// Process-wide backend slot. Writes are expected at startup; the mutex
// only guarantees a consistent read of the single reference.
var (
	currentMu sync.RWMutex
	current   Backend
)

// Current returns the installed backend, or ErrBackendNotFound when the
// slot is empty.
func Current() (Backend, error) {
	currentMu.RLock()
	defer currentMu.RUnlock()

	if current == nil {
		return nil, ErrBackendNotFound
	}
	return current, nil
}

// SetCurrent installs b as the process-wide backend.
func SetCurrent(b Backend) {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = b
}

// ResetCurrent empties the slot. The slot is never cleared automatically,
// so tests that install a backend must call this.
func ResetCurrent() {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = nil
}
