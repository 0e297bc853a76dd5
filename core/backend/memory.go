package backend

import (
	"context"
	"io"
	"log/slog"
	"path"
	"sync"
	"time"
)

// DefaultCleanupInterval is how often the background sweeper wakes up
// unless overridden with WithCleanupInterval.
const DefaultCleanupInterval = 60 * time.Second

// Memory is the in-process driver: an unordered map of key to CacheItem
// guarded by a single mutex. Reads check expiry lazily and report stale
// items as absent without deleting them; a background sweeper started
// with StartCleanup removes them periodically.
type Memory struct {
	mu    sync.Mutex
	items map[string]CacheItem

	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	cleanupMu sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

// MemoryOption configures a Memory backend.
type MemoryOption func(*Memory)

// WithCleanupInterval sets the sweeper wake-up interval.
func WithCleanupInterval(interval time.Duration) MemoryOption {
	return func(m *Memory) {
		if interval > 0 {
			m.interval = interval
		}
	}
}

// WithLogger sets the logger used by the background sweeper.
func WithLogger(logger *slog.Logger) MemoryOption {
	return func(m *Memory) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMemory creates an in-process memory backend.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		items:    make(map[string]CacheItem),
		interval: DefaultCleanupInterval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the stored value, or (nil, nil) when the key is absent or
// the item has expired. Expired items are left in place for the sweeper.
func (m *Memory) Get(ctx context.Context, key string) (*ETagContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok || item.Expired(m.now()) {
		return nil, nil
	}
	value := item.Value.Clone()
	return &value, nil
}

// Set stores the value. A ttl <= 0 stores it without expiry.
func (m *Memory) Set(ctx context.Context, key string, value ETagContent, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	item := CacheItem{Value: value.Clone()}
	if ttl > 0 {
		item.ExpiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = item
	return nil
}

// Delete removes the key. Deleting an absent key is not an error.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// Clear removes every key owned by this instance.
func (m *Memory) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]CacheItem)
	return nil
}

// ClearPath removes entries whose parsed path component equals path.
// Without includeParams only entries with an empty query string are
// removed; with it, any matching path is removed regardless of query.
func (m *Memory) ClearPath(ctx context.Context, p string, includeParams bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cleared := 0
	for key := range m.items {
		_, _, keyPath, query := ParseKey(key)
		if keyPath != p {
			continue
		}
		if !includeParams && query != "" {
			continue
		}
		delete(m.items, key)
		cleared++
	}
	return cleared, nil
}

// ClearPattern removes entries whose parsed path component matches the
// shell-style glob pattern.
func (m *Memory) ClearPattern(ctx context.Context, pattern string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	// Validate the pattern up front so a bad glob fails loudly instead of
	// silently matching nothing.
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, ErrBadPattern
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cleared := 0
	for key := range m.items {
		_, _, keyPath, _ := ParseKey(key)
		if matched, _ := path.Match(pattern, keyPath); matched {
			delete(m.items, key)
			cleared++
		}
	}
	return cleared, nil
}

// Keys lists all stored keys, including ones past their expiry that the
// sweeper has not collected yet.
func (m *Memory) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.items))
	for key := range m.items {
		keys = append(keys, key)
	}
	return keys, nil
}

// Snapshot returns a copy of every stored entry with its expiry.
func (m *Memory) Snapshot(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]Entry, 0, len(m.items))
	for key, item := range m.items {
		entries = append(entries, Entry{
			Key:       key,
			Value:     item.Value.Clone(),
			ExpiresAt: item.ExpiresAt,
		})
	}
	return entries, nil
}

// StartCleanup launches the background sweeper. Calling it while a
// sweeper is already running is a no-op.
func (m *Memory) StartCleanup(ctx context.Context) {
	m.cleanupMu.Lock()
	defer m.cleanupMu.Unlock()

	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.sweep(ctx, m.done)
}

// StopCleanup cancels the sweeper and waits for it to exit. Safe to call
// without a running sweeper.
func (m *Memory) StopCleanup() {
	m.cleanupMu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.cleanupMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// sweep wakes every interval and removes expired items. Cancellation is a
// normal shutdown.
func (m *Memory) sweep(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := m.removeExpired(); removed > 0 {
				m.logger.DebugContext(ctx, "memory backend cleanup", "removed", removed)
			}
		}
	}
}

func (m *Memory) removeExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, item := range m.items {
		if item.Expired(now) {
			delete(m.items, key)
			removed++
		}
	}
	return removed
}
