// Package cache provides the in-memory query cache used by the
// data-fetching layer. Entries carry a TTL (the stale time of the
// query) and are evicted least-recently-used beyond a size cap.
package cache

import (
	"sync/atomic"
	"time"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// Flush removes every entry, marking the whole keyspace stale
	Flush() int

	// Size returns the current number of items in the cache
	Size() int
}

// Cleaner interface for caches that support expiry cleanup
type Cleaner interface {
	CleanExpired() int
}

// Manager handles cache lifecycle and periodic cleanup
type Manager struct {
	caches      []Cleaner
	started     atomic.Bool
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// NewManager creates a new cache manager
func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches.
// Starting twice is a no-op.
func (m *Manager) StartCleanup(interval time.Duration) {
	if !m.started.CompareAndSwap(false, true) {
		return
	}
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, cache := range m.caches {
				cache.CleanExpired()
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop gracefully stops the cleanup routine. Safe to call when
// cleanup was never started.
func (m *Manager) Stop() {
	close(m.stopCleanup)
	if m.started.Load() {
		<-m.cleanupDone
	}
}
