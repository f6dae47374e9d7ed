package cache

import (
	"context"
	"sync"
	"time"

	"github.com/okian/fundineed/pkg/metrics"
)

const defaultMaxEntries = 1024

type entry struct {
	val     []byte
	expires time.Time
}

// MemoryCache is an in-process Cache. When full, Set drops expired entries
// first and then an arbitrary one.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]entry
	maxEntries int
	now        func() time.Time
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache returns a cache holding at most maxEntries values. A
// non-positive maxEntries uses the default.
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &MemoryCache{entries: make(map[string]entry), maxEntries: maxEntries, now: time.Now}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || m.expired(e) {
		delete(m.entries, key)
		metrics.RecordCacheRequest("miss")
		return nil, false
	}
	metrics.RecordCacheRequest("hit")
	out := make([]byte, len(e.val))
	copy(out, e.val)
	return out, true
}

// Set stores a copy of val. A non-positive ttl never expires.
func (m *MemoryCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evict()
	}
	e := entry{val: append([]byte(nil), val...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// evicted.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryCache) Close() error { return nil }

func (m *MemoryCache) expired(e entry) bool {
	return !e.expires.IsZero() && !m.now().Before(e.expires)
}

// evict must be called with m.mu held.
func (m *MemoryCache) evict() {
	for k, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, k)
		}
	}
	if len(m.entries) < m.maxEntries {
		return
	}
	for k := range m.entries {
		delete(m.entries, k)
		return
	}
}
