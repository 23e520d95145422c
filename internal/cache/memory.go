package cache

import (
	"sync"
	"time"
)

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// Memory is a concurrency-safe in-memory Store. Expired entries are
// evicted lazily on Get.
type Memory struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]memoryEntry)}
}

// Get returns the cached value for key if it exists and has not expired.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if !entry.expires.IsZero() && entry.expires.Before(time.Now()) {
		m.mu.Lock()
		delete(m.data, key)
		m.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

// Set stores value under key. A zero ttl means the entry never expires.
func (m *Memory) Set(key string, value []byte, ttl time.Duration) {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expires = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.data[key] = entry
	m.mu.Unlock()
}

// Purge removes all expired entries and reports how many were dropped.
func (m *Memory) Purge() int {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for key, entry := range m.data {
		if !entry.expires.IsZero() && entry.expires.Before(now) {
			delete(m.data, key)
			dropped++
		}
	}
	return dropped
}
