// cache/memory.go
package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	payload   []byte
	category  string
	expiresAt time.Time
}

// MemoryBackend keeps entries in a mutex-guarded map. It is the default
// backend when no redis address is configured, and the one tests use.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]memoryEntry)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	// Expiry is enforced on read; Sweep only reclaims memory.
	if time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	return entry.payload, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, payload []byte, ttl time.Duration, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{
		payload:   payload,
		category:  category,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (m *MemoryBackend) Invalidate(_ context.Context, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if category == "" {
		m.entries = make(map[string]memoryEntry)
		return nil
	}
	for key, entry := range m.entries {
		if entry.category == category {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *MemoryBackend) Sweep(_ context.Context, stale func(key string, payload []byte) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	now := time.Now()
	for key, entry := range m.entries {
		if now.After(entry.expiresAt) || stale(key, entry.payload) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}
