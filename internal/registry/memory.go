package registry

import (
	"context"
	"sync"
)

// MemoryRegistry keeps entries in process memory. Safe for concurrent use.
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries map[string]string
}

var _ Registry = (*MemoryRegistry)(nil)

// NewMemoryRegistry constructs an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{entries: make(map[string]string)}
}

func (m *MemoryRegistry) List(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	entries := make([]Entry, 0, len(m.entries))
	for name, raw := range m.entries {
		entries = append(entries, decode(name, raw))
	}
	m.mu.RUnlock()

	sortEntries(entries)
	return entries, nil
}

func (m *MemoryRegistry) Add(_ context.Context, name string, rec *Record) (bool, error) {
	payload, err := encode(rec)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[name]; exists {
		return false, nil
	}
	m.entries[name] = string(payload)
	return true, nil
}

func (m *MemoryRegistry) Remove(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[name]; !exists {
		return false, nil
	}
	delete(m.entries, name)
	return true, nil
}

func (m *MemoryRegistry) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}
