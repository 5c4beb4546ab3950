package database

import (
	"context"
	"sync"
)

// MemoryBackend keeps documents in process memory. Used for tests and the
// "memory" driver.
type MemoryBackend struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string][]byte)}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Read(_ context.Context, collection string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.docs[collection]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryBackend) Write(_ context.Context, collection string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[collection] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBackend) Close(context.Context) error { return nil }
