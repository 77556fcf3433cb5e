package store

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory is an in-process Store used in tests and when no durable path is
// configured. Blobs are kept as encoded JSON so the Load/Save round trip
// behaves identically to the durable implementation.
type Memory struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Load(ctx context.Context, key string, out any) bool {
	m.mu.Lock()
	data, ok := m.blobs[key]
	m.mu.Unlock()
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false
	}
	return true
}

func (m *Memory) Save(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	m.mu.Lock()
	m.blobs[key] = data
	m.mu.Unlock()
}

func (m *Memory) Delete(ctx context.Context, key string) {
	m.mu.Lock()
	delete(m.blobs, key)
	m.mu.Unlock()
}
