// Package store persists per-learner progression snapshots. The memory
// store backs tests and throwaway runs; the SQL store is the default for
// the server.
package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore implements progression.SnapshotStore in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

func (m *MemoryStore) Load(_ context.Context, learnerID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[learnerID], nil
}

func (m *MemoryStore) Save(_ context.Context, learnerID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.data[learnerID] = cp
	return nil
}

func (m *MemoryStore) Learners(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.data))
	for k := range m.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, learnerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, learnerID)
	return nil
}
