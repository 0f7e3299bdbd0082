package snapstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process snapshot store.
// Useful for testing or when persistence should be disabled.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]*Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]*Snapshot)}
}

// Put stores a copy of the snapshot.
func (m *MemoryStore) Put(ctx context.Context, s *Snapshot) error {
	cp := *s
	cp.Data = append([]byte(nil), s.Data...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[s.ID] = &cp
	return nil
}

// Get retrieves a snapshot by ID.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.snaps[id]
	if !ok {
		return nil, errNotFound(id)
	}
	cp := *s
	cp.Data = append([]byte(nil), s.Data...)
	return &cp, nil
}

// List returns metadata for all stored snapshots, newest first.
func (m *MemoryStore) List(ctx context.Context) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.snaps))
	for _, s := range m.snaps {
		infos = append(infos, s.Info())
	}
	sortInfos(infos)
	return infos, nil
}

// Delete removes a snapshot by ID.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.snaps[id]; !ok {
		return errNotFound(id)
	}
	delete(m.snaps, id)
	return nil
}

// Close does nothing for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
