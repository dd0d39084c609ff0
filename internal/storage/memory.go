package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. Values do not survive a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	notify Notifier
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := append([]byte(nil), value...)
	m.mu.Lock()
	m.values[key] = stored
	m.mu.Unlock()

	m.notify.Notify(key, append([]byte(nil), stored...))
	return nil
}

func (m *MemoryStore) Subscribe(key string, fn Callback) func() {
	return m.notify.Subscribe(key, fn)
}

var _ Store = (*MemoryStore)(nil)
