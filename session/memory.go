package session

import (
	"context"
	"sync"

	"github.com/navtemmt/telegram-channel-mirror-mtproto/rpc"
)

// Memory is in-memory credential storage.
type Memory struct {
	data map[string][]byte
	mux  sync.Mutex
}

// NewMemory creates new empty Memory storage.
func NewMemory() *Memory {
	return &Memory{data: map[string][]byte{}}
}

// Get implements rpc.Storage.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	v, ok := m.data[key]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set implements rpc.Storage.
func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	m.mux.Lock()
	defer m.mux.Unlock()

	m.data[key] = append([]byte(nil), value...)
	return nil
}

// RemoveAll implements rpc.Storage.
func (m *Memory) RemoveAll(ctx context.Context) error {
	m.mux.Lock()
	defer m.mux.Unlock()

	m.data = map[string][]byte{}
	return nil
}

// Len returns count of stored keys.
func (m *Memory) Len() int {
	m.mux.Lock()
	defer m.mux.Unlock()

	return len(m.data)
}

// LoadSession implements session.Storage.
func (m *Memory) LoadSession(ctx context.Context) ([]byte, error) {
	return loadSession(ctx, m)
}

// StoreSession implements session.Storage.
func (m *Memory) StoreSession(ctx context.Context, data []byte) error {
	return storeSession(ctx, m, data)
}
