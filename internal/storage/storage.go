package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned when a key has never been written.
var ErrNotFound = errors.New("not found")

// KV is a single-namespace key-value store holding opaque values.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Memory keeps values in process memory. Used by tests and as a scratch store.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
	writes int
}

func NewMemory() *Memory {
	return &Memory{values: map[string][]byte{}}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	m.writes++
	return nil
}

// Writes reports how many Set calls have succeeded.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

func (m *Memory) Close() error {
	return nil
}
