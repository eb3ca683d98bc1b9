package kv

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// Keys of the durable entries.
const (
	KeyArchivedInvoices = "archivedInvoices"
	KeyTheme            = "theme"
	KeySequences        = "sequences"
)

var ErrClosed = errors.New("kv: store closed")

// Store is the durable key-value boundary. A missing key is reported with
// ok == false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
	closed  bool
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, false, ErrClosed
	}
	value, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(value), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.entries[key] = slices.Clone(value)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
