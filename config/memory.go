package config

import (
	"context"
	"sync"
)

// MemoryStore is an in-process implementation of Store, guarded by its
// own RWMutex independent of the engine's lock.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]Entry
	closed bool
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]Entry)}
}

// NewDefaultMemoryStore returns a store pre-seeded with the defaults a
// freshly initialized charge point reports (config.DefaultHeartbeatInterval
// and friends). engine.New uses it when Options.Config is nil;
// engine.Init does not reset the values of an existing store.
func NewDefaultMemoryStore() *MemoryStore {
	s := NewMemoryStore()
	_ = SetInt(context.Background(), s, KeyHeartbeatInterval, DefaultHeartbeatInterval)
	_ = SetInt(context.Background(), s, KeyTransactionMessageRetryInterval, DefaultTransactionMessageRetryInterval)
	_ = SetInt(context.Background(), s, KeyTransactionMessageAttempts, DefaultTransactionMessageAttempts)
	return s
}

func (m *MemoryStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Entry{}, false, ErrStoreClosed
	}

	entry, ok := m.values[key]
	return entry, ok, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if existing, ok := m.values[key]; ok && existing.ReadOnly {
		return ErrReadOnlyKey
	}

	entry := m.values[key]
	entry.Value = value
	m.values[key] = entry
	return nil
}

// SetReadOnly marks key as read-only going forward, rejecting future
// Set calls the way a ChangeConfiguration handler must reject a
// NotSupported/Rejected key.
func (m *MemoryStore) SetReadOnly(key string, readOnly bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := m.values[key]
	entry.ReadOnly = readOnly
	m.values[key] = entry
}

func (m *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	m.closed = true
	m.values = nil
	return nil
}
