package hook

import (
	"sync"
	"sync/atomic"

	"github.com/ocppcore/chargepoint/message"
)

// Manager manages registration and invocation of hooks, using the
// same copy-on-write slice pattern as the broker-wide hook system so
// dispatch never blocks on registration changes.
type Manager struct {
	mu       sync.Mutex
	hooksPtr atomic.Pointer[[]Hook]
	index    map[string]int
}

// NewManager creates an empty hook manager.
func NewManager() *Manager {
	m := &Manager{index: make(map[string]int)}
	hooks := make([]Hook, 0)
	m.hooksPtr.Store(&hooks)
	return m
}

// Add registers a hook. Returns an error if a hook with the same ID
// already exists.
func (m *Manager) Add(h Hook) error {
	if h == nil {
		return ErrEmptyHookID
	}
	id := h.ID()
	if id == "" {
		return ErrEmptyHookID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.index[id]; exists {
		return ErrHookAlreadyExists
	}

	oldHooks := *m.hooksPtr.Load()
	newHooks := make([]Hook, len(oldHooks)+1)
	copy(newHooks, oldHooks)
	newHooks[len(oldHooks)] = h

	m.index[id] = len(oldHooks)
	m.hooksPtr.Store(&newHooks)
	return nil
}

// Remove unregisters a hook by ID.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, exists := m.index[id]
	if !exists {
		return ErrHookNotFound
	}

	oldHooks := *m.hooksPtr.Load()
	newHooks := make([]Hook, len(oldHooks)-1)
	copy(newHooks[:idx], oldHooks[:idx])
	copy(newHooks[idx:], oldHooks[idx+1:])

	delete(m.index, id)
	for i := idx; i < len(newHooks); i++ {
		m.index[newHooks[i].ID()] = i
	}

	m.hooksPtr.Store(&newHooks)
	return nil
}

// Count returns the number of registered hooks.
func (m *Manager) Count() int {
	return len(*m.hooksPtr.Load())
}

// OnIncoming invokes every hook that provides OnIncoming.
func (m *Manager) OnIncoming(msg *message.Message) {
	for _, h := range *m.hooksPtr.Load() {
		if h.Provides(OnIncoming) {
			h.OnIncoming(msg)
		}
	}
}

// OnOutgoing invokes every hook that provides OnOutgoing.
func (m *Manager) OnOutgoing(msg *message.Message) {
	for _, h := range *m.hooksPtr.Load() {
		if h.Provides(OnOutgoing) {
			h.OnOutgoing(msg)
		}
	}
}

// OnFree invokes every hook that provides OnFree.
func (m *Manager) OnFree(msg *message.Message, reason FreeReason) {
	for _, h := range *m.hooksPtr.Load() {
		if h.Provides(OnFree) {
			h.OnFree(msg, reason)
		}
	}
}

// OnError invokes every hook that provides OnError.
func (m *Manager) OnError(code int, msg *message.Message, err error) {
	for _, h := range *m.hooksPtr.Load() {
		if h.Provides(OnError) {
			h.OnError(code, msg, err)
		}
	}
}
