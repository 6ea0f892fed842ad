// Package cpsession composes one engine.Engine per charge-point
// identity behind a single lifecycle manager: acquiring an identity's
// engine resumes it from its last saved snapshot, and an idle
// charge point has its engine snapshotted and evicted from memory
// after IdleTTL, independent of the session core itself (engine.Engine
// has no notion of "which charge point" — that's this package's job).
package cpsession

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ocppcore/chargepoint/engine"
	"github.com/ocppcore/chargepoint/pkg/logger"
	"github.com/ocppcore/chargepoint/store"
)

// NewEngineOptions builds the engine.Options for a given charge-point
// identity — most importantly, it must supply a Transport bound to
// that identity's connection.
type NewEngineOptions func(identity string) engine.Options

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Store            store.SnapshotStore
	NewEngineOptions NewEngineOptions
	IdleTTL          time.Duration // 0 disables idle eviction
	CheckInterval    time.Duration // default 30s
	Log              logger.Logger
}

// entry pairs a live engine with the wall-clock time it was last
// touched by Acquire, used to decide idle eviction. This is
// deliberately independent of the engine's own injected Clock, which
// the session core uses for its internal scheduling only.
type entry struct {
	eng      *engine.Engine
	lastSeen time.Time
}

// Manager tracks one engine.Engine per charge-point identity,
// snapshotting and evicting idle engines and resuming them from
// storage on demand.
type Manager struct {
	mu     sync.RWMutex
	active map[string]*entry

	store   store.SnapshotStore
	newOpts NewEngineOptions
	idleTTL time.Duration
	log     logger.Logger

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewManager constructs a Manager and starts its idle-eviction
// background loop.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 30 * time.Second
	}
	if cfg.Log == nil {
		cfg.Log = logger.Nop{}
	}

	m := &Manager{
		active:  make(map[string]*entry),
		store:   cfg.Store,
		newOpts: cfg.NewEngineOptions,
		idleTTL: cfg.IdleTTL,
		log:     cfg.Log,
		ticker:  time.NewTicker(cfg.CheckInterval),
		stopCh:  make(chan struct{}),
	}

	if m.idleTTL > 0 {
		m.wg.Add(1)
		go m.evictionLoop()
	}

	return m
}

// Acquire returns the engine for identity, constructing and resuming
// it from its last snapshot if it isn't already active.
func (m *Manager) Acquire(ctx context.Context, identity string) (*engine.Engine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.active[identity]; ok {
		e.lastSeen = time.Now()
		return e.eng, nil
	}

	eng, err := engine.New(m.newOpts(identity))
	if err != nil {
		return nil, err
	}

	if m.store != nil {
		if buf, loadErr := m.store.Load(ctx, identity); loadErr == nil {
			if err := eng.RestoreSnapshot(buf); err != nil {
				m.log.Warn("snapshot restore failed, starting fresh", "identity", identity, "err", err)
			}
		} else if !errors.Is(loadErr, store.ErrNotFound) {
			m.log.Warn("snapshot load failed, starting fresh", "identity", identity, "err", loadErr)
		}
	}

	m.active[identity] = &entry{eng: eng, lastSeen: time.Now()}
	return eng, nil
}

// Release snapshots identity's engine to storage and drops it from
// memory, without deleting the persisted snapshot — a later Acquire
// resumes where it left off.
func (m *Manager) Release(ctx context.Context, identity string) error {
	m.mu.Lock()
	e, ok := m.active[identity]
	if ok {
		delete(m.active, identity)
	}
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return m.snapshot(ctx, identity, e.eng)
}

// Remove drops identity from memory and deletes its persisted
// snapshot entirely, for a charge point being decommissioned.
func (m *Manager) Remove(ctx context.Context, identity string) error {
	m.mu.Lock()
	delete(m.active, identity)
	m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	return m.store.Delete(ctx, identity)
}

// Count returns how many engines are currently held in memory.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}

// ActiveIdentities returns the charge-point identities currently held
// in memory.
func (m *Manager) ActiveIdentities() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	return ids
}

// Close stops the eviction loop, snapshots every active engine, and
// closes the backing store.
func (m *Manager) Close(ctx context.Context) error {
	close(m.stopCh)
	m.ticker.Stop()
	m.wg.Wait()

	m.mu.Lock()
	remaining := m.active
	m.active = make(map[string]*entry)
	m.mu.Unlock()

	for identity, e := range remaining {
		if err := m.snapshot(ctx, identity, e.eng); err != nil {
			m.log.Warn("snapshot on close failed", "identity", identity, "err", err)
		}
	}

	if m.store == nil {
		return nil
	}
	return m.store.Close()
}

func (m *Manager) snapshot(ctx context.Context, identity string, eng *engine.Engine) error {
	if m.store == nil {
		return nil
	}
	buf, err := eng.SaveSnapshot()
	if err != nil {
		return err
	}
	return m.store.Save(ctx, identity, buf)
}

// evictionLoop periodically snapshots and evicts engines that have
// been idle longer than IdleTTL.
func (m *Manager) evictionLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ticker.C:
			m.evictIdle()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Manager) evictIdle() {
	ctx := context.Background()
	cutoff := time.Now().Add(-m.idleTTL)

	m.mu.Lock()
	var idle []string
	for identity, e := range m.active {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, identity)
		}
	}
	m.mu.Unlock()

	for _, identity := range idle {
		if err := m.Release(ctx, identity); err != nil {
			m.log.Warn("idle eviction snapshot failed", "identity", identity, "err", err)
		}
	}
}
