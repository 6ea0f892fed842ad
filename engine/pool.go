package engine

import "github.com/ocppcore/chargepoint/message"

// DefaultPoolSize is the number of pending-message slots a freshly
// constructed engine holds ("TX_POOL_LEN, default 8").
const DefaultPoolSize = 8

// pool is a fixed-size slab of message.Message slots. Slots are never
// reallocated after construction, so addresses handed out by alloc
// remain stable for the engine's lifetime — the Go equivalent of the
// source's static array of structs.
type pool struct {
	slots []message.Message
}

func newPool(size int) *pool {
	return &pool{slots: make([]message.Message, size)}
}

func (p *pool) len() int { return len(p.slots) }

// used counts slots currently in use (not RoleNone), a linear scan
// mirroring the source's own O(n) accounting.
func (p *pool) used() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].Role != message.RoleNone {
			n++
		}
	}
	return n
}

// alloc scans for a free slot and marks it allocated. Returns nil if
// the pool is full.
func (p *pool) alloc() *message.Message {
	for i := range p.slots {
		if p.slots[i].Role == message.RoleNone {
			p.slots[i].Role = message.RoleAlloc
			return &p.slots[i]
		}
	}
	return nil
}

// release wipes m and returns it to the free set. The caller must
// have already removed m from whichever message.List owned it.
func (p *pool) release(m *message.Message) {
	m.Reset()
}
