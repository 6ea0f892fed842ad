package engine

import (
	"github.com/ocppcore/chargepoint/hook"
	"github.com/ocppcore/chargepoint/message"
)

// PushRequest allocates a slot for an outbound CALL and places it at
// the tail of the ready queue. If the pool is full and
// force is false, it returns ErrOutOfMemory. If force is true, it
// tries once to evict an evictable ready-queue slot
// before retrying the allocation, and fails with ErrOutOfMemory if
// nothing could be evicted either.
func (e *Engine) PushRequest(typ message.Type, payload []byte, force bool) (*message.Message, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.pushRequest(typ, payload, force)
}

func (e *Engine) pushRequest(typ message.Type, payload []byte, force bool) (*message.Message, error) {
	if typ == message.Unknown {
		return nil, ErrInvalidType
	}

	m := e.pool.alloc()
	if m == nil {
		if !force || !e.evictOne() {
			return nil, ErrOutOfMemory
		}
		m = e.pool.alloc()
		if m == nil {
			return nil, ErrOutOfMemory
		}
	}

	id := e.ids.Generate()
	if len(id) > message.MaxIDLen {
		e.pool.release(m)
		return nil, ErrIDTooLong
	}

	m.ID = id
	m.Role = message.RoleCall
	m.Type = typ
	m.Payload = payload
	m.Attempts = 0
	e.ready.PushBack(m)
	return m, nil
}

// PushRequestDefer allocates a slot the same way as PushRequest but
// parks it in the timer list until readyAt, rather than making it
// immediately eligible for transmission ("promote due timers"
// picks it up once readyAt is reached).
func (e *Engine) PushRequestDefer(typ message.Type, payload []byte, readyAt int64) (*message.Message, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.pushRequestDefer(typ, payload, readyAt)
}

func (e *Engine) pushRequestDefer(typ message.Type, payload []byte, readyAt int64) (*message.Message, error) {
	if typ == message.Unknown {
		return nil, ErrInvalidType
	}
	m := e.pool.alloc()
	if m == nil {
		return nil, ErrOutOfMemory
	}

	id := e.ids.Generate()
	if len(id) > message.MaxIDLen {
		e.pool.release(m)
		return nil, ErrIDTooLong
	}

	m.ID = id
	m.Role = message.RoleCall
	m.Type = typ
	m.Payload = payload
	m.Attempts = 0
	m.Expiry = readyAt
	e.timer.PushBack(m)
	return m, nil
}

// PushResponse allocates a slot for the host's CALLRESULT/CALLERROR
// answer to requestID and places it at the tail of the ready queue,
// so it flows through the same at-most-one-in-flight transmit
// discipline as any other ready-queue entry instead of going straight
// to the transport. typ classifies the response the same way a
// request is classified; isError selects CALLERROR over CALLRESULT.
// Returns ErrOutOfMemory if the pool is full.
func (e *Engine) PushResponse(requestID string, typ message.Type, isError bool, payload []byte) (*message.Message, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.pushResponse(requestID, typ, isError, payload)
}

func (e *Engine) pushResponse(requestID string, typ message.Type, isError bool, payload []byte) (*message.Message, error) {
	if typ == message.Unknown {
		return nil, ErrInvalidType
	}
	if len(requestID) > message.MaxIDLen {
		return nil, ErrIDTooLong
	}

	m := e.pool.alloc()
	if m == nil {
		return nil, ErrOutOfMemory
	}

	m.ID = requestID
	m.Role = message.RoleCallResult
	if isError {
		m.Role = message.RoleCallError
	}
	m.Type = typ
	m.Payload = payload
	m.Attempts = 0
	e.ready.PushBack(m)
	return m, nil
}

// CountPendingRequests returns how many slots of typ are currently in
// the ready, wait, or timer queues.
func (e *Engine) CountPendingRequests(typ message.Type) int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.countPendingRequests(typ)
}

func (e *Engine) countPendingRequests(typ message.Type) int {
	n := 0
	count := func(m *message.Message) bool {
		if m.Type == typ {
			n++
		}
		return true
	}
	e.ready.Each(count)
	e.wait.Each(count)
	e.timer.Each(count)
	return n
}

// DropPendingType frees every pending slot of typ across all three
// queues, e.g. so a host can clear stale MeterValues after a
// transaction aborts.
func (e *Engine) DropPendingType(typ message.Type) int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.dropPendingType(typ)
}

func (e *Engine) dropPendingType(typ message.Type) int {
	n := 0
	for _, l := range []*message.List{e.ready, e.wait, e.timer} {
		var matches []*message.Message
		l.Each(func(m *message.Message) bool {
			if m.Type == typ {
				matches = append(matches, m)
			}
			return true
		})
		for _, m := range matches {
			e.free(m, hook.FreeReasonCompleted)
			n++
		}
	}
	return n
}

// TypeFromID looks up the wait list for the outstanding CALL whose id
// matches idstr (by the same prefix rule findByID uses for
// correlation) and returns its message type. ok is false if nothing
// outstanding matches.
func (e *Engine) TypeFromID(idstr string) (message.Type, bool) {
	e.lock.Lock()
	defer e.lock.Unlock()

	m := e.findByID(idstr)
	if m == nil {
		return message.Unknown, false
	}
	return m.Type, true
}

// StringifyType returns typ's wire name.
func StringifyType(typ message.Type) string { return typ.String() }

// TypeFromString parses a wire name back into a Type.
func TypeFromString(name string) (message.Type, bool) { return message.ParseType(name) }

// evictOne walks the ready queue from the head and frees the first
// evictable slot it finds. Returns false if nothing in
// ready is evictable. Callers must already hold e.lock.
func (e *Engine) evictOne() bool {
	var victim *message.Message
	e.ready.Each(func(m *message.Message) bool {
		if isEvictable(m.Type) {
			victim = m
			return false
		}
		return true
	})
	if victim == nil {
		return false
	}
	e.free(victim, hook.FreeReasonEvicted)
	return true
}
