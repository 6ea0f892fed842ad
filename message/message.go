// Package message defines the wire-agnostic message record the engine
// schedules — a typed slot with an opaque payload, independent of how
// that payload is eventually serialized onto the wire — and the
// intrusive list used to thread slots through the engine's queues
// without a separate per-node allocation.
package message

import "fmt"

// Role identifies the direction/kind of a slot. The zero value, RoleNone,
// marks a free pool slot.
type Role byte

const (
	RoleNone       Role = iota // free slot
	RoleAlloc                  // reserved but not yet filled in
	RoleCall                   // outbound/inbound request
	RoleCallResult             // successful response
	RoleCallError              // failure response
)

func (r Role) String() string {
	switch r {
	case RoleNone:
		return "NONE"
	case RoleAlloc:
		return "ALLOC"
	case RoleCall:
		return "CALL"
	case RoleCallResult:
		return "CALLRESULT"
	case RoleCallError:
		return "CALLERROR"
	default:
		return fmt.Sprintf("Role(%d)", byte(r))
	}
}

// MaxIDLen bounds the correlation identifier, mirroring the
// MESSAGE_ID_MAXLEN tuning constant from the host-side ABI (36 bytes
// for a UUID plus a terminator, rounded up).
const MaxIDLen = 40

// Message is one pool slot: a scheduled CALL, CALLRESULT, or CALLERROR
// together with the bookkeeping the retry/expiry policy needs. Payload
// is opaque to the engine; it never inspects the bytes.
type Message struct {
	ID       string
	Role     Role
	Type     Type
	Payload  []byte
	Expiry   int64 // absolute seconds; meaning depends on which list holds the slot
	Attempts int

	list       *List // list currently owning this slot, nil if detached
	prev, next *Message
}

// Reset clears a slot back to the free state. The caller must detach
// the slot from any list before calling Reset.
func (m *Message) Reset() {
	m.ID = ""
	m.Role = RoleNone
	m.Type = 0
	m.Payload = nil
	m.Expiry = 0
	m.Attempts = 0
}

// InList reports whether the slot currently belongs to a list.
func (m *Message) InList() bool {
	return m.list != nil
}

// ListRef returns the list currently owning the slot, or nil if it is
// detached. Engines use this to remove a slot without having to track
// which of several queues last held it.
func (m *Message) ListRef() *List {
	return m.list
}

// List is an intrusive doubly-linked FIFO of *Message, threaded
// through each slot's own prev/next fields rather than boxing nodes
// separately — the shape used when
// targeting a fixed slab of slots.
type List struct {
	root Message // sentinel; root.next = head, root.prev = tail
	n    int
}

// NewList returns an empty, ready-to-use list.
func NewList() *List {
	l := &List{}
	l.root.next = &l.root
	l.root.prev = &l.root
	return l
}

// Len returns the number of slots currently in the list.
func (l *List) Len() int { return l.n }

// Front returns the head slot, or nil if the list is empty.
func (l *List) Front() *Message {
	if l.n == 0 {
		return nil
	}
	return l.root.next
}

// PushBack appends m to the tail of the list (ordinary FIFO enqueue).
func (l *List) PushBack(m *Message) {
	l.insertAfter(m, l.root.prev)
}

// PushFront inserts m at the head of the list — used when a retried
// message must preempt the ready queue.
func (l *List) PushFront(m *Message) {
	l.insertAfter(m, &l.root)
}

func (l *List) insertAfter(m, at *Message) {
	if m.list != nil {
		panic("message: slot already linked into a list")
	}
	n := at.next
	at.next = m
	m.prev = at
	m.next = n
	n.prev = m
	m.list = l
	l.n++
}

// Remove detaches m from whichever list it belongs to. No-op if m is
// not currently linked.
func (l *List) Remove(m *Message) {
	if m.list != l {
		return
	}
	m.prev.next = m.next
	m.next.prev = m.prev
	m.prev = nil
	m.next = nil
	m.list = nil
	l.n--
}

// Each calls fn for every slot from head to tail. fn must not mutate
// list membership of any slot other than via the returned continue
// signal; callers needing removal-during-iteration should collect
// matches first.
func (l *List) Each(fn func(*Message) bool) {
	for m := l.root.next; m != &l.root; m = m.next {
		if !fn(m) {
			return
		}
	}
}
