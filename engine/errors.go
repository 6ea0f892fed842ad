package engine

import "github.com/cockroachdb/errors"

// Public sentinel errors returned by the engine's API surface.
var (
	// ErrOutOfMemory is returned by PushRequest/PushRequestDefer/
	// PushResponse when the pool is full and (for PushRequest) the
	// caller did not ask to force-evict.
	ErrOutOfMemory = errors.New("engine: message pool exhausted")

	// ErrIDTooLong is returned when a caller-supplied or generated id
	// exceeds message.MaxIDLen.
	ErrIDTooLong = errors.New("engine: message id exceeds maximum length")

	// ErrInvalidType is returned for an unrecognized message.Type.
	ErrInvalidType = errors.New("engine: unrecognized message type")

	// errNoEvictionCandidate names the case where a forced push cannot
	// find anything evictable. No path returns it: evictOne reports that
	// case as false and PushRequest returns ErrOutOfMemory.
	errNoEvictionCandidate = errors.New("engine: no evictable slot in ready queue")

	// ErrSnapshotMagic and ErrSnapshotVersion guard RestoreSnapshot
	// against corrupt or incompatible input before it touches engine
	// state.
	ErrSnapshotMagic      = errors.New("engine: snapshot header magic mismatch")
	ErrSnapshotVersion    = errors.New("engine: snapshot format version unsupported")
	ErrSnapshotTruncated  = errors.New("engine: snapshot buffer shorter than its declared header")
	ErrSnapshotPoolTooBig = errors.New("engine: snapshot pool size exceeds this engine's capacity")
)

// EventCode identifies what kind of lifecycle event a Hook is being
// told about.
type EventCode int

const (
	// EventIncoming fires once a CALLRESULT/CALLERROR has been
	// correlated to its request, or an inbound CALL has been handed
	// to the host.
	EventIncoming EventCode = 0

	// EventOutgoing fires right after a successful Transport.Send,
	// giving hosts (metrics, rate limiting) an outbound signal.
	EventOutgoing EventCode = 1

	// EventFree fires whenever a slot returns to the pool, whether by
	// successful completion, exhausted retry budget, or eviction.
	EventFree EventCode = 2

	// Negative codes report receive-side failures. A transport error
	// carries no message; an uncorrelated response or a message with an
	// undefined role is passed along with the code.
	EventNoCorrelation  EventCode = -1
	EventInvalidRole    EventCode = -2
	EventTransportError EventCode = -3
)
