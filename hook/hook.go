// Package hook provides an extension point manager for the engine's
// lifecycle events, narrowed from a broker-wide hook system down to
// the four signals a single-session message engine actually raises: a
// message arriving, a message going out, a slot being freed, and a
// receive-side error.
package hook

import "github.com/ocppcore/chargepoint/message"

// Event identifies which lifecycle point a Hook is being told about.
type Event byte

const (
	// OnIncoming fires when an inbound CALL is delivered to the host,
	// or a CALLRESULT/CALLERROR has been correlated to its request.
	OnIncoming Event = iota

	// OnOutgoing fires right after a message has been handed to the
	// transport successfully.
	OnOutgoing

	// OnFree fires whenever a slot is returned to the pool.
	OnFree

	// OnError fires on a receive-side failure: an uncorrelated
	// response, a message with an undefined role, or a transport
	// error surfaced by Recv.
	OnError
)

// String returns the event's name.
func (e Event) String() string {
	switch e {
	case OnIncoming:
		return "OnIncoming"
	case OnOutgoing:
		return "OnOutgoing"
	case OnFree:
		return "OnFree"
	case OnError:
		return "OnError"
	default:
		return "Unknown"
	}
}

// FreeReason records why a slot was returned to the pool, for hooks
// that want to distinguish a clean completion from a drop.
type FreeReason byte

const (
	FreeReasonCompleted FreeReason = iota
	FreeReasonBudgetExhausted
	FreeReasonEvicted
)

func (r FreeReason) String() string {
	switch r {
	case FreeReasonCompleted:
		return "completed"
	case FreeReasonBudgetExhausted:
		return "budget_exhausted"
	case FreeReasonEvicted:
		return "evicted"
	default:
		return "unknown"
	}
}

// Hook is the interface every engine extension implements. Provides
// lets the manager skip invoking hooks that don't care about a given
// event, the same filter the broker-wide hook system used.
type Hook interface {
	ID() string
	Provides(event Event) bool

	// OnIncoming is called with the message delivered to the host (an
	// inbound CALL, or a correlated CALLRESULT/CALLERROR).
	OnIncoming(msg *message.Message)

	// OnOutgoing is called right after Transport.Send succeeds.
	OnOutgoing(msg *message.Message)

	// OnFree is called right before a slot's contents are wiped and
	// returned to the pool.
	OnFree(msg *message.Message, reason FreeReason)

	// OnError is called for a receive-side failure. msg is nil unless
	// the engine managed to classify the offending payload.
	OnError(code int, msg *message.Message, err error)
}
