package engine

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/ocppcore/chargepoint/message"
)

// Clock abstracts the host-supplied wall-clock source: seconds,
// non-decreasing. The engine never calls time.Now directly so tests
// can drive it tick by tick.
type Clock interface {
	Now() int64
}

// SystemClock is the production Clock, backed by the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() int64 { return time.Now().Unix() }

// Locker is the mutual-exclusion pair the host supplies around every
// public entry point. Any sync.Locker satisfies it; the default is a
// plain *sync.Mutex.
type Locker = sync.Locker

// IDGenerator mints the correlation identifier used to tag a CALL.
type IDGenerator interface {
	Generate() string
}

// RandomIDGenerator produces hex-encoded random identifiers bounded by
// message.MaxIDLen, using a crypto/rand-backed approach common to
// similar client runtimes.
type RandomIDGenerator struct{}

func (RandomIDGenerator) Generate() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing is unrecoverable on any real host; fall
		// back to a fixed-but-unique-enough value rather than panic.
		return "00000000000000000000000000000000"
	}
	return hex.EncodeToString(b)
}

// ErrNoMessage is the internal sentinel for "no inbound message
// available right now". It is never surfaced to engine callers; Step
// treats it as "nothing to do this phase".
var ErrNoMessage = errNoMessage{}

type errNoMessage struct{}

func (errNoMessage) Error() string { return "no message available" }

// Transport is the pair of host-provided blocking primitives the
// engine calls to move messages on and off the wire.
// Wire codec and socket I/O are explicitly out of scope for this
// module; Transport is the seam.
type Transport interface {
	// Send hands msg to the transport. May block.
	Send(msg *message.Message) error

	// Recv tries to fetch one inbound message. Returns ErrNoMessage if
	// none is currently available. May block briefly.
	Recv() (*message.Message, error)
}
