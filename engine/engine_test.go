package engine

import (
	"fmt"

	"github.com/ocppcore/chargepoint/hook"
	"github.com/ocppcore/chargepoint/message"
)

// fakeClock gives tests explicit control over "now" instead of racing
// the real wall clock.
type fakeClock struct{ t int64 }

func (c *fakeClock) Now() int64 { return c.t }

// seqIDs hands out predictable, distinct ids so tests can assert on
// exact wire content.
type seqIDs struct{ n int }

func (s *seqIDs) Generate() string {
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

// fakeTransport is an in-memory Transport: Send appends to Sent, Recv
// drains a queue a test preloads, returning ErrNoMessage once it runs
// dry.
type fakeTransport struct {
	Sent []*message.Message

	sendErr error
	inbox   []*message.Message
	recvErr error
}

func (f *fakeTransport) Send(m *message.Message) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	cp := *m
	f.Sent = append(f.Sent, &cp)
	return nil
}

func (f *fakeTransport) Recv() (*message.Message, error) {
	if len(f.inbox) == 0 {
		if f.recvErr != nil {
			return nil, f.recvErr
		}
		return nil, ErrNoMessage
	}
	m := f.inbox[0]
	f.inbox = f.inbox[1:]
	return m, nil
}

func (f *fakeTransport) deliver(m *message.Message) { f.inbox = append(f.inbox, m) }

// recordingHook captures every event it's told about for assertions.
type recordingHook struct {
	*hook.Base
	incoming []*message.Message
	outgoing []*message.Message
	freed    []freedSlot
	errors   []recordedError
}

type freedSlot struct {
	msg    *message.Message
	reason hook.FreeReason
}

type recordedError struct {
	code int
	msg  *message.Message
	err  error
}

func newRecordingHook(id string) *recordingHook {
	return &recordingHook{Base: hook.NewHookBase(id)}
}

func (r *recordingHook) Provides(event hook.Event) bool { return true }

func (r *recordingHook) OnIncoming(msg *message.Message) {
	cp := *msg
	r.incoming = append(r.incoming, &cp)
}

func (r *recordingHook) OnOutgoing(msg *message.Message) {
	cp := *msg
	r.outgoing = append(r.outgoing, &cp)
}

func (r *recordingHook) OnFree(msg *message.Message, reason hook.FreeReason) {
	cp := *msg
	r.freed = append(r.freed, freedSlot{msg: &cp, reason: reason})
}

func (r *recordingHook) OnError(code int, msg *message.Message, err error) {
	var cp *message.Message
	if msg != nil {
		c := *msg
		cp = &c
	}
	r.errors = append(r.errors, recordedError{code: code, msg: cp, err: err})
}

// newTestEngine wires an Engine to a fakeClock/fakeTransport/seqIDs
// triple and a recordingHook, returning all of them for inspection.
func newTestEngine(maxRetries int, requestTimeout int64) (*Engine, *fakeClock, *fakeTransport, *recordingHook) {
	clock := &fakeClock{t: 1000}
	transport := &fakeTransport{}
	rec := newRecordingHook("rec")
	hooks := hook.NewManager()
	_ = hooks.Add(rec)

	e, err := New(Options{
		PoolSize:       DefaultPoolSize,
		RequestTimeout: requestTimeout,
		MaxRetries:     maxRetries,
		Clock:          clock,
		IDs:            &seqIDs{},
		Transport:      transport,
		Hooks:          hooks,
	})
	if err != nil {
		panic(err)
	}
	return e, clock, transport, rec
}
