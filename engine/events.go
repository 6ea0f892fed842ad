package engine

import (
	"github.com/ocppcore/chargepoint/hook"
	"github.com/ocppcore/chargepoint/message"
)

// unlocked releases e.lock for the duration of fn and reacquires it
// before returning, so a host hook (or transport call) that re-enters
// the engine cannot deadlock against the goroutine that is currently
// holding the lock on its behalf. Every caller must already hold
// e.lock.
func (e *Engine) unlocked(fn func()) {
	e.lock.Unlock()
	defer e.lock.Lock()
	fn()
}

// emitIncoming delivers an inbound CALL or a correlated
// CALLRESULT/CALLERROR to every registered hook.
func (e *Engine) emitIncoming(msg *message.Message) {
	e.unlocked(func() { e.hooks.OnIncoming(msg) })
}

// emitOutgoing fires right after a successful Transport.Send, giving
// a host an outbound signal it can use for metrics or rate limiting.
func (e *Engine) emitOutgoing(msg *message.Message) {
	e.unlocked(func() { e.hooks.OnOutgoing(msg) })
}

// emitFree fires right before a slot is wiped and returned to the
// pool.
func (e *Engine) emitFree(msg *message.Message, reason hook.FreeReason) {
	e.log.Debug("freeing slot", "type", msg.Type.String(), "id", msg.ID, "reason", reason.String())
	e.unlocked(func() { e.hooks.OnFree(msg, reason) })
}

// emitError reports a receive-side failure (negative
// event codes).
func (e *Engine) emitError(code EventCode, msg *message.Message, err error) {
	e.log.Warn("receive error", "code", int(code), "err", err)
	e.unlocked(func() { e.hooks.OnError(int(code), msg, err) })
}

// free detaches m from whichever list owns it, notifies hooks, and
// returns the slot to the pool. Always call this instead of
// pool.release directly so the MESSAGE_FREE event fires before the
// slot's contents are wiped.
func (e *Engine) free(m *message.Message, reason hook.FreeReason) {
	if l := listOf(m); l != nil {
		l.Remove(m)
	}
	e.emitFree(m, reason)
	e.pool.release(m)
}

// listOf returns the message.List currently owning m, or nil.
func listOf(m *message.Message) *message.List {
	if !m.InList() {
		return nil
	}
	return m.ListRef()
}
