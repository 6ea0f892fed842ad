package engine

import (
	"context"

	"github.com/ocppcore/chargepoint/config"
	"github.com/ocppcore/chargepoint/hook"
	"github.com/ocppcore/chargepoint/message"
)

// Step advances the engine by one scheduling tick, running the five
// ordered phases: process wait timeouts, transmit
// at most one message, receive and correlate at most one message,
// synthesize a Heartbeat if the link has gone quiet, and promote any
// deferred requests whose ready time has arrived. Step serializes
// itself against every other public method via the engine's Locker;
// the caller does not need to hold it.
func (e *Engine) Step(now int64) {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.processWaitTimeouts(now)
	e.transmitOne(now)
	e.receiveOne(now)
	e.synthesizeHeartbeat(now)
	e.promoteDueTimers(now)
}

// processWaitTimeouts is phase 1: any slot whose wait deadline has
// passed is either dropped (budget exhausted, droppable) or requeued
// at the head of ready for an immediate retry.
func (e *Engine) processWaitTimeouts(now int64) {
	var expired []*message.Message
	e.wait.Each(func(m *message.Message) bool {
		if m.Expiry <= now {
			expired = append(expired, m)
		}
		return true
	})

	for _, m := range expired {
		e.wait.Remove(m)
		if e.shouldDrop(m.Type, m.Attempts) {
			e.free(m, hook.FreeReasonBudgetExhausted)
			continue
		}
		e.ready.PushFront(m)
	}
}

// transmitOne is phase 2: if nothing is currently awaiting a
// response, send the head of ready.
func (e *Engine) transmitOne(now int64) {
	if e.wait.Len() > 0 {
		return
	}
	m := e.ready.Front()
	if m == nil {
		return
	}
	e.ready.Remove(m)

	m.Attempts++
	m.Expiry = e.waitDeadline(now)

	var err error
	e.unlocked(func() { err = e.transport.Send(m) })
	if err != nil {
		e.log.Warn("send failed", "type", m.Type.String(), "id", m.ID, "attempts", m.Attempts, "err", err)
		if e.shouldDrop(m.Type, m.Attempts) {
			e.free(m, hook.FreeReasonBudgetExhausted)
			return
		}
		e.wait.PushBack(m)
		return
	}

	e.emitOutgoing(m)
	switch m.Role {
	case message.RoleCall:
		e.wait.PushBack(m)
	default:
		e.free(m, hook.FreeReasonCompleted)
	}
}

// receiveOne is phase 3: poll the transport once and correlate
// whatever comes back.
func (e *Engine) receiveOne(now int64) {
	var msg *message.Message
	var err error
	e.unlocked(func() { msg, err = e.transport.Recv() })
	if err != nil {
		if err == ErrNoMessage {
			return
		}
		e.emitError(EventTransportError, nil, err)
		return
	}

	e.rxTS = now

	switch msg.Role {
	case message.RoleCall:
		e.emitIncoming(msg)

	case message.RoleCallResult, message.RoleCallError:
		e.correlateResponse(now, msg)

	default:
		e.emitError(EventInvalidRole, msg, nil)
	}
}

// correlateResponse implements the response-matching rule:
// on a match, deliver MESSAGE_INCOMING and update tx_ts; a CALLERROR
// against a transaction-related request is re-armed in wait up to its
// attempt budget before finally being freed, every other match frees
// its slot outright.
func (e *Engine) correlateResponse(now int64, msg *message.Message) {
	found := e.findByID(msg.ID)
	if found == nil {
		e.emitError(EventNoCorrelation, msg, nil)
		return
	}

	e.txTS = now
	e.emitIncoming(msg)

	if msg.Role == message.RoleCallError && isTransactionRelated(found.Type) {
		if e.transactionMessageAttemptsExhausted(found.Attempts) {
			e.free(found, hook.FreeReasonBudgetExhausted)
			return
		}
		found.Attempts++
		e.wait.Remove(found)
		found.Expiry = now + e.nextSendPeriod(found.Type, found.Attempts)
		e.wait.PushBack(found)
		return
	}

	e.free(found, hook.FreeReasonCompleted)
}

// synthesizeHeartbeat is phase 4: when nothing else is in flight and
// the link has been quiet for HeartbeatInterval seconds measured from
// tx_ts, enqueue a Heartbeat and re-run the transmit phase once so it
// goes out in the same Step call.
func (e *Engine) synthesizeHeartbeat(now int64) {
	interval := int64(config.GetInt(context.Background(), e.config, config.KeyHeartbeatInterval, config.DefaultHeartbeatInterval))
	if interval <= 0 {
		return
	}
	if e.ready.Len() != 0 || e.wait.Len() != 0 {
		return
	}
	if now-e.txTS < interval {
		return
	}

	if _, err := e.pushRequest(message.Heartbeat, nil, false); err != nil {
		e.log.Warn("heartbeat synthesis failed", "err", err)
		return
	}
	e.transmitOne(now)
}

// promoteDueTimers is phase 5: any deferred request whose ready time
// has arrived moves from the timer list to the tail of ready.
func (e *Engine) promoteDueTimers(now int64) {
	var due []*message.Message
	e.timer.Each(func(m *message.Message) bool {
		if m.Expiry <= now {
			due = append(due, m)
		}
		return true
	})
	for _, m := range due {
		e.timer.Remove(m)
		e.ready.PushBack(m)
	}
}
