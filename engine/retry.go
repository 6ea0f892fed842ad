package engine

import (
	"context"

	"github.com/ocppcore/chargepoint/config"
	"github.com/ocppcore/chargepoint/message"
)

// waitDeadline computes the wait-list expiry set the moment a message
// is handed to the transport: now plus the engine's request timeout
// ("OCPP_DEFAULT_TX_TIMEOUT_SEC").
func (e *Engine) waitDeadline(now int64) int64 {
	return now + e.opts.RequestTimeout
}

// droppableBudgetExhausted reports whether a droppable slot has used
// up its attempt budget. The budget is TX_RETRIES + 1 total attempts:
// the bare TX_RETRIES comparison would free a slot one wait-timeout
// expiration earlier (see DESIGN.md's note on
// Invariant 5 vs. the worked Scenario C example — the two disagree by
// exactly one attempt, and this implementation follows the invariant's
// precise "exactly TX_RETRIES + 1" wording).
func (e *Engine) droppableBudgetExhausted(attempts int) bool {
	return attempts >= e.opts.MaxRetries+1
}

// shouldDrop reports whether a slot should be dropped outright: true
// only for a droppable type that has exhausted its attempt budget.
// Transaction-related messages and BootNotification are excluded by
// isDroppable and so are never dropped by this path.
func (e *Engine) shouldDrop(typ message.Type, attempts int) bool {
	return isDroppable(typ) && e.droppableBudgetExhausted(attempts)
}

// nextSendPeriod computes the "next send" delay, in seconds, that the
// caller adds to now when a transaction-related request is re-armed
// after a CALLERROR response, without being requeued through a fresh
// transmit.
func (e *Engine) nextSendPeriod(typ message.Type, attempts int) int64 {
	switch {
	case isTransactionRelated(typ):
		interval := int64(config.GetInt(context.Background(), e.config, config.KeyTransactionMessageRetryInterval, config.DefaultTransactionMessageRetryInterval))
		return interval * int64(attempts)
	case typ == message.BootNotification || typ == message.Heartbeat:
		return int64(config.GetInt(context.Background(), e.config, config.KeyHeartbeatInterval, config.DefaultHeartbeatInterval))
	default:
		return e.opts.RequestTimeout
	}
}

// transactionMessageAttemptsExhausted applies the CALLERROR backoff
// budget: a transaction-related request is only ever freed by
// repeated CALLERROR responses, never by the wait-timeout or
// send-failure paths.
func (e *Engine) transactionMessageAttemptsExhausted(attempts int) bool {
	budget := config.GetInt(context.Background(), e.config, config.KeyTransactionMessageAttempts, config.DefaultTransactionMessageAttempts)
	return attempts >= budget
}
