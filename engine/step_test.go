package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocppcore/chargepoint/config"
	"github.com/ocppcore/chargepoint/hook"
	"github.com/ocppcore/chargepoint/message"
)

// TestDroppableMessageFreedAfterBudgetExhausted exercises the
// resolved reading of Invariant 5: with MaxRetries=1 a droppable
// message is freed only after its second transmit attempt's wait
// timeout expires, not its first. See engine/retry.go's
// droppableBudgetExhausted for the reasoning behind "total attempts"
// rather than "retries after the first".
func TestDroppableMessageFreedAfterBudgetExhausted(t *testing.T) {
	e, clock, transport, rec := newTestEngine(1, 5)

	_, err := e.PushRequest(message.ClearCache, []byte("payload"), false)
	require.NoError(t, err)

	e.Step(clock.t) // attempt 1
	require.Len(t, transport.Sent, 1)
	assert.Equal(t, 1, e.CountPendingRequests(message.ClearCache))

	clock.t += 5 // first wait deadline passes
	e.Step(clock.t) // requeue + attempt 2
	require.Len(t, transport.Sent, 2)
	assert.Equal(t, 1, e.CountPendingRequests(message.ClearCache))
	require.Empty(t, rec.freed)

	clock.t += 5 // second wait deadline passes; budget exhausted
	e.Step(clock.t)

	require.Len(t, rec.freed, 1)
	assert.Equal(t, hook.FreeReasonBudgetExhausted, rec.freed[0].reason)
	assert.Equal(t, 0, e.CountPendingRequests(message.ClearCache))
	assert.Len(t, transport.Sent, 2, "a budget-exhausted drop must not trigger a third send")
}

// TestTransactionRelatedNeverDroppedByTimeout pins down the asymmetry
// in isDroppable: StartTransaction keeps retrying across many wait
// timeouts and is never freed by the timeout/send-failure path, only
// ever by a repeated CALLERROR (exercised separately).
func TestTransactionRelatedNeverDroppedByTimeout(t *testing.T) {
	e, clock, transport, rec := newTestEngine(1, 5)

	_, err := e.PushRequest(message.StartTransaction, nil, false)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		e.Step(clock.t)
		clock.t += 5
	}

	assert.Empty(t, rec.freed)
	assert.Equal(t, 1, e.CountPendingRequests(message.StartTransaction))
	assert.Greater(t, len(transport.Sent), 5)
}

// TestBootNotificationNeverDroppedByTimeout mirrors the transaction
// case for the other type isDroppable excludes.
func TestBootNotificationNeverDroppedByTimeout(t *testing.T) {
	e, clock, _, rec := newTestEngine(1, 5)

	_, err := e.PushRequest(message.BootNotification, nil, false)
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		e.Step(clock.t)
		clock.t += 5
	}

	assert.Empty(t, rec.freed)
	assert.Equal(t, 1, e.CountPendingRequests(message.BootNotification))
}

// TestTransactionRelatedCallErrorBackoffEventuallyFrees exercises the
// distinct attempt budget CALLERROR correlation applies to
// transaction-related requests (config.DefaultTransactionMessageAttempts),
// which is independent of MaxRetries/should_drop entirely.
func TestTransactionRelatedCallErrorBackoffEventuallyFrees(t *testing.T) {
	e, clock, transport, rec := newTestEngine(1, 5)

	store := config.NewDefaultMemoryStore()
	require.NoError(t, config.SetInt(context.Background(), store, config.KeyTransactionMessageAttempts, 2))
	e.config = store

	m, err := e.PushRequest(message.StartTransaction, nil, false)
	require.NoError(t, err)

	e.Step(clock.t) // sent, now in wait
	require.Len(t, transport.Sent, 1)

	errResp := &message.Message{ID: m.ID, Role: message.RoleCallError, Type: message.StartTransaction}

	transport.deliver(errResp)
	clock.t += 1
	e.Step(clock.t) // first CALLERROR: attempts is 1 (from the transmit), below the budget of 2; re-armed with attempts 2

	require.Empty(t, rec.freed)
	assert.Equal(t, 1, e.CountPendingRequests(message.StartTransaction))

	transport.deliver(&message.Message{ID: m.ID, Role: message.RoleCallError, Type: message.StartTransaction})
	clock.t += 1
	e.Step(clock.t) // second CALLERROR: attempts=2 reaches the budget, freed

	require.Len(t, rec.freed, 1)
	assert.Equal(t, hook.FreeReasonBudgetExhausted, rec.freed[0].reason)
}

// TestCorrelationAcceptsHostAppendedSuffix exercises the bidirectional
// prefix match findByID implements.
func TestCorrelationAcceptsHostAppendedSuffix(t *testing.T) {
	e, clock, transport, rec := newTestEngine(1, 5)

	m, err := e.PushRequest(message.Heartbeat, nil, false)
	require.NoError(t, err)

	e.Step(clock.t)
	require.Len(t, transport.Sent, 1)

	transport.deliver(&message.Message{ID: m.ID + "-suffix", Role: message.RoleCallResult, Type: message.Heartbeat})
	e.Step(clock.t)

	require.Len(t, rec.incoming, 1)
	require.Len(t, rec.freed, 1)
	assert.Equal(t, hook.FreeReasonCompleted, rec.freed[0].reason)
	assert.Equal(t, 0, e.CountPendingRequests(message.Heartbeat))
}

// TestUncorrelatedResponseReportsNoCorrelation checks the negative
// event path: a CALLRESULT matching nothing in wait surfaces
// EventNoCorrelation and touches no pool slot.
func TestUncorrelatedResponseReportsNoCorrelation(t *testing.T) {
	e, clock, _, rec := newTestEngine(1, 5)

	transport := e.transport.(*fakeTransport)
	transport.deliver(&message.Message{ID: "nobody-waiting", Role: message.RoleCallResult, Type: message.Heartbeat})

	e.Step(clock.t)

	require.Len(t, rec.errors, 1)
	assert.Equal(t, int(EventNoCorrelation), rec.errors[0].code)
	assert.Empty(t, rec.freed)
}

// TestHeartbeatScheduledOffTxTSOnly pins down the design note in
// engine.Engine: heartbeat synthesis reads only tx_ts, so an unrelated
// inbound message that bumps rx_ts must not postpone it.
func TestHeartbeatScheduledOffTxTSOnly(t *testing.T) {
	store := config.NewMemoryStore()
	require.NoError(t, config.SetInt(context.Background(), store, config.KeyHeartbeatInterval, 10))

	clock := &fakeClock{t: 1000}
	transport := &fakeTransport{}
	e, err := New(Options{
		RequestTimeout: 5,
		Clock:          clock,
		IDs:            &seqIDs{},
		Transport:      transport,
		Config:         store,
	})
	require.NoError(t, err)

	clock.t += 5
	transport.deliver(&message.Message{ID: "unrelated", Role: message.RoleCallResult, Type: message.Heartbeat})
	e.Step(clock.t) // rx_ts bumped to 1005, tx_ts still 1000; 5 < 10, no heartbeat yet

	assert.Empty(t, transport.Sent)

	clock.t += 6 // now - tx_ts(1000) = 11 >= 10
	e.Step(clock.t)

	require.Len(t, transport.Sent, 1)
	assert.Equal(t, message.Heartbeat, transport.Sent[0].Type)
}

// TestEvictionAsymmetry confirms MeterValues, which is never dropped
// for exhausting its retry budget, can still be evicted to make room
// for a forced BootNotification push.
func TestEvictionAsymmetry(t *testing.T) {
	e, _, _, _ := newTestEngine(1, 5)

	for i := 0; i < e.PoolSize(); i++ {
		_, err := e.PushRequest(message.MeterValues, nil, false)
		require.NoError(t, err)
	}

	_, err := e.PushRequest(message.BootNotification, nil, false)
	require.ErrorIs(t, err, ErrOutOfMemory)

	m, err := e.PushRequest(message.BootNotification, nil, true)
	require.NoError(t, err)
	assert.Equal(t, message.BootNotification, m.Type)
	assert.Equal(t, e.PoolSize()-1, e.CountPendingRequests(message.MeterValues))
}

// TestEvictionFailsWhenNothingEvictable confirms a pool saturated with
// non-evictable types still reports ErrOutOfMemory even with force set.
func TestEvictionFailsWhenNothingEvictable(t *testing.T) {
	e, _, _, _ := newTestEngine(1, 5)

	types := []message.Type{message.BootNotification, message.StartTransaction, message.StopTransaction}
	for i := 0; i < e.PoolSize(); i++ {
		_, err := e.PushRequest(types[i%len(types)], nil, false)
		require.NoError(t, err)
	}

	_, err := e.PushRequest(message.Heartbeat, nil, true)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}
