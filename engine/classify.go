package engine

import "github.com/ocppcore/chargepoint/message"

// isTransactionRelated reports whether typ is one of the three
// message types that must never be dropped for budget exhaustion —
// StartTransaction, StopTransaction, MeterValues.
func isTransactionRelated(typ message.Type) bool {
	switch typ {
	case message.StartTransaction, message.StopTransaction, message.MeterValues:
		return true
	default:
		return false
	}
}

// isDroppable reports whether typ may be freed outright once its
// attempt budget is exhausted. Transaction-related types and
// BootNotification are never droppable; everything else is.
func isDroppable(typ message.Type) bool {
	if isTransactionRelated(typ) {
		return false
	}
	return typ != message.BootNotification
}

// isEvictable reports whether a ready-queue slot of this type may be
// sacrificed to make room for a forced PushRequest. MeterValues is the
// deliberate asymmetry: it is evictable (may be bumped from the queue
// to free a slot) but not droppable (never freed merely for running
// out of retries).
func isEvictable(typ message.Type) bool {
	switch typ {
	case message.BootNotification, message.StartTransaction, message.StopTransaction:
		return false
	default:
		return true
	}
}
