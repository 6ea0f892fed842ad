package engine

import (
	"strings"

	"github.com/ocppcore/chargepoint/message"
)

// findByID scans the wait list for the slot whose id matches id by
// prefix, the correlation rule: a CALLRESULT or
// CALLERROR's unique id need only share id's leading bytes with the
// outstanding CALL it answers, accommodating hosts that append a
// disambiguating suffix to the wire id.
func (e *Engine) findByID(id string) *message.Message {
	var found *message.Message
	e.wait.Each(func(m *message.Message) bool {
		if strings.HasPrefix(id, m.ID) || strings.HasPrefix(m.ID, id) {
			found = m
			return false
		}
		return true
	})
	return found
}
