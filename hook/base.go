package hook

import "github.com/ocppcore/chargepoint/message"

// Base is a no-op Hook implementation; embed it and override only the
// methods a concrete hook cares about.
type Base struct {
	id string
}

// NewHookBase creates a new base hook with the given ID.
func NewHookBase(id string) *Base {
	return &Base{id: id}
}

func (h *Base) ID() string { return h.id }

func (h *Base) Provides(event Event) bool { return false }

func (h *Base) OnIncoming(msg *message.Message) {}

func (h *Base) OnOutgoing(msg *message.Message) {}

func (h *Base) OnFree(msg *message.Message, reason FreeReason) {}

func (h *Base) OnError(code int, msg *message.Message, err error) {}
