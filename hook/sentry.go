package hook

import (
	"fmt"

	"github.com/getsentry/sentry-go"

	"github.com/ocppcore/chargepoint/message"
)

// SentryHook reports receive-side failures and budget-exhausted drops
// to Sentry, so an operator sees a charge point that's stopped
// getting responses without having to read its logs.
type SentryHook struct {
	*Base
	hub *sentry.Hub
}

// NewSentryHook wraps hub (pass sentry.CurrentHub() for the default
// client configured via sentry.Init).
func NewSentryHook(hub *sentry.Hub) *SentryHook {
	return &SentryHook{Base: &Base{id: "sentry"}, hub: hub}
}

func (h *SentryHook) Provides(event Event) bool {
	return event == OnError || event == OnFree
}

func (h *SentryHook) OnError(code int, msg *message.Message, err error) {
	h.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("event_code", eventCodeLabel(code))
		if msg != nil {
			scope.SetTag("message_type", msg.Type.String())
			scope.SetTag("message_id", msg.ID)
		}
		if err != nil {
			h.hub.CaptureException(err)
			return
		}
		h.hub.CaptureMessage(fmt.Sprintf("engine receive error: %s", eventCodeLabel(code)))
	})
}

func (h *SentryHook) OnFree(msg *message.Message, reason FreeReason) {
	if reason != FreeReasonBudgetExhausted {
		return
	}
	h.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("message_type", msg.Type.String())
		scope.SetTag("message_id", msg.ID)
		scope.SetLevel(sentry.LevelWarning)
		h.hub.CaptureMessage(fmt.Sprintf("dropped %s after exhausting its retry budget", msg.Type))
	})
}
