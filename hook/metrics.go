package hook

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ocppcore/chargepoint/message"
)

// MetricsHook publishes engine activity as Prometheus counters,
// mirroring the broker's use of client_golang for operational
// visibility.
type MetricsHook struct {
	*Base

	incoming *prometheus.CounterVec
	outgoing *prometheus.CounterVec
	freed    *prometheus.CounterVec
	errors   *prometheus.CounterVec
}

// NewMetricsHook creates a MetricsHook and registers its collectors
// against reg. Pass prometheus.DefaultRegisterer for the global
// registry.
func NewMetricsHook(reg prometheus.Registerer) *MetricsHook {
	h := &MetricsHook{
		Base: &Base{id: "metrics"},
		incoming: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ocpp_engine",
			Name:      "messages_incoming_total",
			Help:      "Messages delivered to the host, by type.",
		}, []string{"type"}),
		outgoing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ocpp_engine",
			Name:      "messages_outgoing_total",
			Help:      "Messages handed to the transport, by type.",
		}, []string{"type"}),
		freed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ocpp_engine",
			Name:      "slots_freed_total",
			Help:      "Pool slots returned to the pool, by type and reason.",
		}, []string{"type", "reason"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ocpp_engine",
			Name:      "receive_errors_total",
			Help:      "Receive-side failures, by event code.",
		}, []string{"code"}),
	}

	reg.MustRegister(h.incoming, h.outgoing, h.freed, h.errors)
	return h
}

func (h *MetricsHook) Provides(event Event) bool {
	switch event {
	case OnIncoming, OnOutgoing, OnFree, OnError:
		return true
	default:
		return false
	}
}

func (h *MetricsHook) OnIncoming(msg *message.Message) {
	h.incoming.WithLabelValues(msg.Type.String()).Inc()
}

func (h *MetricsHook) OnOutgoing(msg *message.Message) {
	h.outgoing.WithLabelValues(msg.Type.String()).Inc()
}

func (h *MetricsHook) OnFree(msg *message.Message, reason FreeReason) {
	h.freed.WithLabelValues(msg.Type.String(), reason.String()).Inc()
}

func (h *MetricsHook) OnError(code int, msg *message.Message, err error) {
	h.errors.WithLabelValues(eventCodeLabel(code)).Inc()
}

func eventCodeLabel(code int) string {
	switch code {
	case -1:
		return "no_correlation"
	case -2:
		return "invalid_role"
	case -3:
		return "transport_error"
	default:
		return "unknown"
	}
}
