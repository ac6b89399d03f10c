package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "orders"

// Result labels shared by the domain counters.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// CartMetrics records cart engine and confirmation outcomes. A nil receiver is a no-op.
type CartMetrics struct {
	operations    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	confirmations *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_operations_total",
		Help:      "Cart mutations by operation and outcome code.",
	}, []string{"operation", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cart_operation_duration_seconds",
		Help:      "Latency of cart mutations including lock wait.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	confirmations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_confirmations_total",
		Help:      "Order confirmation attempts by outcome code.",
	}, []string{"code"})
	reg.MustRegister(operations, duration, confirmations)
	return &CartMetrics{operations: operations, duration: duration, confirmations: confirmations}
}

// ObserveOperation records one cart mutation. code is "ok" or an error code.
func (m *CartMetrics) ObserveOperation(operation, code string, elapsed time.Duration) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(operation), normalizeLabel(code)).Inc()
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(elapsed.Seconds())
}

func (m *CartMetrics) ObserveConfirmation(code string) {
	if m == nil || m.confirmations == nil {
		return
	}
	m.confirmations.WithLabelValues(normalizeLabel(code)).Inc()
}

// NotifierMetrics counts notification hand-offs per driver and channel.
type NotifierMetrics struct {
	sent    *prometheus.CounterVec
	skipped prometheus.Counter
}

func NewNotifierMetrics(reg prometheus.Registerer) *NotifierMetrics {
	if reg == nil {
		return &NotifierMetrics{}
	}
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notification dispatches by driver, channel and result.",
	}, []string{"driver", "channel", "result"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_deduplicated_total",
		Help:      "Notifications skipped because the order was already notified.",
	})
	reg.MustRegister(sent, skipped)
	return &NotifierMetrics{sent: sent, skipped: skipped}
}

func (m *NotifierMetrics) ObserveSend(driver, channel, result string) {
	if m == nil || m.sent == nil {
		return
	}
	m.sent.WithLabelValues(normalizeLabel(driver), normalizeLabel(channel), normalizeLabel(result)).Inc()
}

func (m *NotifierMetrics) IncDeduplicated() {
	if m == nil || m.skipped == nil {
		return
	}
	m.skipped.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
