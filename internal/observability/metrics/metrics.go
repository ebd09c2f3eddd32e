package metrics

import "github.com/prometheus/client_golang/prometheus"

// SessionMetrics exposes counters/histograms for the booking session core.
type SessionMetrics struct {
	turnsTotal         *prometheus.CounterVec
	bookingsTotal      *prometheus.CounterVec
	cancellationsTotal *prometheus.CounterVec
	parseFailuresTotal prometheus.Counter
	notificationsTotal *prometheus.CounterVec
	modelLatency       *prometheus.HistogramVec
	fallbacksTotal     *prometheus.CounterVec
}

func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	m := &SessionMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediassist",
			Subsystem: "session",
			Name:      "turns_total",
			Help:      "Conversational turns by outcome",
		}, []string{"outcome"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediassist",
			Subsystem: "ledger",
			Name:      "bookings_total",
			Help:      "Booking records applied to the ledger by status",
		}, []string{"status"}),
		cancellationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediassist",
			Subsystem: "ledger",
			Name:      "cancellations_total",
			Help:      "Cancellation requests by reconciliation outcome",
		}, []string{"outcome"}),
		parseFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mediassist",
			Subsystem: "parser",
			Name:      "failures_total",
			Help:      "Structured blocks that could not be decoded",
		}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediassist",
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Outbound notifications by status",
		}, []string{"status"}),
		modelLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mediassist",
			Subsystem: "session",
			Name:      "model_latency_seconds",
			Help:      "Latency of model collaborator calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		fallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediassist",
			Subsystem: "session",
			Name:      "model_fallbacks_total",
			Help:      "Primary model failures by fallback result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.bookingsTotal, m.cancellationsTotal, m.parseFailuresTotal, m.notificationsTotal, m.modelLatency, m.fallbacksTotal)
	return m
}

func (m *SessionMetrics) ObserveTurn(outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(outcome).Inc()
}

func (m *SessionMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *SessionMetrics) ObserveCancellation(outcome string) {
	if m == nil {
		return
	}
	m.cancellationsTotal.WithLabelValues(outcome).Inc()
}

func (m *SessionMetrics) ObserveParseFailure() {
	if m == nil {
		return
	}
	m.parseFailuresTotal.Inc()
}

func (m *SessionMetrics) ObserveNotification(status string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(status).Inc()
}

func (m *SessionMetrics) ObserveModelLatency(failed bool, seconds float64) {
	if m == nil {
		return
	}
	label := "ok"
	if failed {
		label = "error"
	}
	m.modelLatency.WithLabelValues(label).Observe(seconds)
}

// ObserveFallback records what happened after the primary model failed:
// "recovered", "failed" or "unavailable" when no fallback is configured.
func (m *SessionMetrics) ObserveFallback(result string) {
	if m == nil {
		return
	}
	m.fallbacksTotal.WithLabelValues(result).Inc()
}
