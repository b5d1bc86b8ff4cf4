package metrics

import "github.com/prometheus/client_golang/prometheus"

// IntakeMetrics exposes counters/histograms for the intake flow.
type IntakeMetrics struct {
	sessionsTotal   *prometheus.CounterVec
	turnsTotal      *prometheus.CounterVec
	turnLatency     *prometheus.HistogramVec
	aiLatency       *prometheus.HistogramVec
	matchRosterSize prometheus.Histogram
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		sessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "intake",
			Name:      "sessions_total",
			Help:      "Intake session lifecycle events",
		}, []string{"event"}),
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "intake",
			Name:      "turns_total",
			Help:      "Processed conversation turns",
		}, []string{"status"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dental",
			Subsystem: "intake",
			Name:      "turn_latency_seconds",
			Help:      "End-to-end latency of a conversation turn",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		aiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dental",
			Subsystem: "intake",
			Name:      "ai_backend_latency_seconds",
			Help:      "Latency of external AI backend calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "status"}),
		matchRosterSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dental",
			Subsystem: "intake",
			Name:      "match_roster_size",
			Help:      "Number of candidate dentists per matching call",
			Buckets:   []float64{1, 2, 5, 10, 20, 50},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.sessionsTotal, m.turnsTotal, m.turnLatency, m.aiLatency, m.matchRosterSize)
	return m
}

// ObserveSession records a lifecycle event: started, completed, abandoned.
func (m *IntakeMetrics) ObserveSession(event string) {
	if m == nil {
		return
	}
	m.sessionsTotal.WithLabelValues(event).Inc()
}

func (m *IntakeMetrics) ObserveTurn(status string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(status).Inc()
	m.turnLatency.WithLabelValues(status).Observe(seconds)
}

func (m *IntakeMetrics) ObserveAICall(backend, status string, seconds float64) {
	if m == nil {
		return
	}
	m.aiLatency.WithLabelValues(backend, status).Observe(seconds)
}

func (m *IntakeMetrics) ObserveMatchRoster(size int) {
	if m == nil {
		return
	}
	m.matchRosterSize.Observe(float64(size))
}
