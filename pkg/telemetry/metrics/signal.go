package metrics

import "github.com/prometheus/client_golang/prometheus"

// SignalMetrics tracks inbound signal processing.
//
// Metrics:
//   - vigil_signals_total: signals processed by source and status
//   - vigil_enrichment_failures_total: risk-service enrichment failures
type SignalMetrics struct {
	signalsTotal            *prometheus.CounterVec
	enrichmentFailuresTotal *prometheus.CounterVec
}

// NewSignalMetrics creates and registers signal metrics.
func NewSignalMetrics(cfg Config, registry *prometheus.Registry) *SignalMetrics {
	m := &SignalMetrics{
		signalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "signals_total",
				Help:      "Total number of compliance signals processed",
			},
			[]string{"source", "status"},
		),

		enrichmentFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "enrichment_failures_total",
				Help:      "Total number of failed risk-service enrichment calls",
			},
			[]string{"source"},
		),
	}

	registry.MustRegister(m.signalsTotal, m.enrichmentFailuresTotal)
	return m
}

// RecordSignal records one processed signal.
func (m *SignalMetrics) RecordSignal(source, status string) {
	m.signalsTotal.WithLabelValues(source, status).Inc()
}

// RecordEnrichmentFailure records one failed enrichment call.
func (m *SignalMetrics) RecordEnrichmentFailure(source string) {
	m.enrichmentFailuresTotal.WithLabelValues(source).Inc()
}
