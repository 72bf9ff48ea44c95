package metrics

import "github.com/prometheus/client_golang/prometheus"

// CaseMetrics tracks the remediation case lifecycle.
//
// Metrics:
//   - vigil_cases_created_total: cases opened by type and priority
//   - vigil_case_transitions_total: status transitions
//   - vigil_case_escalations_total: escalations by ladder level
//   - vigil_sla_breaches_total: SLA breaches by severity
type CaseMetrics struct {
	casesCreatedTotal    *prometheus.CounterVec
	caseTransitionsTotal *prometheus.CounterVec
	escalationsTotal     *prometheus.CounterVec
	slaBreachesTotal     *prometheus.CounterVec
}

// NewCaseMetrics creates and registers case metrics.
func NewCaseMetrics(cfg Config, registry *prometheus.Registry) *CaseMetrics {
	m := &CaseMetrics{
		casesCreatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "cases_created_total",
				Help:      "Total number of remediation cases created",
			},
			[]string{"case_type", "priority"},
		),

		caseTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "case_transitions_total",
				Help:      "Total number of case status transitions",
			},
			[]string{"from", "to"},
		),

		escalationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "case_escalations_total",
				Help:      "Total number of case escalations",
			},
			[]string{"level"},
		),

		slaBreachesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "sla_breaches_total",
				Help:      "Total number of SLA deadline breaches",
			},
			[]string{"severity"},
		),
	}

	registry.MustRegister(
		m.casesCreatedTotal,
		m.caseTransitionsTotal,
		m.escalationsTotal,
		m.slaBreachesTotal,
	)
	return m
}

// RecordCaseCreated records one case creation.
func (m *CaseMetrics) RecordCaseCreated(caseType, priority string) {
	m.casesCreatedTotal.WithLabelValues(caseType, priority).Inc()
}

// RecordTransition records one status transition.
func (m *CaseMetrics) RecordTransition(from, to string) {
	m.caseTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordEscalation records one escalation to the given ladder level.
func (m *CaseMetrics) RecordEscalation(level string) {
	m.escalationsTotal.WithLabelValues(level).Inc()
}

// RecordSLABreach records one SLA breach.
func (m *CaseMetrics) RecordSLABreach(severity string) {
	m.slaBreachesTotal.WithLabelValues(severity).Inc()
}
