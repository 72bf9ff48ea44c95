package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EvaluationMetrics tracks policy evaluation.
//
// Metrics:
//   - vigil_policy_evaluations_total: evaluations by rule and outcome
//   - vigil_policy_evaluation_duration_seconds: evaluation duration
//   - vigil_policy_violations_total: violations by rule and severity
type EvaluationMetrics struct {
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	violationsTotal    *prometheus.CounterVec
}

// NewEvaluationMetrics creates and registers evaluation metrics.
func NewEvaluationMetrics(cfg Config, registry *prometheus.Registry) *EvaluationMetrics {
	m := &EvaluationMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "policy_evaluations_total",
				Help:      "Total number of policy evaluations",
			},
			[]string{"rule_code", "outcome"},
		),

		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "policy_evaluation_duration_seconds",
				Help:      "Duration of policy evaluation in seconds",
				// Condition trees are small; evaluations sit well under a millisecond.
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15),
			},
			[]string{"rule_code"},
		),

		violationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "policy_violations_total",
				Help:      "Total number of policy violations detected",
			},
			[]string{"rule_code", "severity"},
		),
	}

	registry.MustRegister(
		m.evaluationsTotal,
		m.evaluationDuration,
		m.violationsTotal,
	)
	return m
}

// RecordEvaluation records one rule evaluation.
func (m *EvaluationMetrics) RecordEvaluation(ruleCode string, violated bool, duration time.Duration) {
	outcome := "passed"
	if violated {
		outcome = "violated"
	}
	m.evaluationsTotal.WithLabelValues(ruleCode, outcome).Inc()
	m.evaluationDuration.WithLabelValues(ruleCode).Observe(duration.Seconds())
}

// RecordViolation records one detected violation.
func (m *EvaluationMetrics) RecordViolation(ruleCode, severity string) {
	m.violationsTotal.WithLabelValues(ruleCode, severity).Inc()
}
