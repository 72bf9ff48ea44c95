// Package metrics exposes Prometheus instrumentation for policy
// evaluation, signal processing, and the remediation case lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Config contains configuration for metric collection.
type Config struct {
	// Enabled turns metric collection on.
	Enabled bool `yaml:"enabled"`

	// Namespace prefixes every metric name. Default: "vigil".
	Namespace string `yaml:"namespace"`

	// Path is the HTTP path the exposition handler is mounted at.
	Path string `yaml:"path"`
}

// DefaultConfig returns the default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Namespace: "vigil",
		Path:      "/metrics",
	}
}

// Collector owns the Prometheus registry and all metric families.
type Collector struct {
	registry *prometheus.Registry

	Evaluation *EvaluationMetrics
	Cases      *CaseMetrics
	Signals    *SignalMetrics
}

// NewCollector creates a collector with the given config and registry.
// If registry is nil, a fresh private registry is used.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "vigil"
	}

	return &Collector{
		registry:   registry,
		Evaluation: NewEvaluationMetrics(cfg, registry),
		Cases:      NewCaseMetrics(cfg, registry),
		Signals:    NewSignalMetrics(cfg, registry),
	}
}

// Registry returns the underlying registry, for custom registrations.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
