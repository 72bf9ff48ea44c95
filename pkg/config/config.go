// Package config defines the engine configuration, loaded from YAML
// with environment variable overrides.
package config

import "time"

// Config is the root configuration for the engine.
type Config struct {
	// Server configures the HTTP surface (metrics, health).
	Server ServerConfig `yaml:"server"`

	// Rules configures policy rule loading.
	Rules RulesConfig `yaml:"rules"`

	// Cases configures remediation case persistence.
	Cases CasesConfig `yaml:"cases"`

	// RiskService configures the external risk-scoring client.
	RiskService RiskServiceConfig `yaml:"risk_service"`

	// Workflow configures SLA, sweep, and validation behavior.
	Workflow WorkflowConfig `yaml:"workflow"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures Prometheus instrumentation.
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// ListenAddress is the host:port the server binds to.
	ListenAddress string `yaml:"listen_address"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RulesConfig configures policy rule loading.
type RulesConfig struct {
	// Dir is the directory of YAML rule files.
	Dir string `yaml:"dir"`

	// Watch reloads rules when files in Dir change.
	Watch bool `yaml:"watch"`

	// DebounceInterval coalesces rapid file change events.
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// Backend selects rule persistence: "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// SQLitePath is the rule database path for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`

	// BusyTimeout is the sqlite lock wait duration.
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// CasesConfig configures remediation case persistence.
type CasesConfig struct {
	// Backend selects case persistence: "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// SQLitePath is the case database path for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`

	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	WALMode      bool          `yaml:"wal_mode"`
	BusyTimeout  time.Duration `yaml:"busy_timeout"`
}

// RiskServiceConfig configures the risk-scoring client.
type RiskServiceConfig struct {
	// Enabled turns enrichment and risk scoring on.
	Enabled bool `yaml:"enabled"`

	// BaseURL is the service base URL.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds each call.
	Timeout time.Duration `yaml:"timeout"`

	MaxIdleConns int `yaml:"max_idle_conns"`
}

// SLAEntry is one severity row of the SLA table.
type SLAEntry struct {
	ResponseDays   int `yaml:"response_days"`
	ResolutionDays int `yaml:"resolution_days"`
}

// WorkflowConfig configures case workflow behavior.
type WorkflowConfig struct {
	// SweepSchedule is the cron expression for the escalation sweep.
	// Empty disables the scheduled sweep.
	SweepSchedule string `yaml:"sweep_schedule"`

	// ConfidenceThreshold routes automated decisions below it through
	// the human validation gate.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`

	// SLA overrides the per-severity SLA table. Severities omitted here
	// keep their defaults.
	SLA map[string]SLAEntry `yaml:"sla"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// MetricsConfig configures Prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Path      string `yaml:"path"`
}
