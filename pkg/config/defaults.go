package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8085"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Rule loading defaults
	DefaultRulesDir         = "./rules"
	DefaultRulesWatch       = false
	DefaultRulesDebounce    = 100 * time.Millisecond
	DefaultRulesBackend     = "memory"
	DefaultRulesSQLitePath  = "data/rules.db"
	DefaultRulesBusyTimeout = 5 * time.Second

	// Case store defaults
	DefaultCasesBackend      = "memory"
	DefaultCasesSQLitePath   = "data/cases.db"
	DefaultCasesMaxOpenConns = 10
	DefaultCasesMaxIdleConns = 5
	DefaultCasesWALMode      = true
	DefaultCasesBusyTimeout  = 5 * time.Second

	// Risk service defaults
	DefaultRiskServiceTimeout      = 30 * time.Second
	DefaultRiskServiceMaxIdleConns = 10

	// Workflow defaults
	DefaultSweepSchedule       = "0 * * * *"
	DefaultConfidenceThreshold = 0.85

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Metrics defaults
	DefaultMetricsEnabled   = true
	DefaultMetricsNamespace = "vigil"
	DefaultMetricsPath      = "/metrics"
)

// DefaultConfig returns a configuration populated with defaults.
// Boolean fields that default to true are set here; ApplyDefaults
// cannot distinguish an explicit false from an unset field.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Cases.WALMode = DefaultCasesWALMode
	cfg.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Rules.Dir == "" {
		cfg.Rules.Dir = DefaultRulesDir
	}
	if cfg.Rules.DebounceInterval <= 0 {
		cfg.Rules.DebounceInterval = DefaultRulesDebounce
	}
	if cfg.Rules.Backend == "" {
		cfg.Rules.Backend = DefaultRulesBackend
	}
	if cfg.Rules.SQLitePath == "" {
		cfg.Rules.SQLitePath = DefaultRulesSQLitePath
	}
	if cfg.Rules.BusyTimeout <= 0 {
		cfg.Rules.BusyTimeout = DefaultRulesBusyTimeout
	}

	if cfg.Cases.Backend == "" {
		cfg.Cases.Backend = DefaultCasesBackend
	}
	if cfg.Cases.SQLitePath == "" {
		cfg.Cases.SQLitePath = DefaultCasesSQLitePath
	}
	if cfg.Cases.MaxOpenConns <= 0 {
		cfg.Cases.MaxOpenConns = DefaultCasesMaxOpenConns
	}
	if cfg.Cases.MaxIdleConns <= 0 {
		cfg.Cases.MaxIdleConns = DefaultCasesMaxIdleConns
	}
	if cfg.Cases.BusyTimeout <= 0 {
		cfg.Cases.BusyTimeout = DefaultCasesBusyTimeout
	}

	if cfg.RiskService.Timeout <= 0 {
		cfg.RiskService.Timeout = DefaultRiskServiceTimeout
	}
	if cfg.RiskService.MaxIdleConns <= 0 {
		cfg.RiskService.MaxIdleConns = DefaultRiskServiceMaxIdleConns
	}

	if cfg.Workflow.SweepSchedule == "" {
		cfg.Workflow.SweepSchedule = DefaultSweepSchedule
	}
	if cfg.Workflow.ConfidenceThreshold <= 0 {
		cfg.Workflow.ConfidenceThreshold = DefaultConfidenceThreshold
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}
