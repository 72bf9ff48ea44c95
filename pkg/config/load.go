package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified
// path. Defaults are applied first so the file only needs to name what
// it changes, then the result is validated.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Variables follow the naming
// convention VIGIL_SECTION_FIELD (e.g. VIGIL_SERVER_LISTEN_ADDRESS)
// and always take precedence over file-based configuration.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("VIGIL_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("VIGIL_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("VIGIL_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("VIGIL_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}

	// Rule loading overrides
	if val := os.Getenv("VIGIL_RULES_DIR"); val != "" {
		cfg.Rules.Dir = val
	}
	if val := os.Getenv("VIGIL_RULES_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Rules.Watch = b
		}
	}
	if val := os.Getenv("VIGIL_RULES_BACKEND"); val != "" {
		cfg.Rules.Backend = val
	}
	if val := os.Getenv("VIGIL_RULES_SQLITE_PATH"); val != "" {
		cfg.Rules.SQLitePath = val
	}

	// Case store overrides
	if val := os.Getenv("VIGIL_CASES_BACKEND"); val != "" {
		cfg.Cases.Backend = val
	}
	if val := os.Getenv("VIGIL_CASES_SQLITE_PATH"); val != "" {
		cfg.Cases.SQLitePath = val
	}

	// Risk service overrides
	if val := os.Getenv("VIGIL_RISK_SERVICE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.RiskService.Enabled = b
		}
	}
	if val := os.Getenv("VIGIL_RISK_SERVICE_BASE_URL"); val != "" {
		cfg.RiskService.BaseURL = val
	}
	if val := os.Getenv("VIGIL_RISK_SERVICE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.RiskService.Timeout = d
		}
	}

	// Workflow overrides
	if val := os.Getenv("VIGIL_WORKFLOW_SWEEP_SCHEDULE"); val != "" {
		cfg.Workflow.SweepSchedule = val
	}
	if val := os.Getenv("VIGIL_WORKFLOW_CONFIDENCE_THRESHOLD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Workflow.ConfidenceThreshold = f
		}
	}

	// Logging overrides
	if val := os.Getenv("VIGIL_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("VIGIL_LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}

	// Metrics overrides
	if val := os.Getenv("VIGIL_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
}
