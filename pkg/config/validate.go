package config

import (
	"fmt"
	"net/url"
	"strings"
)

// FieldError represents a validation error for a specific field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g. "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. All field errors are collected and reported together.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

var severityNames = map[string]bool{
	"low": true, "medium": true, "high": true, "critical": true,
}

// Validate validates the entire configuration. All errors are collected
// and returned together as a ValidationError.
func Validate(cfg *Config) error {
	var errs []FieldError

	if cfg.Server.ListenAddress == "" {
		errs = append(errs, FieldError{"server.listen_address", "must not be empty"})
	}

	switch cfg.Rules.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{"rules.backend",
			fmt.Sprintf("must be \"memory\" or \"sqlite\", got %q", cfg.Rules.Backend)})
	}
	if cfg.Rules.Backend == "sqlite" && cfg.Rules.SQLitePath == "" {
		errs = append(errs, FieldError{"rules.sqlite_path", "required for sqlite backend"})
	}
	if cfg.Rules.Dir == "" {
		errs = append(errs, FieldError{"rules.dir", "must not be empty"})
	}

	switch cfg.Cases.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{"cases.backend",
			fmt.Sprintf("must be \"memory\" or \"sqlite\", got %q", cfg.Cases.Backend)})
	}
	if cfg.Cases.Backend == "sqlite" && cfg.Cases.SQLitePath == "" {
		errs = append(errs, FieldError{"cases.sqlite_path", "required for sqlite backend"})
	}

	if cfg.RiskService.Enabled {
		if cfg.RiskService.BaseURL == "" {
			errs = append(errs, FieldError{"risk_service.base_url", "required when enabled"})
		} else if u, err := url.Parse(cfg.RiskService.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{"risk_service.base_url",
				fmt.Sprintf("not a valid URL: %q", cfg.RiskService.BaseURL)})
		}
	}

	if cfg.Workflow.ConfidenceThreshold < 0 || cfg.Workflow.ConfidenceThreshold > 1 {
		errs = append(errs, FieldError{"workflow.confidence_threshold",
			fmt.Sprintf("must be between 0 and 1, got %v", cfg.Workflow.ConfidenceThreshold)})
	}
	for name, entry := range cfg.Workflow.SLA {
		if !severityNames[name] {
			errs = append(errs, FieldError{"workflow.sla",
				fmt.Sprintf("unknown severity %q", name)})
		}
		if entry.ResolutionDays <= 0 {
			errs = append(errs, FieldError{
				fmt.Sprintf("workflow.sla.%s.resolution_days", name),
				"must be positive"})
		}
		if entry.ResponseDays <= 0 {
			errs = append(errs, FieldError{
				fmt.Sprintf("workflow.sla.%s.response_days", name),
				"must be positive"})
		}
	}

	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{"logging.level",
			fmt.Sprintf("unknown level %q", cfg.Logging.Level)})
	}
	switch cfg.Logging.Format {
	case "", "json", "text":
	default:
		errs = append(errs, FieldError{"logging.format",
			fmt.Sprintf("unknown format %q", cfg.Logging.Format)})
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Path == "" {
		errs = append(errs, FieldError{"metrics.path", "required when metrics are enabled"})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
