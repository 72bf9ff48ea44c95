package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vigil-hq/vigil/pkg/policy/ast"
	"vigil-hq/vigil/pkg/policy/engine"
	"vigil-hq/vigil/pkg/profile"
)

// DispatchResult reports what a dispatch did for one violated rule.
type DispatchResult struct {
	RuleCode     string                `json:"ruleCode"`
	Mode         ast.EnforcementMode   `json:"mode"`
	CaseNumber   string                `json:"caseNumber,omitempty"`
	Alerted      bool                  `json:"alerted"`
	Restrictions []ast.RestrictionType `json:"restrictions,omitempty"`
}

// Dispatcher turns a rule violation into the graduated enforcement
// response its rule configures: an audit trail entry, an alert, a
// remediation case, or a case plus profile restriction.
type Dispatcher struct {
	manager  *Manager
	profiles profile.Store
	notifier profile.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewDispatcher wires a Dispatcher. notifier may be nil when alerting
// is not configured; alert_only violations then degrade to a log line.
func NewDispatcher(manager *Manager, profiles profile.Store, notifier profile.Notifier, logger *slog.Logger, now func() time.Time) *Dispatcher {
	if logger == nil {
		logger = slog.Default().With("component", "dispatcher")
	}
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{manager: manager, profiles: profiles, notifier: notifier, logger: logger, now: now}
}

// Dispatch applies rule enforcement for one violation. The result
// carries everything the dispatch produced.
func (d *Dispatcher) Dispatch(ctx context.Context, rule *ast.PolicyRule, vendor *profile.Vendor, result engine.EvalResult) (DispatchResult, error) {
	if !result.Violated {
		return DispatchResult{RuleCode: rule.Code, Mode: rule.Enforcement.Mode}, nil
	}

	out := DispatchResult{RuleCode: rule.Code, Mode: rule.Enforcement.Mode}

	switch rule.Enforcement.Mode {
	case ast.ModeMonitor:
		err := d.profiles.AppendAudit(ctx, vendor.ID, profile.AuditEvent{
			At:      d.now(),
			Type:    "policy_violation_monitored",
			Actor:   "policy_engine",
			Details: map[string]any{"rule_code": rule.Code, "findings": len(result.Findings)},
		})
		if err != nil {
			return out, err
		}

	case ast.ModeAlertOnly:
		if err := d.sendAlert(ctx, rule, vendor, result); err != nil {
			return out, err
		}
		out.Alerted = true

	case ast.ModeSoftEnforce:
		c, err := d.openCase(ctx, rule, vendor, result, "")
		if err != nil {
			return out, err
		}
		out.CaseNumber = c.CaseNumber
		reason := fmt.Sprintf("policy %s violated, case %s opened", rule.Code, c.CaseNumber)
		if err := d.profiles.FlagForReview(ctx, vendor.ID, reason); err != nil {
			return out, err
		}

	case ast.ModeHardEnforce:
		restrictions := rule.Enforcement.RestrictionActions()
		if len(restrictions) == 0 {
			return out, &ValidationError{Field: "enforcement.actions", Message: fmt.Sprintf("rule %s: hard_enforce requires at least one restriction action", rule.Code)}
		}
		c, err := d.openCase(ctx, rule, vendor, result, PriorityUrgent)
		if err != nil {
			return out, err
		}
		out.CaseNumber = c.CaseNumber
		for _, action := range restrictions {
			restriction := profile.Restriction{
				Type:      action,
				Reason:    fmt.Sprintf("policy %s violated", rule.Code),
				CaseRef:   c.CaseNumber,
				AppliedAt: d.now(),
			}
			if err := d.profiles.ApplyRestriction(ctx, vendor.ID, restriction); err != nil {
				return out, err
			}
			out.Restrictions = append(out.Restrictions, restriction.Type)
		}

	default:
		return out, &ValidationError{Field: "enforcement.mode", Message: fmt.Sprintf("unknown mode %q", rule.Enforcement.Mode)}
	}

	d.logger.Info("enforcement dispatched",
		"rule_code", rule.Code,
		"vendor_id", vendor.ID,
		"mode", string(rule.Enforcement.Mode),
		"case_number", out.CaseNumber,
		"restrictions", len(out.Restrictions))
	return out, nil
}

func (d *Dispatcher) openCase(ctx context.Context, rule *ast.PolicyRule, vendor *profile.Vendor, result engine.EvalResult, force Priority) (*RemediationCase, error) {
	return d.manager.CreateCase(ctx, CaseRequest{
		VendorID:      vendor.ID,
		RuleCode:      rule.Code,
		Type:          CaseTypePolicyViolation,
		Severity:      rule.Severity,
		Title:         fmt.Sprintf("%s: %s", rule.Code, rule.Name),
		Findings:      result.Findings,
		ForcePriority: force,
		Actor:         "policy_engine",
	})
}

func (d *Dispatcher) sendAlert(ctx context.Context, rule *ast.PolicyRule, vendor *profile.Vendor, result engine.EvalResult) error {
	if d.notifier == nil {
		d.logger.Warn("no notifier configured, alert dropped",
			"rule_code", rule.Code, "vendor_id", vendor.ID)
		return nil
	}
	findings := make([]map[string]any, 0, len(result.Findings))
	for _, f := range result.Findings {
		findings = append(findings, map[string]any{
			"field":    f.Field,
			"operator": string(f.Operator),
			"expected": f.Expected,
			"actual":   f.Actual,
		})
	}
	return d.notifier.SendAlert(ctx, profile.Alert{
		VendorID:  vendor.ID,
		AlertType: "policy_violation",
		Severity:  rule.Severity,
		Title:     fmt.Sprintf("Policy %s violated", rule.Code),
		Message:   rule.Description,
		Data:      map[string]any{"findings": findings},
	})
}
