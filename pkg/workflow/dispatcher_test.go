package workflow_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"vigil-hq/vigil/pkg/policy/ast"
	"vigil-hq/vigil/pkg/policy/engine"
	"vigil-hq/vigil/pkg/profile"
	"vigil-hq/vigil/pkg/workflow"
)

func seedVendor(profiles *profile.MemoryStore) *profile.Vendor {
	v := &profile.Vendor{
		ID:            "V-100",
		Name:          "Acme Metals",
		Country:       "DE",
		Category:      "raw_materials",
		Tier:          "strategic",
		ContractValue: 1_800_000,
	}
	profiles.PutVendor(v, &profile.ComplianceProfile{
		VendorID:       "V-100",
		CompositeScore: 3.7,
		Tier:           "high",
	}, 1_800_000)
	return v
}

func enforcementRule(mode ast.EnforcementMode, actions ...ast.Action) *ast.PolicyRule {
	return &ast.PolicyRule{
		Code:        "SANC-001",
		Name:        "Sanctions screening hit",
		Description: "Vendor matched a sanctions list entry.",
		Severity:    ast.SeverityHigh,
		Enforcement: ast.Enforcement{Mode: mode, Actions: actions},
	}
}

func violation(rule *ast.PolicyRule) engine.EvalResult {
	return engine.EvalResult{
		RuleCode: rule.Code,
		Violated: true,
		Findings: []engine.Finding{{
			Field:    "sanctionsStatus.status",
			Operator: ast.OperatorEquals,
			Expected: "flagged",
			Actual:   "flagged",
			Message:  "sanctionsStatus.status equals flagged",
		}},
	}
}

// TestDispatcher_NoViolation tests that a passing evaluation produces no
// side effects at all.
func TestDispatcher_NoViolation(t *testing.T) {
	profiles := profile.NewMemoryStore()
	vendor := seedVendor(profiles)
	mgr, store := newTestManager(t, profiles)
	d := workflow.NewDispatcher(mgr, profiles, profiles, testLogger(), fixedClock(0))

	rule := enforcementRule(ast.ModeHardEnforce, ast.Action{Type: ast.ActionHoldPayments})
	out, err := d.Dispatch(context.Background(), rule, vendor, engine.EvalResult{RuleCode: rule.Code, Violated: false})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if out.CaseNumber != "" || out.Alerted || len(out.Restrictions) != 0 {
		t.Errorf("Dispatch() on pass produced side effects: %+v", out)
	}
	cases, _ := store.ListCases(context.Background(), workflow.CaseFilter{})
	if len(cases) != 0 {
		t.Errorf("case count = %d, want 0", len(cases))
	}
}

// TestDispatcher_Monitor tests that monitor mode only appends an audit
// trail entry on the vendor profile.
func TestDispatcher_Monitor(t *testing.T) {
	profiles := profile.NewMemoryStore()
	vendor := seedVendor(profiles)
	mgr, store := newTestManager(t, profiles)
	d := workflow.NewDispatcher(mgr, profiles, profiles, testLogger(), fixedClock(0))

	rule := enforcementRule(ast.ModeMonitor)
	out, err := d.Dispatch(context.Background(), rule, vendor, violation(rule))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if out.CaseNumber != "" || out.Alerted {
		t.Errorf("monitor dispatch escalated beyond audit: %+v", out)
	}

	prof, err := profiles.GetProfile(context.Background(), vendor.ID)
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if len(prof.AuditTrail) != 1 {
		t.Fatalf("audit trail length = %d, want 1", len(prof.AuditTrail))
	}
	if got := prof.AuditTrail[0].Type; got != "policy_violation_monitored" {
		t.Errorf("audit event type = %q, want %q", got, "policy_violation_monitored")
	}
	cases, _ := store.ListCases(context.Background(), workflow.CaseFilter{})
	if len(cases) != 0 {
		t.Errorf("case count = %d, want 0", len(cases))
	}
}

// TestDispatcher_AlertOnly tests that alert_only sends a notification
// without opening a case, and degrades to a log line when no notifier
// is configured.
func TestDispatcher_AlertOnly(t *testing.T) {
	profiles := profile.NewMemoryStore()
	vendor := seedVendor(profiles)
	mgr, _ := newTestManager(t, profiles)
	rule := enforcementRule(ast.ModeAlertOnly, ast.Action{Type: ast.ActionNotify})

	t.Run("sends alert", func(t *testing.T) {
		d := workflow.NewDispatcher(mgr, profiles, profiles, testLogger(), fixedClock(0))
		out, err := d.Dispatch(context.Background(), rule, vendor, violation(rule))
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		if !out.Alerted {
			t.Error("Alerted = false, want true")
		}
		if out.CaseNumber != "" {
			t.Errorf("CaseNumber = %q, want empty", out.CaseNumber)
		}
		alerts := profiles.Alerts()
		if len(alerts) != 1 {
			t.Fatalf("alert count = %d, want 1", len(alerts))
		}
		if alerts[0].AlertType != "policy_violation" || alerts[0].Severity != ast.SeverityHigh {
			t.Errorf("alert = %+v, want policy_violation/high", alerts[0])
		}
	})

	t.Run("nil notifier drops alert without error", func(t *testing.T) {
		d := workflow.NewDispatcher(mgr, profiles, nil, testLogger(), fixedClock(0))
		if _, err := d.Dispatch(context.Background(), rule, vendor, violation(rule)); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
	})
}

// TestDispatcher_SoftEnforce tests that soft_enforce opens a case and
// flags the profile for review, without applying restrictions.
func TestDispatcher_SoftEnforce(t *testing.T) {
	profiles := profile.NewMemoryStore()
	vendor := seedVendor(profiles)
	mgr, _ := newTestManager(t, profiles)
	d := workflow.NewDispatcher(mgr, profiles, profiles, testLogger(), fixedClock(0))

	rule := enforcementRule(ast.ModeSoftEnforce, ast.Action{Type: ast.ActionOpenCase}, ast.Action{Type: ast.ActionFlagReview})
	out, err := d.Dispatch(context.Background(), rule, vendor, violation(rule))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if out.CaseNumber == "" {
		t.Fatal("CaseNumber is empty, want a case")
	}
	if len(out.Restrictions) != 0 {
		t.Errorf("Restrictions = %v, want none", out.Restrictions)
	}

	c, err := mgr.GetCase(context.Background(), out.CaseNumber)
	if err != nil {
		t.Fatalf("GetCase(%q) error = %v", out.CaseNumber, err)
	}
	if c.RuleCode != rule.Code || c.VendorID != vendor.ID {
		t.Errorf("case = %s/%s, want %s/%s", c.RuleCode, c.VendorID, rule.Code, vendor.ID)
	}

	prof, _ := profiles.GetProfile(context.Background(), vendor.ID)
	if !prof.WorkflowStatus.ReviewRequired {
		t.Error("ReviewRequired = false, want true")
	}
	if !strings.Contains(prof.WorkflowStatus.ReviewReason, rule.Code) {
		t.Errorf("ReviewReason = %q, want rule code mentioned", prof.WorkflowStatus.ReviewReason)
	}
}

// TestDispatcher_HardEnforce tests that hard_enforce opens an urgent
// case and applies every configured restriction in declaration order.
func TestDispatcher_HardEnforce(t *testing.T) {
	profiles := profile.NewMemoryStore()
	vendor := seedVendor(profiles)
	mgr, _ := newTestManager(t, profiles)
	d := workflow.NewDispatcher(mgr, profiles, profiles, testLogger(), fixedClock(0))

	rule := enforcementRule(ast.ModeHardEnforce,
		ast.Action{Type: ast.ActionNotify},
		ast.Action{Type: ast.ActionHoldPayments},
		ast.Action{Type: ast.ActionBlockNewOrders},
	)
	out, err := d.Dispatch(context.Background(), rule, vendor, violation(rule))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	c, err := mgr.GetCase(context.Background(), out.CaseNumber)
	if err != nil {
		t.Fatalf("GetCase(%q) error = %v", out.CaseNumber, err)
	}
	if c.Priority != workflow.PriorityUrgent {
		t.Errorf("case priority = %q, want %q", c.Priority, workflow.PriorityUrgent)
	}

	want := []ast.RestrictionType{ast.RestrictionHoldPayments, ast.RestrictionBlockNewOrders}
	if len(out.Restrictions) != len(want) {
		t.Fatalf("restriction count = %d, want %d", len(out.Restrictions), len(want))
	}
	for i, rt := range want {
		if out.Restrictions[i] != rt {
			t.Errorf("Restrictions[%d] = %q, want %q", i, out.Restrictions[i], rt)
		}
	}

	prof, _ := profiles.GetProfile(context.Background(), vendor.ID)
	if len(prof.WorkflowStatus.Restrictions) != 2 {
		t.Fatalf("applied restrictions = %d, want 2", len(prof.WorkflowStatus.Restrictions))
	}
	for _, r := range prof.WorkflowStatus.Restrictions {
		if r.CaseRef != out.CaseNumber {
			t.Errorf("restriction CaseRef = %q, want %q", r.CaseRef, out.CaseNumber)
		}
	}
}

// TestDispatcher_HardEnforceRequiresRestriction tests that a hard_enforce
// rule carrying no restriction action is rejected outright instead of
// opening an urgent case that restricts nothing.
func TestDispatcher_HardEnforceRequiresRestriction(t *testing.T) {
	profiles := profile.NewMemoryStore()
	vendor := seedVendor(profiles)
	mgr, store := newTestManager(t, profiles)
	d := workflow.NewDispatcher(mgr, profiles, profiles, testLogger(), fixedClock(0))

	tests := []struct {
		name    string
		actions []ast.Action
	}{
		{name: "no actions"},
		{
			name:    "non-restriction actions only",
			actions: []ast.Action{{Type: ast.ActionNotify}, {Type: ast.ActionOpenCase}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := enforcementRule(ast.ModeHardEnforce, tt.actions...)
			_, err := d.Dispatch(context.Background(), rule, vendor, violation(rule))
			var verr *workflow.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Dispatch() error = %v, want ValidationError", err)
			}
			if verr.Field != "enforcement.actions" {
				t.Errorf("ValidationError.Field = %q, want enforcement.actions", verr.Field)
			}

			cases, _ := store.ListCases(context.Background(), workflow.CaseFilter{})
			if len(cases) != 0 {
				t.Errorf("case count = %d, want 0", len(cases))
			}
			prof, _ := profiles.GetProfile(context.Background(), vendor.ID)
			if len(prof.WorkflowStatus.Restrictions) != 0 {
				t.Errorf("restrictions = %d, want 0", len(prof.WorkflowStatus.Restrictions))
			}
		})
	}
}

// TestDispatcher_UnknownMode tests that an unrecognized enforcement mode
// is rejected with a validation error.
func TestDispatcher_UnknownMode(t *testing.T) {
	profiles := profile.NewMemoryStore()
	vendor := seedVendor(profiles)
	mgr, _ := newTestManager(t, profiles)
	d := workflow.NewDispatcher(mgr, profiles, profiles, testLogger(), fixedClock(0))

	rule := enforcementRule(ast.EnforcementMode("freeze"))
	_, err := d.Dispatch(context.Background(), rule, vendor, violation(rule))
	var verr *workflow.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Dispatch() error = %v, want ValidationError", err)
	}
	if verr.Field != "enforcement.mode" {
		t.Errorf("ValidationError.Field = %q, want enforcement.mode", verr.Field)
	}
}
