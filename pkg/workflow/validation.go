package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vigil-hq/vigil/pkg/policy/ast"
	"vigil-hq/vigil/pkg/profile"
)

// DefaultConfidenceThreshold is the confidence below which an automated
// decision is held for human validation.
const DefaultConfidenceThreshold = 0.85

// highSeverityConfidence splits validation cases by how unsure the
// automation was: below this the case is high severity.
const highSeverityConfidence = 0.7

// ValidationDecision is the reviewer's verdict on a held decision.
type ValidationDecision struct {
	Approved  bool
	Actor     string
	Rationale string
}

// HumanValidationGate holds low-confidence automated decisions for a
// named set of approvers before they take effect.
type HumanValidationGate struct {
	manager    *Manager
	escalation *EscalationEngine
	profiles   profile.Store
	threshold  float64
	logger     *slog.Logger
	now        func() time.Time
}

// NewHumanValidationGate wires the gate. threshold <= 0 falls back to
// DefaultConfidenceThreshold.
func NewHumanValidationGate(manager *Manager, escalation *EscalationEngine, profiles profile.Store, threshold float64, logger *slog.Logger) *HumanValidationGate {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	if logger == nil {
		logger = slog.Default().With("component", "validation_gate")
	}
	return &HumanValidationGate{
		manager:    manager,
		escalation: escalation,
		profiles:   profiles,
		threshold:  threshold,
		logger:     logger,
		now:        time.Now,
	}
}

// NeedsValidation reports whether a decision at the given confidence
// must pass through the gate.
func (g *HumanValidationGate) NeedsValidation(confidence float64) bool {
	return confidence < g.threshold
}

// RequestValidation opens a validation case for an automated decision.
// The case severity reflects how unsure the automation was.
func (g *HumanValidationGate) RequestValidation(ctx context.Context, vendorID string, req ValidationRequest) (*RemediationCase, error) {
	if len(req.Approvers) == 0 {
		return nil, &ValidationError{Field: "approvers", Message: "at least one approver required"}
	}
	if req.DecisionType == "" {
		return nil, &ValidationError{Field: "decisionType", Message: "required"}
	}

	severity := ast.SeverityMedium
	if req.Confidence < highSeverityConfidence {
		severity = ast.SeverityHigh
	}

	c, err := g.manager.CreateCase(ctx, CaseRequest{
		VendorID:   vendorID,
		Type:       CaseTypeHumanValidation,
		Severity:   severity,
		Title:      fmt.Sprintf("Validate automated decision: %s", req.DecisionType),
		Validation: &req,
		Actor:      "validation_gate",
	})
	if err != nil {
		return nil, err
	}

	g.logger.Info("validation requested",
		"case_number", c.CaseNumber,
		"vendor_id", vendorID,
		"decision_type", req.DecisionType,
		"confidence", req.Confidence,
		"severity", string(severity))
	return c, nil
}

// SubmitValidation records a reviewer verdict. Approval applies the
// held decision to the profile and resolves the case; rejection sends
// the case up the escalation ladder with the rationale on record.
func (g *HumanValidationGate) SubmitValidation(ctx context.Context, caseNumber string, decision ValidationDecision) (*RemediationCase, error) {
	c, err := g.manager.GetCase(ctx, caseNumber)
	if err != nil {
		return nil, err
	}
	if c.Validation == nil {
		return nil, &ValidationError{Field: "caseNumber", Message: fmt.Sprintf("case %s is not a validation case", caseNumber)}
	}
	if c.Terminal() {
		return nil, &TerminalCaseError{CaseNumber: caseNumber, Status: c.Status}
	}
	if !approverAllowed(c.Validation.Approvers, decision.Actor) {
		return nil, &UnauthorizedActionError{CaseNumber: caseNumber, Actor: decision.Actor, Action: "submit_validation"}
	}

	if !decision.Approved {
		res, err := g.escalation.Escalate(ctx, caseNumber,
			fmt.Sprintf("validation rejected: %s", decision.Rationale), decision.Actor)
		if err != nil {
			return nil, err
		}
		g.logger.Info("validation rejected",
			"case_number", caseNumber, "actor", decision.Actor, "level", res.Level)
		return g.manager.GetCase(ctx, caseNumber)
	}

	err = g.profiles.AppendAudit(ctx, c.VendorID, profile.AuditEvent{
		At:    g.now(),
		Type:  "validated_decision_applied",
		Actor: decision.Actor,
		Details: map[string]any{
			"case_number":   caseNumber,
			"decision_type": c.Validation.DecisionType,
			"decision":      c.Validation.Decision,
		},
	})
	if err != nil {
		return nil, err
	}

	resolved, err := g.manager.ResolveCase(ctx, caseNumber, Resolution{
		Type:       "validated",
		Summary:    decision.Rationale,
		ResolvedBy: decision.Actor,
	})
	if err != nil {
		return nil, err
	}

	g.logger.Info("validation approved",
		"case_number", caseNumber, "actor", decision.Actor)
	return resolved, nil
}

func approverAllowed(approvers []string, actor string) bool {
	for _, a := range approvers {
		if a == actor {
			return true
		}
	}
	return false
}
