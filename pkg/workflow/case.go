package workflow

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"vigil-hq/vigil/pkg/policy/ast"
	"vigil-hq/vigil/pkg/policy/engine"
)

// CaseType classifies what a remediation case is about. It keys the
// assignment routing table.
type CaseType string

const (
	CaseTypeSanctionsHit    CaseType = "sanctions_hit"
	CaseTypeDocumentExpired CaseType = "document_expired"
	CaseTypeAdverseMedia    CaseType = "adverse_media"
	CaseTypePolicyViolation CaseType = "policy_violation"
	CaseTypeHumanValidation CaseType = "human_validation"
)

// CaseStatus is one state of the case lifecycle. Transitions are
// governed by CanTransition; terminal statuses freeze the case.
type CaseStatus string

const (
	CaseOpen          CaseStatus = "open"
	CaseInProgress    CaseStatus = "in_progress"
	CasePendingReview CaseStatus = "pending_review"
	CaseEscalated     CaseStatus = "escalated"
	CaseOnHold        CaseStatus = "on_hold"
	CaseResolved      CaseStatus = "resolved"
	CaseClosed        CaseStatus = "closed"
	CaseCancelled     CaseStatus = "cancelled"
)

// Priority orders cases for assignment and attention.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ActionStatus is the sub-status of one case action.
type ActionStatus string

const (
	ActionPending   ActionStatus = "pending"
	ActionCompleted ActionStatus = "completed"
	ActionCancelled ActionStatus = "cancelled"
)

// CaseAction is one unit of remediation work attached to a case.
// Bookkeeping actions (notifications, record-keeping) do not gate the
// automatic advance to pending_review.
type CaseAction struct {
	ID          string       `json:"id"`
	Type        string       `json:"type"`
	Description string       `json:"description,omitempty"`
	AssignedTo  string       `json:"assignedTo,omitempty"`
	Bookkeeping bool         `json:"bookkeeping,omitempty"`
	Status      ActionStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	CompletedBy string       `json:"completedBy,omitempty"`
	Notes       string       `json:"notes,omitempty"`
}

// Escalation is one append-only record of an escalation step.
type Escalation struct {
	ID     string    `json:"id"`
	Level  int       `json:"level"`
	Role   string    `json:"role"`
	Reason string    `json:"reason"`
	Actor  string    `json:"actor,omitempty"`
	At     time.Time `json:"at"`
}

// HistoryEntry is one append-only audit log entry on a case.
type HistoryEntry struct {
	At      time.Time      `json:"at"`
	Event   string         `json:"event"`
	Actor   string         `json:"actor,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Resolution records how a case ended. It is set exactly once, on the
// terminal transition.
type Resolution struct {
	Type             string    `json:"type"` // remediated, validated, waived, false_positive
	Summary          string    `json:"summary,omitempty"`
	ResolvedBy       string    `json:"resolvedBy"`
	ResolvedAt       time.Time `json:"resolvedAt"`
	LiftRestrictions bool      `json:"liftRestrictions,omitempty"`
}

// Communication is one message exchanged with the vendor about the case.
type Communication struct {
	At      time.Time `json:"at"`
	Channel string    `json:"channel"`
	From    string    `json:"from"`
	Subject string    `json:"subject,omitempty"`
	Body    string    `json:"body,omitempty"`
}

// ValidationRequest carries the context of a human validation case: the
// automated decision held for review and who may approve it.
type ValidationRequest struct {
	DecisionType string         `json:"decisionType"`
	Decision     map[string]any `json:"decision,omitempty"`
	Confidence   float64        `json:"confidence"`
	Approvers    []string       `json:"approvers"`
	Rationale    string         `json:"rationale,omitempty"`
}

// RemediationCase is one tracked investigation/resolution unit for a
// policy violation or human validation request.
//
// SLADeadline is stamped once at creation and never mutated. Version
// implements optimistic concurrency at the store boundary.
type RemediationCase struct {
	CaseNumber string   `json:"caseNumber"`
	VendorID   string   `json:"vendorId"`
	RuleCode   string   `json:"ruleCode,omitempty"`
	Type       CaseType `json:"type"`

	Severity ast.Severity `json:"severity"`
	Priority Priority     `json:"priority"`
	Status   CaseStatus   `json:"status"`

	// HeldFrom remembers the pre-hold status while the case is on_hold.
	HeldFrom CaseStatus `json:"heldFrom,omitempty"`

	Title    string           `json:"title"`
	Findings []engine.Finding `json:"findings,omitempty"`

	Exposure    float64   `json:"exposure"`
	AssignedTo  string    `json:"assignedTo"`
	SLADeadline time.Time `json:"slaDeadline"`

	Actions     []CaseAction    `json:"actions,omitempty"`
	Escalations []Escalation    `json:"escalations,omitempty"`
	History     []HistoryEntry  `json:"history,omitempty"`
	Comms       []Communication `json:"communications,omitempty"`

	Resolution     *Resolution        `json:"resolution,omitempty"`
	VendorResponse string             `json:"vendorResponse,omitempty"`
	Validation     *ValidationRequest `json:"validation,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EscalationLevel returns how many escalation steps have been applied.
func (c *RemediationCase) EscalationLevel() int {
	return len(c.Escalations)
}

// Terminal reports whether the case has reached a terminal status.
func (c *RemediationCase) Terminal() bool {
	return IsTerminal(c.Status)
}

// Clone returns a deep copy of the case.
func (c *RemediationCase) Clone() *RemediationCase {
	clone := *c
	clone.Findings = slices.Clone(c.Findings)
	clone.Actions = slices.Clone(c.Actions)
	clone.Escalations = slices.Clone(c.Escalations)
	clone.History = slices.Clone(c.History)
	clone.Comms = slices.Clone(c.Comms)
	if c.Resolution != nil {
		res := *c.Resolution
		clone.Resolution = &res
	}
	if c.Validation != nil {
		val := *c.Validation
		val.Approvers = slices.Clone(c.Validation.Approvers)
		clone.Validation = &val
	}
	return &clone
}

// NewCaseNumber generates a unique, readable case number:
// VGC-<date>-<8 hex chars>.
func NewCaseNumber(now time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("VGC-%s-%s", now.UTC().Format("20060102"), id.String()[:8])
}
