package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vigil-hq/vigil/pkg/policy/ast"
	"vigil-hq/vigil/pkg/policy/engine"
	"vigil-hq/vigil/pkg/profile"
	"vigil-hq/vigil/pkg/telemetry/metrics"
)

// maxHistoryEntries caps the inline audit log on a case. Older entries
// are dropped from the front once the cap is reached.
const maxHistoryEntries = 200

// CaseRequest is the input to Manager.CreateCase.
type CaseRequest struct {
	VendorID string
	RuleCode string
	Type     CaseType
	Severity ast.Severity
	Title    string
	Findings []engine.Finding

	// ForcePriority overrides the computed priority when non-empty.
	// Hard enforcement uses it to pin cases to urgent.
	ForcePriority Priority

	// Validation is set for human validation gate cases.
	Validation *ValidationRequest

	Actor string
}

// ManagerConfig wires the collaborators a Manager needs.
type ManagerConfig struct {
	Store    CaseStore
	SLA      SLAConfig
	Exposure profile.ExposureProvider
	Lifter   profile.RestrictionLifter
	Logger   *slog.Logger

	// Metrics is optional case instrumentation.
	Metrics *metrics.CaseMetrics

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Manager owns all remediation case mutation. Every write goes through
// the version-checked store so concurrent mutations of the same case
// surface as ConflictError instead of lost updates.
type Manager struct {
	store    CaseStore
	sla      SLAConfig
	exposure profile.ExposureProvider
	lifter   profile.RestrictionLifter
	logger   *slog.Logger
	metrics  *metrics.CaseMetrics
	now      func() time.Time
}

// NewManager constructs a Manager from cfg, filling defaults for the
// SLA table, clock, and logger.
func NewManager(cfg ManagerConfig) *Manager {
	m := &Manager{
		store:    cfg.Store,
		sla:      cfg.SLA,
		exposure: cfg.Exposure,
		lifter:   cfg.Lifter,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		now:      cfg.Now,
	}
	if m.sla == nil {
		m.sla = DefaultSLAConfig()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = slog.Default().With("component", "workflow")
	}
	return m
}

// CreateCase opens a new remediation case: computes exposure and
// priority, routes assignment, stamps the SLA deadline, and persists.
func (m *Manager) CreateCase(ctx context.Context, req CaseRequest) (*RemediationCase, error) {
	if req.VendorID == "" {
		return nil, &ValidationError{Field: "vendorId", Message: "required"}
	}
	if req.Type == "" {
		return nil, &ValidationError{Field: "type", Message: "required"}
	}
	if !req.Severity.Valid() {
		return nil, &ValidationError{Field: "severity", Message: fmt.Sprintf("unknown severity %q", req.Severity)}
	}

	now := m.now()

	var exposure float64
	if m.exposure != nil {
		amount, err := m.exposure.Exposure(ctx, req.VendorID)
		if err != nil {
			// Exposure is advisory for prioritization; a failed query
			// must not block case creation.
			m.logger.Warn("exposure query failed, using zero",
				"vendor_id", req.VendorID, "error", err)
		} else {
			exposure = amount
		}
	}

	priority := ComputePriority(req.Severity, exposure)
	if req.ForcePriority != "" {
		priority = req.ForcePriority
	}

	// Validation cases are born awaiting their reviewers; everything
	// else starts at open.
	status := CaseOpen
	if req.Type == CaseTypeHumanValidation {
		status = CasePendingReview
	}

	c := &RemediationCase{
		CaseNumber:  NewCaseNumber(now),
		VendorID:    req.VendorID,
		RuleCode:    req.RuleCode,
		Type:        req.Type,
		Severity:    req.Severity,
		Priority:    priority,
		Status:      status,
		Title:       req.Title,
		Findings:    req.Findings,
		Exposure:    exposure,
		AssignedTo:  RouteAssignment(req.Type),
		SLADeadline: m.sla.Deadline(now, req.Severity),
		Validation:  req.Validation,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	appendHistory(c, now, "case_created", req.Actor, map[string]any{
		"priority": string(priority),
		"exposure": exposure,
	})

	if err := m.store.CreateCase(ctx, c); err != nil {
		return nil, err
	}
	if m.metrics != nil {
		m.metrics.RecordCaseCreated(string(c.Type), string(c.Priority))
	}

	m.logger.Info("case created",
		"case_number", c.CaseNumber,
		"vendor_id", c.VendorID,
		"type", string(c.Type),
		"severity", string(c.Severity),
		"priority", string(c.Priority),
		"assigned_to", c.AssignedTo)
	return c.Clone(), nil
}

// UpdateStatus moves a case to a new status, enforcing the state
// machine. meta is recorded in the history entry.
func (m *Manager) UpdateStatus(ctx context.Context, caseNumber string, status CaseStatus, actor string, meta map[string]any) (*RemediationCase, error) {
	c, err := m.store.GetCase(ctx, caseNumber)
	if err != nil {
		return nil, err
	}
	if c.Terminal() {
		return nil, &TerminalCaseError{CaseNumber: caseNumber, Status: c.Status}
	}
	if !c.CanTransition(status) {
		return nil, &InvalidTransitionError{CaseNumber: caseNumber, From: c.Status, To: status}
	}

	now := m.now()
	from := c.Status
	if status == CaseOnHold {
		c.HeldFrom = c.Status
	} else if c.Status == CaseOnHold {
		c.HeldFrom = ""
	}
	c.Status = status
	c.UpdatedAt = now
	details := map[string]any{"from": string(from), "to": string(status)}
	for k, v := range meta {
		details[k] = v
	}
	appendHistory(c, now, "status_changed", actor, details)

	if err := m.store.UpdateCase(ctx, c); err != nil {
		return nil, err
	}
	if m.metrics != nil {
		m.metrics.RecordTransition(string(from), string(status))
	}
	m.logger.Info("case status changed",
		"case_number", caseNumber, "from", string(from), "to", string(status))
	return c.Clone(), nil
}

// AddAction attaches a pending remediation action to the case.
func (m *Manager) AddAction(ctx context.Context, caseNumber string, action CaseAction, actor string) (*RemediationCase, error) {
	if action.Type == "" {
		return nil, &ValidationError{Field: "action.type", Message: "required"}
	}
	c, err := m.store.GetCase(ctx, caseNumber)
	if err != nil {
		return nil, err
	}
	if c.Terminal() {
		return nil, &TerminalCaseError{CaseNumber: caseNumber, Status: c.Status}
	}

	now := m.now()
	action.ID = uuid.NewString()
	action.Status = ActionPending
	action.CreatedAt = now
	action.CompletedAt = nil
	c.Actions = append(c.Actions, action)
	c.UpdatedAt = now
	appendHistory(c, now, "action_added", actor, map[string]any{
		"action_id": action.ID, "action_type": action.Type,
	})

	if err := m.store.UpdateCase(ctx, c); err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

// CompleteAction marks one action completed. When every non-bookkeeping
// action is completed and the case is in_progress, the case advances to
// pending_review automatically.
func (m *Manager) CompleteAction(ctx context.Context, caseNumber, actionID, actor, notes string) (*RemediationCase, error) {
	c, err := m.store.GetCase(ctx, caseNumber)
	if err != nil {
		return nil, err
	}
	if c.Terminal() {
		return nil, &TerminalCaseError{CaseNumber: caseNumber, Status: c.Status}
	}

	now := m.now()
	idx := -1
	for i := range c.Actions {
		if c.Actions[i].ID == actionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, &ValidationError{Field: "actionId", Message: fmt.Sprintf("action %q not found on case %s", actionID, caseNumber)}
	}
	if c.Actions[idx].Status != ActionPending {
		return nil, &ValidationError{Field: "actionId", Message: fmt.Sprintf("action %q is %s, not pending", actionID, c.Actions[idx].Status)}
	}

	c.Actions[idx].Status = ActionCompleted
	c.Actions[idx].CompletedAt = &now
	c.Actions[idx].CompletedBy = actor
	c.Actions[idx].Notes = notes
	c.UpdatedAt = now
	appendHistory(c, now, "action_completed", actor, map[string]any{"action_id": actionID})

	if c.Status == CaseInProgress && allWorkDone(c) {
		c.Status = CasePendingReview
		appendHistory(c, now, "status_changed", "", map[string]any{
			"from": string(CaseInProgress), "to": string(CasePendingReview), "auto": true,
		})
		if m.metrics != nil {
			m.metrics.RecordTransition(string(CaseInProgress), string(CasePendingReview))
		}
		m.logger.Info("case auto-advanced to pending_review", "case_number", caseNumber)
	}

	if err := m.store.UpdateCase(ctx, c); err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

// ResolveCase sets the resolution exactly once and moves the case to
// resolved. When the resolution asks for it, restriction lifts are
// requested from the external lifter.
func (m *Manager) ResolveCase(ctx context.Context, caseNumber string, res Resolution) (*RemediationCase, error) {
	if res.Type == "" {
		return nil, &ValidationError{Field: "resolution.type", Message: "required"}
	}
	if res.ResolvedBy == "" {
		return nil, &ValidationError{Field: "resolution.resolvedBy", Message: "required"}
	}

	c, err := m.store.GetCase(ctx, caseNumber)
	if err != nil {
		return nil, err
	}
	if c.Resolution != nil {
		return nil, &IntegrityError{CaseNumber: caseNumber, Message: "resolution already set"}
	}
	if !c.CanTransition(CaseResolved) {
		return nil, &InvalidTransitionError{CaseNumber: caseNumber, From: c.Status, To: CaseResolved}
	}

	now := m.now()
	from := c.Status
	res.ResolvedAt = now
	c.Resolution = &res
	c.Status = CaseResolved
	c.UpdatedAt = now
	appendHistory(c, now, "case_resolved", res.ResolvedBy, map[string]any{
		"resolution_type": res.Type,
	})

	if err := m.store.UpdateCase(ctx, c); err != nil {
		return nil, err
	}
	if m.metrics != nil {
		m.metrics.RecordTransition(string(from), string(CaseResolved))
	}

	if res.LiftRestrictions && m.lifter != nil {
		lift := profile.LiftRequest{
			VendorID: c.VendorID,
			LiftedBy: res.ResolvedBy,
			Reason:   fmt.Sprintf("case %s resolved: %s", caseNumber, res.Type),
		}
		if err := m.lifter.LiftRestrictions(ctx, lift); err != nil {
			// The case is resolved regardless; the lift is an external
			// side effect retried out of band.
			m.logger.Error("restriction lift request failed",
				"case_number", caseNumber, "vendor_id", c.VendorID, "error", err)
		}
	}

	m.logger.Info("case resolved",
		"case_number", caseNumber, "resolution_type", res.Type, "resolved_by", res.ResolvedBy)
	return c.Clone(), nil
}

// GetCase returns a copy of the case by number.
func (m *Manager) GetCase(ctx context.Context, caseNumber string) (*RemediationCase, error) {
	c, err := m.store.GetCase(ctx, caseNumber)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetSLAStatus computes the current SLA position of the case.
func (m *Manager) GetSLAStatus(ctx context.Context, caseNumber string) (SLAReport, error) {
	c, err := m.store.GetCase(ctx, caseNumber)
	if err != nil {
		return SLAReport{}, err
	}
	return m.sla.Report(c, m.now()), nil
}

// AddCommunication records a vendor communication on the case.
func (m *Manager) AddCommunication(ctx context.Context, caseNumber string, comm Communication) (*RemediationCase, error) {
	c, err := m.store.GetCase(ctx, caseNumber)
	if err != nil {
		return nil, err
	}
	now := m.now()
	if comm.At.IsZero() {
		comm.At = now
	}
	c.Comms = append(c.Comms, comm)
	c.UpdatedAt = now
	appendHistory(c, now, "communication_logged", comm.From, map[string]any{"channel": comm.Channel})
	if err := m.store.UpdateCase(ctx, c); err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

// allWorkDone reports whether every non-bookkeeping action on the case
// is completed. A case with no actionable work does not auto-advance.
func allWorkDone(c *RemediationCase) bool {
	actionable := 0
	for i := range c.Actions {
		if c.Actions[i].Bookkeeping {
			continue
		}
		actionable++
		if c.Actions[i].Status != ActionCompleted {
			return false
		}
	}
	return actionable > 0
}

// appendHistory appends an audit entry, trimming from the front once
// the inline log exceeds its cap.
func appendHistory(c *RemediationCase, at time.Time, event, actor string, details map[string]any) {
	c.History = append(c.History, HistoryEntry{
		At:      at,
		Event:   event,
		Actor:   actor,
		Details: details,
	})
	if len(c.History) > maxHistoryEntries {
		c.History = c.History[len(c.History)-maxHistoryEntries:]
	}
}
