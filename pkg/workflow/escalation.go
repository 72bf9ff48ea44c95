package workflow

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"vigil-hq/vigil/pkg/telemetry/metrics"
)

// MaxEscalationLevel is the top of the escalation ladder. Escalating a
// case already at this level is a reported no-op, never an overshoot.
const MaxEscalationLevel = 5

// EscalationStep is one rung of the ladder: the role that takes over
// and how far past the SLA deadline a case must be before the sweep
// moves it to this level.
type EscalationStep struct {
	Level        int
	Role         string
	OverdueAfter time.Duration
}

// escalationLadder is the fixed five-level ladder, ordered by level.
var escalationLadder = []EscalationStep{
	{Level: 1, Role: "team_lead", OverdueAfter: 12 * time.Hour},
	{Level: 2, Role: "manager", OverdueAfter: 24 * time.Hour},
	{Level: 3, Role: "director", OverdueAfter: 48 * time.Hour},
	{Level: 4, Role: "vp", OverdueAfter: 72 * time.Hour},
	{Level: 5, Role: "executive", OverdueAfter: 120 * time.Hour},
}

// stepForLevel returns the ladder entry for level (1-based).
func stepForLevel(level int) EscalationStep {
	return escalationLadder[level-1]
}

// targetLevel returns the ladder level a case overdue by the given
// duration should sit at. Zero means not yet due for escalation.
func targetLevel(overdue time.Duration) int {
	level := 0
	for _, step := range escalationLadder {
		if overdue >= step.OverdueAfter {
			level = step.Level
		}
	}
	return level
}

// EscalationResult reports the outcome of escalating one case.
type EscalationResult struct {
	CaseNumber string `json:"caseNumber"`
	Escalated  bool   `json:"escalated"`
	Level      int    `json:"level"`
	Role       string `json:"role,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Err        error  `json:"-"`
	Error      string `json:"error,omitempty"`
}

// EscalationEngine walks cases up the ladder, one level per call,
// and runs the overdue sweep.
type EscalationEngine struct {
	store   CaseStore
	logger  *slog.Logger
	metrics *metrics.CaseMetrics
	now     func() time.Time
}

// NewEscalationEngine constructs an engine over the given store.
// metrics may be nil.
func NewEscalationEngine(store CaseStore, logger *slog.Logger, caseMetrics *metrics.CaseMetrics, now func() time.Time) *EscalationEngine {
	if logger == nil {
		logger = slog.Default().With("component", "escalation")
	}
	if now == nil {
		now = time.Now
	}
	return &EscalationEngine{store: store, logger: logger, metrics: caseMetrics, now: now}
}

// Escalate moves the case up exactly one level, reassigns ownership to
// that level's role, and appends an escalation record. A case already
// at the top of the ladder is reported back unchanged.
func (e *EscalationEngine) Escalate(ctx context.Context, caseNumber, reason, actor string) (EscalationResult, error) {
	c, err := e.store.GetCase(ctx, caseNumber)
	if err != nil {
		return EscalationResult{CaseNumber: caseNumber}, err
	}
	if c.Terminal() {
		return EscalationResult{CaseNumber: caseNumber}, &TerminalCaseError{CaseNumber: caseNumber, Status: c.Status}
	}

	current := c.EscalationLevel()
	if current >= MaxEscalationLevel {
		e.logger.Info("case already at maximum escalation level",
			"case_number", caseNumber, "level", current)
		return EscalationResult{
			CaseNumber: caseNumber,
			Escalated:  false,
			Level:      current,
			Reason:     "already at maximum escalation level",
		}, nil
	}

	now := e.now()
	step := stepForLevel(current + 1)
	c.Escalations = append(c.Escalations, Escalation{
		ID:     uuid.NewString(),
		Level:  step.Level,
		Role:   step.Role,
		Reason: reason,
		Actor:  actor,
		At:     now,
	})
	c.AssignedTo = step.Role
	if c.CanTransition(CaseEscalated) {
		c.Status = CaseEscalated
	}
	c.UpdatedAt = now
	appendHistory(c, now, "case_escalated", actor, map[string]any{
		"level": step.Level, "role": step.Role, "reason": reason,
	})

	if err := e.store.UpdateCase(ctx, c); err != nil {
		return EscalationResult{CaseNumber: caseNumber}, err
	}
	if e.metrics != nil {
		e.metrics.RecordEscalation(strconv.Itoa(step.Level))
	}

	e.logger.Info("case escalated",
		"case_number", caseNumber, "level", step.Level, "role", step.Role, "reason", reason)
	return EscalationResult{
		CaseNumber: caseNumber,
		Escalated:  true,
		Level:      step.Level,
		Role:       step.Role,
		Reason:     reason,
	}, nil
}

// AutoEscalateOverdue sweeps all non-terminal cases past their SLA
// deadline and escalates each whose ladder position lags how overdue it
// is. The sweep is idempotent: a case already at or above the level its
// overdue duration calls for is skipped, and no case moves past the top
// of the ladder. One case's failure is recorded in its result and never
// stops the sweep.
func (e *EscalationEngine) AutoEscalateOverdue(ctx context.Context) ([]EscalationResult, error) {
	now := e.now()
	overdue, err := e.store.ListCases(ctx, CaseFilter{OverdueAt: &now})
	if err != nil {
		return nil, err
	}

	results := make([]EscalationResult, 0, len(overdue))
	for _, c := range overdue {
		want := targetLevel(now.Sub(c.SLADeadline))
		if want == 0 || c.EscalationLevel() >= want {
			continue
		}
		if c.EscalationLevel() == 0 && e.metrics != nil {
			e.metrics.RecordSLABreach(string(c.Severity))
		}
		res, err := e.Escalate(ctx, c.CaseNumber, "sla deadline breached", "system")
		if err != nil {
			res.CaseNumber = c.CaseNumber
			res.Err = err
			res.Error = err.Error()
			e.logger.Error("escalation failed during sweep",
				"case_number", c.CaseNumber, "error", err)
		}
		results = append(results, res)
	}

	e.logger.Info("escalation sweep finished",
		"overdue", len(overdue), "processed", len(results))
	return results, nil
}
