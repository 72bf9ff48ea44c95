package workflow

import "fmt"

// ValidationError reports a malformed request handed to the case
// manager, such as a missing required field or an unknown case type.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Message)
}

// NotFoundError reports a case number that does not resolve to a case.
type NotFoundError struct {
	CaseNumber string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("case %q not found", e.CaseNumber)
}

// InvalidTransitionError reports a status change the state machine does
// not permit from the current status.
type InvalidTransitionError struct {
	CaseNumber string
	From       CaseStatus
	To         CaseStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("case %s: cannot transition from %s to %s", e.CaseNumber, e.From, e.To)
}

// UnauthorizedActionError reports an actor that is not permitted to
// perform the requested step, such as a validation approval by someone
// outside the approver set.
type UnauthorizedActionError struct {
	CaseNumber string
	Actor      string
	Action     string
}

func (e *UnauthorizedActionError) Error() string {
	return fmt.Sprintf("case %s: actor %q not authorized for %s", e.CaseNumber, e.Actor, e.Action)
}

// IntegrityError reports an attempt to break a structural invariant of
// a case, such as escalating past the top of the ladder or rewriting a
// stamped SLA deadline.
type IntegrityError struct {
	CaseNumber string
	Message    string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("case %s: integrity violation: %s", e.CaseNumber, e.Message)
}

// TerminalCaseError reports a mutation attempted on a case that has
// already reached a terminal status.
type TerminalCaseError struct {
	CaseNumber string
	Status     CaseStatus
}

func (e *TerminalCaseError) Error() string {
	return fmt.Sprintf("case %s is terminal (%s) and cannot be modified", e.CaseNumber, e.Status)
}
