package workflow

// caseTransitions is the closed set of legal status transitions.
// on_hold is handled separately because it may be entered from any
// non-terminal status and exits back to the status it was entered from.
var caseTransitions = map[CaseStatus][]CaseStatus{
	CaseOpen:          {CaseInProgress, CaseCancelled},
	CaseInProgress:    {CasePendingReview, CaseEscalated, CaseCancelled},
	CasePendingReview: {CaseResolved, CaseEscalated, CaseInProgress, CaseCancelled},
	CaseEscalated:     {CaseInProgress, CaseResolved, CaseCancelled},
	CaseResolved:      nil,
	CaseOnHold:        nil, // resolved dynamically against HeldFrom
	CaseClosed:        nil,
	CaseCancelled:     nil,
}

// IsTerminal reports whether status ends the case lifecycle.
func IsTerminal(status CaseStatus) bool {
	switch status {
	case CaseResolved, CaseClosed, CaseCancelled:
		return true
	}
	return false
}

// ValidStatus reports whether status is a known case status.
func ValidStatus(status CaseStatus) bool {
	_, ok := caseTransitions[status]
	return ok
}

// CanTransition reports whether a case may move from its current status
// to the target. Any non-terminal case may be placed on_hold or
// administratively closed; a held case may only return to the status it
// was held from, be closed, or be cancelled.
func (c *RemediationCase) CanTransition(to CaseStatus) bool {
	if !ValidStatus(to) {
		return false
	}
	if to == CaseClosed {
		return !IsTerminal(c.Status)
	}
	if c.Status == CaseOnHold {
		return to == c.HeldFrom || to == CaseCancelled
	}
	if to == CaseOnHold {
		return !IsTerminal(c.Status)
	}
	for _, next := range caseTransitions[c.Status] {
		if next == to {
			return true
		}
	}
	return false
}
