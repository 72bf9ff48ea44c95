package workflow

import "vigil-hq/vigil/pkg/policy/ast"

// Exposure thresholds that bump a case to urgent regardless of the
// severity-only mapping.
const (
	urgentExposureHigh = 1_000_000
	urgentExposureMid  = 500_000
)

// ComputePriority derives a case priority from rule severity and the
// vendor's financial exposure.
func ComputePriority(sev ast.Severity, exposure float64) Priority {
	score := sev.Score()
	switch {
	case exposure > urgentExposureHigh && score >= 2:
		return PriorityUrgent
	case exposure > urgentExposureMid && score >= 3:
		return PriorityUrgent
	case score >= 4:
		return PriorityUrgent
	case score == 3:
		return PriorityHigh
	case score == 2:
		return PriorityNormal
	default:
		return PriorityLow
	}
}

// DefaultAssignee is the queue that receives cases with no dedicated
// routing entry.
const DefaultAssignee = "compliance_team"

// assignmentRouting maps case types to the owning team queue.
var assignmentRouting = map[CaseType]string{
	CaseTypeSanctionsHit:    "legal_team",
	CaseTypeDocumentExpired: "vendor_management",
	CaseTypeAdverseMedia:    "compliance_team",
	CaseTypeHumanValidation: "compliance_team",
}

// RouteAssignment returns the team queue a new case of the given type
// is assigned to.
func RouteAssignment(caseType CaseType) string {
	if team, ok := assignmentRouting[caseType]; ok {
		return team
	}
	return DefaultAssignee
}
