package workflow

import (
	"math"
	"time"

	"vigil-hq/vigil/pkg/policy/ast"
)

// SLAStatus is the point-in-time service level position of a case.
type SLAStatus string

const (
	SLAOnTrack  SLAStatus = "on_track"
	SLAAtRisk   SLAStatus = "at_risk"
	SLAMet      SLAStatus = "met"
	SLABreached SLAStatus = "breached"
)

// atRiskWindow is how close to the deadline an unresolved case counts
// as at_risk.
const atRiskWindow = 24 * time.Hour

// SLATerms are the per-severity response and resolution windows.
type SLATerms struct {
	ResponseDays   int `yaml:"response_days" json:"responseDays"`
	ResolutionDays int `yaml:"resolution_days" json:"resolutionDays"`
}

// SLAConfig maps severities to their terms.
type SLAConfig map[ast.Severity]SLATerms

// DefaultSLAConfig returns the standard compliance SLA table.
func DefaultSLAConfig() SLAConfig {
	return SLAConfig{
		ast.SeverityCritical: {ResponseDays: 1, ResolutionDays: 3},
		ast.SeverityHigh:     {ResponseDays: 2, ResolutionDays: 7},
		ast.SeverityMedium:   {ResponseDays: 5, ResolutionDays: 14},
		ast.SeverityLow:      {ResponseDays: 10, ResolutionDays: 30},
	}
}

// Terms returns the terms for sev, falling back to the medium row for
// unknown severities.
func (c SLAConfig) Terms(sev ast.Severity) SLATerms {
	if t, ok := c[sev]; ok {
		return t
	}
	return c[ast.SeverityMedium]
}

// Deadline computes the resolution deadline for a case created at the
// given time with the given severity. The result is stamped on the case
// once and never recomputed.
func (c SLAConfig) Deadline(createdAt time.Time, sev ast.Severity) time.Time {
	terms := c.Terms(sev)
	return createdAt.Add(time.Duration(terms.ResolutionDays) * 24 * time.Hour)
}

// SLAReport is the computed service level position of one case.
type SLAReport struct {
	CaseNumber     string     `json:"caseNumber"`
	Status         SLAStatus  `json:"status"`
	Deadline       time.Time  `json:"deadline"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
	HoursRemaining float64    `json:"hoursRemaining"`
	PercentageUsed int        `json:"percentageUsed"`
}

// Report computes the SLA position of a case at the given instant. It
// is a pure function of the case and now.
func (c SLAConfig) Report(rc *RemediationCase, now time.Time) SLAReport {
	terms := c.Terms(rc.Severity)
	report := SLAReport{
		CaseNumber: rc.CaseNumber,
		Deadline:   rc.SLADeadline,
	}

	budget := float64(terms.ResolutionDays) * 24
	elapsedUntil := now
	if rc.Resolution != nil {
		resolvedAt := rc.Resolution.ResolvedAt
		report.ResolvedAt = &resolvedAt
		elapsedUntil = resolvedAt
	}
	elapsed := elapsedUntil.Sub(rc.CreatedAt).Hours()
	if elapsed < 0 {
		elapsed = 0
	}
	pct := int(math.Round(elapsed / budget * 100))
	if pct > 100 {
		pct = 100
	}
	report.PercentageUsed = pct
	report.HoursRemaining = rc.SLADeadline.Sub(now).Hours()

	switch {
	case rc.Resolution != nil && !rc.Resolution.ResolvedAt.After(rc.SLADeadline):
		report.Status = SLAMet
	case rc.Resolution != nil:
		report.Status = SLABreached
	case now.After(rc.SLADeadline):
		report.Status = SLABreached
	case rc.SLADeadline.Sub(now) <= atRiskWindow:
		report.Status = SLAAtRisk
	default:
		report.Status = SLAOnTrack
	}
	return report
}
