package ast

import "time"

// Severity classifies how serious a rule violation is. It drives case
// priority, SLA deadlines, and enforcement decisions downstream.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is a recognized severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// Score returns the numeric weight of the severity: critical=4 down to low=1.
// Unknown severities score 0.
func (s Severity) Score() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// RuleStatus is the lifecycle state of a policy rule. Rules are never hard
// deleted; retirement is a status change to deprecated or archived.
type RuleStatus string

const (
	StatusDraft           RuleStatus = "draft"
	StatusPendingApproval RuleStatus = "pending_approval"
	StatusActive          RuleStatus = "active"
	StatusPaused          RuleStatus = "paused"
	StatusDeprecated      RuleStatus = "deprecated"
	StatusArchived        RuleStatus = "archived"
)

// Valid reports whether st is a recognized rule status.
func (st RuleStatus) Valid() bool {
	switch st {
	case StatusDraft, StatusPendingApproval, StatusActive, StatusPaused, StatusDeprecated, StatusArchived:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a rule may move from st to next.
func (st RuleStatus) CanTransition(next RuleStatus) bool {
	switch st {
	case StatusDraft:
		return next == StatusPendingApproval || next == StatusArchived
	case StatusPendingApproval:
		return next == StatusActive || next == StatusDraft || next == StatusArchived
	case StatusActive:
		return next == StatusPaused || next == StatusDeprecated || next == StatusArchived
	case StatusPaused:
		return next == StatusActive || next == StatusDeprecated || next == StatusArchived
	case StatusDeprecated:
		return next == StatusArchived
	default:
		return false
	}
}

// PolicyRule is a named, scoped, versioned violation condition plus the
// enforcement response to apply when it fires.
//
// Code is immutable after creation and unique across the registry. Version
// is incremented on every update; the registry rejects writes whose version
// does not match the stored one.
type PolicyRule struct {
	Code        string `yaml:"code" json:"code"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	Scope     Scope          `yaml:"scope" json:"scope"`
	Condition *ConditionNode `yaml:"-" json:"condition"`

	Severity    Severity    `yaml:"severity" json:"severity"`
	Enforcement Enforcement `yaml:"enforcement" json:"enforcement"`

	Status  RuleStatus `yaml:"status" json:"status"`
	Version int        `yaml:"version,omitempty" json:"version"`

	EffectiveFrom  *time.Time `yaml:"effective_from,omitempty" json:"effectiveFrom,omitempty"`
	EffectiveUntil *time.Time `yaml:"effective_until,omitempty" json:"effectiveUntil,omitempty"`

	CreatedAt time.Time `yaml:"-" json:"createdAt"`
	UpdatedAt time.Time `yaml:"-" json:"updatedAt"`

	// SourceFile records which policy file defined this rule, when loaded
	// from disk.
	SourceFile string `yaml:"-" json:"-"`
}

// EffectiveAt reports whether the rule's effective window contains t.
// Open-ended bounds are allowed on either side.
func (r *PolicyRule) EffectiveAt(t time.Time) bool {
	if r.EffectiveFrom != nil && t.Before(*r.EffectiveFrom) {
		return false
	}
	if r.EffectiveUntil != nil && t.After(*r.EffectiveUntil) {
		return false
	}
	return true
}

// Clone returns a deep copy of the rule, including its condition tree.
func (r *PolicyRule) Clone() *PolicyRule {
	clone := *r
	clone.Condition = r.Condition.Clone()
	clone.Scope = r.Scope.Clone()
	clone.Enforcement = r.Enforcement.Clone()
	if r.EffectiveFrom != nil {
		from := *r.EffectiveFrom
		clone.EffectiveFrom = &from
	}
	if r.EffectiveUntil != nil {
		until := *r.EffectiveUntil
		clone.EffectiveUntil = &until
	}
	return &clone
}
