package ast

import "maps"

// EnforcementMode is the graduated response level applied when a rule is
// violated, from passive observation to hard restriction.
type EnforcementMode string

const (
	ModeMonitor     EnforcementMode = "monitor"      // audit event only
	ModeAlertOnly   EnforcementMode = "alert_only"   // notification, no case
	ModeSoftEnforce EnforcementMode = "soft_enforce" // case + profile flagged for review
	ModeHardEnforce EnforcementMode = "hard_enforce" // urgent case + restriction
)

// Valid reports whether m is a recognized enforcement mode.
func (m EnforcementMode) Valid() bool {
	switch m {
	case ModeMonitor, ModeAlertOnly, ModeSoftEnforce, ModeHardEnforce:
		return true
	default:
		return false
	}
}

// RestrictionType identifies an operational restriction placed on a vendor
// profile by hard enforcement.
type RestrictionType string

const (
	RestrictionBlockNewOrders RestrictionType = "block_new_orders"
	RestrictionHoldPayments   RestrictionType = "hold_payments"
	RestrictionSuspendVendor  RestrictionType = "suspend_vendor"
)

// Valid reports whether rt is a recognized restriction type.
func (rt RestrictionType) Valid() bool {
	switch rt {
	case RestrictionBlockNewOrders, RestrictionHoldPayments, RestrictionSuspendVendor:
		return true
	default:
		return false
	}
}

// ActionType identifies an enforcement action configured on a rule.
type ActionType string

const (
	ActionNotify         ActionType = "notify"           // dispatch an alert
	ActionOpenCase       ActionType = "open_case"        // open a remediation case
	ActionFlagReview     ActionType = "flag_review"      // flag profile for human review
	ActionBlockNewOrders ActionType = "block_new_orders" // restriction
	ActionHoldPayments   ActionType = "hold_payments"    // restriction
	ActionSuspendVendor  ActionType = "suspend_vendor"   // restriction
)

// Valid reports whether a is a known action type.
func (a ActionType) Valid() bool {
	switch a {
	case ActionNotify, ActionOpenCase, ActionFlagReview,
		ActionBlockNewOrders, ActionHoldPayments, ActionSuspendVendor:
		return true
	default:
		return false
	}
}

// Restriction returns the restriction this action applies, if any.
func (a ActionType) Restriction() (RestrictionType, bool) {
	switch a {
	case ActionBlockNewOrders:
		return RestrictionBlockNewOrders, true
	case ActionHoldPayments:
		return RestrictionHoldPayments, true
	case ActionSuspendVendor:
		return RestrictionSuspendVendor, true
	default:
		return "", false
	}
}

// Action is one configured enforcement action with optional parameters
// (e.g. notification recipients, case type overrides).
type Action struct {
	Type   ActionType     `yaml:"type" json:"type"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// StringParam returns the string parameter for key, or "" if absent.
func (a *Action) StringParam(key string) string {
	if v, ok := a.Params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Enforcement is a rule's enforcement configuration: the mode plus the
// concrete actions the dispatcher executes on violation.
type Enforcement struct {
	Mode    EnforcementMode `yaml:"mode" json:"mode"`
	Actions []Action        `yaml:"actions,omitempty" json:"actions,omitempty"`
}

// RestrictionActions returns the restriction types configured on this
// enforcement, in declaration order.
func (e *Enforcement) RestrictionActions() []RestrictionType {
	var out []RestrictionType
	for _, a := range e.Actions {
		if rt, ok := a.Type.Restriction(); ok {
			out = append(out, rt)
		}
	}
	return out
}

// Clone returns a deep copy of the enforcement configuration.
func (e Enforcement) Clone() Enforcement {
	clone := e
	if len(e.Actions) > 0 {
		clone.Actions = make([]Action, len(e.Actions))
		for i, a := range e.Actions {
			clone.Actions[i] = Action{Type: a.Type}
			if a.Params != nil {
				clone.Actions[i].Params = maps.Clone(a.Params)
			}
		}
	}
	return clone
}
