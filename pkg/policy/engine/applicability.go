package engine

import (
	"log/slog"
	"slices"
	"time"

	"vigil-hq/vigil/pkg/policy/ast"
	"vigil-hq/vigil/pkg/profile"
)

// ApplicabilityFilter selects which policy rules apply to a vendor from
// scope configuration. Only active rules inside their effective window
// are candidates.
type ApplicabilityFilter struct {
	logger *slog.Logger
}

// NewApplicabilityFilter creates a scope filter.
func NewApplicabilityFilter(logger *slog.Logger) *ApplicabilityFilter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApplicabilityFilter{
		logger: logger.With("component", "policy.applicability"),
	}
}

// Applies reports whether one rule applies to the vendor at time now.
//
// Exclusion always wins. A non-empty specific-vendor list pins the rule
// to that set and short-circuits the remaining scope checks. Otherwise
// every configured dimension must match: empty lists match everything.
func (f *ApplicabilityFilter) Applies(rule *ast.PolicyRule, vendor *profile.Vendor, now time.Time) bool {
	if rule.Status != ast.StatusActive {
		return false
	}
	if !rule.EffectiveAt(now) {
		return false
	}
	if rule.Scope.Excludes(vendor.ID) {
		return false
	}

	if rule.Scope.Pinned() {
		return slices.Contains(rule.Scope.SpecificVendors, vendor.ID)
	}

	if len(rule.Scope.Countries) > 0 && !slices.Contains(rule.Scope.Countries, vendor.Country) {
		return false
	}
	if len(rule.Scope.Categories) > 0 && !slices.Contains(rule.Scope.Categories, vendor.Category) {
		return false
	}
	if len(rule.Scope.Tiers) > 0 && !slices.Contains(rule.Scope.Tiers, vendor.Tier) {
		return false
	}

	if min := rule.Scope.ContractValueMin; min != nil && vendor.ContractValue < *min {
		return false
	}
	if max := rule.Scope.ContractValueMax; max != nil && vendor.ContractValue > *max {
		return false
	}

	return true
}

// Filter returns the subset of rules applicable to the vendor at time now.
func (f *ApplicabilityFilter) Filter(rules []*ast.PolicyRule, vendor *profile.Vendor, now time.Time) []*ast.PolicyRule {
	var applicable []*ast.PolicyRule
	for _, rule := range rules {
		if f.Applies(rule, vendor, now) {
			applicable = append(applicable, rule)
		}
	}

	f.logger.Debug("scope filter applied",
		"vendor_id", vendor.ID,
		"candidate_count", len(rules),
		"applicable_count", len(applicable),
	)

	return applicable
}
