package engine

import (
	"testing"
	"time"

	"vigil-hq/vigil/pkg/policy/ast"
	"vigil-hq/vigil/pkg/profile"
)

func scopedRule(scope ast.Scope) *ast.PolicyRule {
	return &ast.PolicyRule{
		Code:     "SCOPE-001",
		Name:     "Scoped rule",
		Scope:    scope,
		Status:   ast.StatusActive,
		Severity: ast.SeverityMedium,
		Condition: &ast.ConditionNode{
			Type: ast.ConditionTypeLeaf, Field: "tier",
			Operator: ast.OperatorEquals, Value: "high",
		},
	}
}

func floatPtr(f float64) *float64 { return &f }

func TestApplicabilityFilter_Applies(t *testing.T) {
	vendor := &profile.Vendor{
		ID:            "V-100",
		Name:          "Acme Metals",
		Country:       "DE",
		Category:      "raw_materials",
		Tier:          "strategic",
		ContractValue: 750_000,
	}

	tests := []struct {
		name  string
		scope ast.Scope
		want  bool
	}{
		{name: "global applies to everyone", scope: ast.Scope{Global: true}, want: true},
		{name: "empty scope applies too", scope: ast.Scope{}, want: true},
		{name: "matching country", scope: ast.Scope{Countries: []string{"DE", "FR"}}, want: true},
		{name: "non-matching country", scope: ast.Scope{Countries: []string{"US"}}, want: false},
		{name: "matching category", scope: ast.Scope{Categories: []string{"raw_materials"}}, want: true},
		{name: "non-matching category", scope: ast.Scope{Categories: []string{"logistics"}}, want: false},
		{name: "matching tier", scope: ast.Scope{Tiers: []string{"strategic"}}, want: true},
		{name: "non-matching tier", scope: ast.Scope{Tiers: []string{"standard"}}, want: false},
		{name: "contract value above minimum", scope: ast.Scope{ContractValueMin: floatPtr(500_000)}, want: true},
		{name: "contract value below minimum", scope: ast.Scope{ContractValueMin: floatPtr(1_000_000)}, want: false},
		{name: "contract value under maximum", scope: ast.Scope{ContractValueMax: floatPtr(1_000_000)}, want: true},
		{name: "contract value over maximum", scope: ast.Scope{ContractValueMax: floatPtr(500_000)}, want: false},
		{name: "all dimensions must match", scope: ast.Scope{Countries: []string{"DE"}, Tiers: []string{"standard"}}, want: false},
		{name: "pinned to this vendor", scope: ast.Scope{SpecificVendors: []string{"V-100"}}, want: true},
		{name: "pinned to another vendor", scope: ast.Scope{SpecificVendors: []string{"V-200"}}, want: false},
		{
			name: "pinned set skips other dimensions",
			scope: ast.Scope{
				SpecificVendors: []string{"V-100"},
				Countries:       []string{"US"}, // would not match, but pinning short-circuits
			},
			want: true,
		},
		{name: "excluded vendor", scope: ast.Scope{Global: true, ExcludedVendors: []string{"V-100"}}, want: false},
		{
			name: "exclusion beats pinning",
			scope: ast.Scope{
				SpecificVendors: []string{"V-100"},
				ExcludedVendors: []string{"V-100"},
			},
			want: false,
		},
	}

	f := NewApplicabilityFilter(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := scopedRule(tt.scope)
			if got := f.Applies(rule, vendor, evalNow); got != tt.want {
				t.Errorf("Applies = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplicabilityFilter_StatusAndEffectiveWindow(t *testing.T) {
	vendor := &profile.Vendor{ID: "V-100", Country: "DE"}
	f := NewApplicabilityFilter(nil)

	past := evalNow.Add(-24 * time.Hour)
	future := evalNow.Add(24 * time.Hour)

	t.Run("non-active statuses never apply", func(t *testing.T) {
		for _, status := range []ast.RuleStatus{
			ast.StatusDraft, ast.StatusPendingApproval, ast.StatusPaused,
			ast.StatusDeprecated, ast.StatusArchived,
		} {
			rule := scopedRule(ast.Scope{Global: true})
			rule.Status = status
			if f.Applies(rule, vendor, evalNow) {
				t.Errorf("status %s applied", status)
			}
		}
	})

	t.Run("effective window", func(t *testing.T) {
		tests := []struct {
			name  string
			from  *time.Time
			until *time.Time
			want  bool
		}{
			{name: "open window", want: true},
			{name: "already effective", from: &past, want: true},
			{name: "not yet effective", from: &future, want: false},
			{name: "already lapsed", until: &past, want: false},
			{name: "still in window", from: &past, until: &future, want: true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rule := scopedRule(ast.Scope{Global: true})
				rule.EffectiveFrom = tt.from
				rule.EffectiveUntil = tt.until
				if got := f.Applies(rule, vendor, evalNow); got != tt.want {
					t.Errorf("Applies = %v, want %v", got, tt.want)
				}
			})
		}
	})
}

func TestApplicabilityFilter_Filter(t *testing.T) {
	vendor := &profile.Vendor{ID: "V-100", Country: "DE", Tier: "strategic"}

	global := scopedRule(ast.Scope{Global: true})
	global.Code = "GLOB-001"
	wrongCountry := scopedRule(ast.Scope{Countries: []string{"US"}})
	wrongCountry.Code = "CTRY-001"
	pausedRule := scopedRule(ast.Scope{Global: true})
	pausedRule.Code = "PAUS-001"
	pausedRule.Status = ast.StatusPaused

	f := NewApplicabilityFilter(nil)
	got := f.Filter([]*ast.PolicyRule{global, wrongCountry, pausedRule}, vendor, evalNow)

	if len(got) != 1 || got[0].Code != "GLOB-001" {
		t.Errorf("Filter returned %d rules, want only GLOB-001", len(got))
	}
}
