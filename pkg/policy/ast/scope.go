package ast

import "slices"

// Scope limits which vendors a policy rule applies to. Empty lists mean
// "no restriction" for that dimension.
//
// SpecificVendors, when non-empty, pins the rule to exactly that vendor
// set and short-circuits the country/category/tier/contract-value checks.
// ExcludedVendors always wins over everything else.
type Scope struct {
	Global bool `yaml:"global,omitempty" json:"global,omitempty"`

	Countries  []string `yaml:"countries,omitempty" json:"countries,omitempty"`
	Categories []string `yaml:"categories,omitempty" json:"categories,omitempty"`
	Tiers      []string `yaml:"tiers,omitempty" json:"tiers,omitempty"`

	ContractValueMin *float64 `yaml:"contract_value_min,omitempty" json:"contractValueMin,omitempty"`
	ContractValueMax *float64 `yaml:"contract_value_max,omitempty" json:"contractValueMax,omitempty"`

	SpecificVendors []string `yaml:"specific_vendors,omitempty" json:"specificVendors,omitempty"`
	ExcludedVendors []string `yaml:"excluded_vendors,omitempty" json:"excludedVendors,omitempty"`
}

// Excludes reports whether the vendor is explicitly excluded.
func (s *Scope) Excludes(vendorID string) bool {
	return slices.Contains(s.ExcludedVendors, vendorID)
}

// Pinned reports whether the scope names an explicit vendor set.
func (s *Scope) Pinned() bool {
	return len(s.SpecificVendors) > 0
}

// Clone returns a deep copy of the scope.
func (s Scope) Clone() Scope {
	clone := s
	clone.Countries = slices.Clone(s.Countries)
	clone.Categories = slices.Clone(s.Categories)
	clone.Tiers = slices.Clone(s.Tiers)
	clone.SpecificVendors = slices.Clone(s.SpecificVendors)
	clone.ExcludedVendors = slices.Clone(s.ExcludedVendors)
	if s.ContractValueMin != nil {
		min := *s.ContractValueMin
		clone.ContractValueMin = &min
	}
	if s.ContractValueMax != nil {
		max := *s.ContractValueMax
		clone.ContractValueMax = &max
	}
	return clone
}
