package profile

import (
	"time"

	"vigil-hq/vigil/pkg/policy/ast"
)

// Vendor is the slice of the vendor master record the compliance engines
// need: identity plus the scope dimensions policies filter on.
type Vendor struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Country       string  `json:"country"`
	Category      string  `json:"category"`
	Tier          string  `json:"tier"`
	ContractValue float64 `json:"contractValue"`
}

// AttributeStatus is the verification state of one compliance attribute
// (certificate, license, registration).
type AttributeStatus string

const (
	AttributeValid   AttributeStatus = "valid"
	AttributeExpired AttributeStatus = "expired"
	AttributeInvalid AttributeStatus = "invalid"
	AttributePending AttributeStatus = "pending"
	AttributeMissing AttributeStatus = "missing"
)

// ComplianceAttribute is one tracked compliance document or attestation
// on a vendor profile.
type ComplianceAttribute struct {
	Name      string          `json:"name"`
	Status    AttributeStatus `json:"status"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
	Verified  bool            `json:"verified"`
}

// ScreeningStatus is the outcome of an external screening check
// (sanctions lists, adverse media).
type ScreeningStatus struct {
	Status    string     `json:"status"` // clear, flagged, pending
	CheckedAt *time.Time `json:"checkedAt,omitempty"`
	Details   string     `json:"details,omitempty"`
}

// Restriction is an operational restriction applied to a vendor by hard
// enforcement. Restrictions are additive records; they are removed only
// by an explicit lift, never implicitly by case resolution.
type Restriction struct {
	Type      ast.RestrictionType `json:"type"`
	Reason    string              `json:"reason"`
	CaseRef   string              `json:"caseRef,omitempty"`
	AppliedAt time.Time           `json:"appliedAt"`
}

// WorkflowStatus tracks the engine-owned state on a profile: review flag
// and active restrictions.
type WorkflowStatus struct {
	ReviewRequired bool          `json:"reviewRequired"`
	ReviewReason   string        `json:"reviewReason,omitempty"`
	Restrictions   []Restriction `json:"restrictions,omitempty"`
}

// AuditEvent is one append-only entry in a profile's compliance audit trail.
type AuditEvent struct {
	At       time.Time      `json:"at"`
	Type     string         `json:"type"`
	Actor    string         `json:"actor,omitempty"`
	RuleCode string         `json:"ruleCode,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

// ComplianceProfile is the per-vendor compliance record: attribute
// statuses, screening flags, composite risk score, workflow state, and
// audit trail.
type ComplianceProfile struct {
	VendorID string `json:"vendorId"`

	ComplianceAttributes []ComplianceAttribute `json:"complianceAttributes,omitempty"`
	SanctionsStatus      ScreeningStatus       `json:"sanctionsStatus"`
	AdverseMediaStatus   ScreeningStatus       `json:"adverseMediaStatus"`

	CompositeScore float64 `json:"compositeScore"`
	Tier           string  `json:"tier,omitempty"`

	WorkflowStatus WorkflowStatus `json:"workflowStatus"`
	AuditTrail     []AuditEvent   `json:"auditTrail,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// Context flattens the profile into the field map condition trees are
// evaluated against. Attribute fields are exposed both in aggregate
// (complianceAttributes.expiredCount) and per attribute by name
// (attributes.<name>.status, attributes.<name>.expiresAt).
func (p *ComplianceProfile) Context() map[string]any {
	attrs := make(map[string]any, len(p.ComplianceAttributes))
	var expired, invalid, missing, valid int
	for _, a := range p.ComplianceAttributes {
		entry := map[string]any{
			"status":   string(a.Status),
			"verified": a.Verified,
		}
		if a.ExpiresAt != nil {
			entry["expiresAt"] = *a.ExpiresAt
		}
		attrs[a.Name] = entry

		switch a.Status {
		case AttributeExpired:
			expired++
		case AttributeInvalid:
			invalid++
		case AttributeMissing:
			missing++
		case AttributeValid:
			valid++
		}
	}

	restrictions := make([]string, 0, len(p.WorkflowStatus.Restrictions))
	for _, r := range p.WorkflowStatus.Restrictions {
		restrictions = append(restrictions, string(r.Type))
	}

	return map[string]any{
		"vendorId":       p.VendorID,
		"compositeScore": p.CompositeScore,
		"tier":           p.Tier,
		"sanctionsStatus": map[string]any{
			"status":  p.SanctionsStatus.Status,
			"details": p.SanctionsStatus.Details,
		},
		"adverseMediaStatus": map[string]any{
			"status":  p.AdverseMediaStatus.Status,
			"details": p.AdverseMediaStatus.Details,
		},
		"complianceAttributes": map[string]any{
			"total":        len(p.ComplianceAttributes),
			"validCount":   valid,
			"expiredCount": expired,
			"invalidCount": invalid,
			"missingCount": missing,
		},
		"attributes": attrs,
		"workflowStatus": map[string]any{
			"reviewRequired": p.WorkflowStatus.ReviewRequired,
			"restrictions":   restrictions,
		},
	}
}

// Context flattens the vendor record into evaluation fields.
func (v *Vendor) Context() map[string]any {
	return map[string]any{
		"vendorId":      v.ID,
		"vendorName":    v.Name,
		"country":       v.Country,
		"category":      v.Category,
		"vendorTier":    v.Tier,
		"contractValue": v.ContractValue,
	}
}
