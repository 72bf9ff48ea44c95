package profile

import (
	"context"

	"vigil-hq/vigil/pkg/policy/ast"
)

// Store reads and writes vendor compliance profiles, keyed by vendor ID.
type Store interface {
	// GetProfile returns the compliance profile for a vendor.
	GetProfile(ctx context.Context, vendorID string) (*ComplianceProfile, error)

	// GetVendor returns the vendor record for scope filtering.
	GetVendor(ctx context.Context, vendorID string) (*Vendor, error)

	// AppendAudit appends an event to the profile's audit trail.
	AppendAudit(ctx context.Context, vendorID string, event AuditEvent) error

	// FlagForReview marks the profile's workflow status for human review.
	FlagForReview(ctx context.Context, vendorID, reason string) error

	// ApplyRestriction adds a restriction record to the profile.
	ApplyRestriction(ctx context.Context, vendorID string, restriction Restriction) error

	// UpdateRiskScore stores a recalculated composite score and tier.
	UpdateRiskScore(ctx context.Context, vendorID string, score float64, tier string) error

	// ListVendorIDs returns all known vendor IDs, for batch operations.
	ListVendorIDs(ctx context.Context) ([]string, error)
}

// ExposureProvider reports a vendor's financial exposure: the sum of open
// invoice, contract, and order value tied to the vendor.
type ExposureProvider interface {
	Exposure(ctx context.Context, vendorID string) (float64, error)
}

// Alert is one outbound notification. Transport (email, SMS, chat) is the
// dispatcher implementation's concern.
type Alert struct {
	VendorID   string
	AlertType  string
	Severity   ast.Severity
	Title      string
	Message    string
	Data       map[string]any
	Recipients []string
}

// Notifier dispatches alerts to the notification transport.
type Notifier interface {
	SendAlert(ctx context.Context, alert Alert) error
}

// LiftRequest asks the restriction owner to remove restriction records
// from a vendor profile.
type LiftRequest struct {
	VendorID string
	Types    []ast.RestrictionType
	LiftedBy string
	Reason   string
}

// RestrictionLifter removes restrictions. Lifting is always explicit: the
// workflow engine requests it on resolution, it never happens implicitly.
type RestrictionLifter interface {
	LiftRestrictions(ctx context.Context, req LiftRequest) error
}
