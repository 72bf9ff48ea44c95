package profile

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store, ExposureProvider,
// Notifier, and RestrictionLifter. It backs tests and single-process
// deployments.
type MemoryStore struct {
	mu        sync.RWMutex
	profiles  map[string]*ComplianceProfile
	vendors   map[string]*Vendor
	exposures map[string]float64
	alerts    []Alert
	lifts     []LiftRequest
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:  make(map[string]*ComplianceProfile),
		vendors:   make(map[string]*Vendor),
		exposures: make(map[string]float64),
	}
}

// PutVendor registers a vendor with its profile and exposure.
func (s *MemoryStore) PutVendor(vendor *Vendor, prof *ComplianceProfile, exposure float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vendors[vendor.ID] = vendor
	if prof != nil {
		prof.VendorID = vendor.ID
		s.profiles[vendor.ID] = prof
	}
	s.exposures[vendor.ID] = exposure
}

// GetProfile returns the compliance profile for a vendor.
func (s *MemoryStore) GetProfile(ctx context.Context, vendorID string) (*ComplianceProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[vendorID]
	if !ok {
		return nil, fmt.Errorf("profile for vendor %q not found", vendorID)
	}
	clone := *p
	clone.ComplianceAttributes = slices.Clone(p.ComplianceAttributes)
	clone.AuditTrail = slices.Clone(p.AuditTrail)
	clone.WorkflowStatus.Restrictions = slices.Clone(p.WorkflowStatus.Restrictions)
	return &clone, nil
}

// GetVendor returns the vendor record.
func (s *MemoryStore) GetVendor(ctx context.Context, vendorID string) (*Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vendors[vendorID]
	if !ok {
		return nil, fmt.Errorf("vendor %q not found", vendorID)
	}
	clone := *v
	return &clone, nil
}

// AppendAudit appends an audit event to the profile.
func (s *MemoryStore) AppendAudit(ctx context.Context, vendorID string, event AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[vendorID]
	if !ok {
		return fmt.Errorf("profile for vendor %q not found", vendorID)
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	p.AuditTrail = append(p.AuditTrail, event)
	p.UpdatedAt = event.At
	return nil
}

// FlagForReview marks the profile for human review.
func (s *MemoryStore) FlagForReview(ctx context.Context, vendorID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[vendorID]
	if !ok {
		return fmt.Errorf("profile for vendor %q not found", vendorID)
	}
	p.WorkflowStatus.ReviewRequired = true
	p.WorkflowStatus.ReviewReason = reason
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// ApplyRestriction adds a restriction record to the profile.
func (s *MemoryStore) ApplyRestriction(ctx context.Context, vendorID string, restriction Restriction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[vendorID]
	if !ok {
		return fmt.Errorf("profile for vendor %q not found", vendorID)
	}
	if restriction.AppliedAt.IsZero() {
		restriction.AppliedAt = time.Now().UTC()
	}
	p.WorkflowStatus.Restrictions = append(p.WorkflowStatus.Restrictions, restriction)
	p.UpdatedAt = restriction.AppliedAt
	return nil
}

// UpdateRiskScore stores a recalculated composite score and tier.
func (s *MemoryStore) UpdateRiskScore(ctx context.Context, vendorID string, score float64, tier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[vendorID]
	if !ok {
		return fmt.Errorf("profile for vendor %q not found", vendorID)
	}
	p.CompositeScore = score
	if tier != "" {
		p.Tier = tier
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// ListVendorIDs returns all registered vendor IDs, sorted.
func (s *MemoryStore) ListVendorIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.vendors))
	for id := range s.vendors {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Exposure returns the registered exposure for a vendor. Unknown vendors
// report zero exposure.
func (s *MemoryStore) Exposure(ctx context.Context, vendorID string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exposures[vendorID], nil
}

// SendAlert records the alert.
func (s *MemoryStore) SendAlert(ctx context.Context, alert Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alert)
	return nil
}

// Alerts returns all alerts sent so far.
func (s *MemoryStore) Alerts() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.alerts)
}

// LiftRestrictions removes matching restriction records and logs the request.
func (s *MemoryStore) LiftRestrictions(ctx context.Context, req LiftRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[req.VendorID]
	if !ok {
		return fmt.Errorf("profile for vendor %q not found", req.VendorID)
	}

	// Empty Types lifts every restriction on the profile.
	if len(req.Types) == 0 {
		p.WorkflowStatus.Restrictions = nil
	} else {
		keep := p.WorkflowStatus.Restrictions[:0]
		for _, r := range p.WorkflowStatus.Restrictions {
			if !slices.Contains(req.Types, r.Type) {
				keep = append(keep, r)
			}
		}
		p.WorkflowStatus.Restrictions = keep
	}
	s.lifts = append(s.lifts, req)
	return nil
}

// LiftRequests returns all lift requests received so far.
func (s *MemoryStore) LiftRequests() []LiftRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lifts)
}

// interface conformance
var (
	_ Store             = (*MemoryStore)(nil)
	_ ExposureProvider  = (*MemoryStore)(nil)
	_ Notifier          = (*MemoryStore)(nil)
	_ RestrictionLifter = (*MemoryStore)(nil)
)
