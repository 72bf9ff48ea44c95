package workflow_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"vigil-hq/vigil/pkg/policy/ast"
	"vigil-hq/vigil/pkg/profile"
	"vigil-hq/vigil/pkg/workflow"
	"vigil-hq/vigil/pkg/workflow/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// fixedClock returns a clock stuck at testStart plus the offset.
func fixedClock(offset time.Duration) func() time.Time {
	return func() time.Time { return testStart.Add(offset) }
}

func newTestManager(t *testing.T, profiles *profile.MemoryStore) (*workflow.Manager, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	mgr := workflow.NewManager(workflow.ManagerConfig{
		Store:    store,
		Exposure: profiles,
		Lifter:   profiles,
		Logger:   testLogger(),
		Now:      fixedClock(0),
	})
	return mgr, store
}

func seedProfiles(t *testing.T, exposure float64) *profile.MemoryStore {
	t.Helper()
	profiles := profile.NewMemoryStore()
	profiles.PutVendor(
		&profile.Vendor{ID: "V-100", Name: "Acme Metals", Country: "DE", Tier: "strategic"},
		&profile.ComplianceProfile{VendorID: "V-100"},
		exposure,
	)
	return profiles
}

func TestManager_CreateCase(t *testing.T) {
	profiles := seedProfiles(t, 2_000_000)
	mgr, _ := newTestManager(t, profiles)

	c, err := mgr.CreateCase(context.Background(), workflow.CaseRequest{
		VendorID: "V-100",
		RuleCode: "SANC-001",
		Type:     workflow.CaseTypeSanctionsHit,
		Severity: ast.SeverityCritical,
		Title:    "Sanctions list match",
		Actor:    "system",
	})
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}

	if c.Status != workflow.CaseOpen {
		t.Errorf("status = %s, want %s", c.Status, workflow.CaseOpen)
	}
	if c.Priority != workflow.PriorityUrgent {
		t.Errorf("priority = %s, want %s", c.Priority, workflow.PriorityUrgent)
	}
	if c.AssignedTo != "legal_team" {
		t.Errorf("assigned to %s, want legal_team", c.AssignedTo)
	}
	if c.Exposure != 2_000_000 {
		t.Errorf("exposure = %.0f, want 2000000", c.Exposure)
	}
	if !strings.HasPrefix(c.CaseNumber, "VGC-20260301-") {
		t.Errorf("case number %q does not carry the creation date", c.CaseNumber)
	}
	wantDeadline := testStart.Add(3 * 24 * time.Hour)
	if !c.SLADeadline.Equal(wantDeadline) {
		t.Errorf("deadline = %v, want %v", c.SLADeadline, wantDeadline)
	}
	if c.Version != 1 {
		t.Errorf("version = %d, want 1", c.Version)
	}
	if len(c.History) != 1 || c.History[0].Event != "case_created" {
		t.Errorf("history = %+v, want one case_created entry", c.History)
	}
}

func TestManager_CreateCase_Validation(t *testing.T) {
	mgr, _ := newTestManager(t, seedProfiles(t, 0))

	tests := []struct {
		name string
		req  workflow.CaseRequest
	}{
		{name: "missing vendor", req: workflow.CaseRequest{Type: workflow.CaseTypeAdverseMedia, Severity: ast.SeverityLow}},
		{name: "missing type", req: workflow.CaseRequest{VendorID: "V-100", Severity: ast.SeverityLow}},
		{name: "bad severity", req: workflow.CaseRequest{VendorID: "V-100", Type: workflow.CaseTypeAdverseMedia, Severity: "extreme"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mgr.CreateCase(context.Background(), tt.req)
			var verr *workflow.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}
}

type failingExposure struct{}

func (failingExposure) Exposure(context.Context, string) (float64, error) {
	return 0, errors.New("erp unreachable")
}

// TestManager_CreateCase_ExposureFailure verifies that a failed exposure
// lookup degrades to zero exposure instead of blocking the case.
func TestManager_CreateCase_ExposureFailure(t *testing.T) {
	mgr := workflow.NewManager(workflow.ManagerConfig{
		Store:    storage.NewMemoryStore(),
		Exposure: failingExposure{},
		Logger:   testLogger(),
		Now:      fixedClock(0),
	})

	c, err := mgr.CreateCase(context.Background(), workflow.CaseRequest{
		VendorID: "V-100",
		Type:     workflow.CaseTypePolicyViolation,
		Severity: ast.SeverityMedium,
		Title:    "Expired certificate",
	})
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}
	if c.Exposure != 0 {
		t.Errorf("exposure = %.0f, want 0", c.Exposure)
	}
	if c.Priority != workflow.PriorityNormal {
		t.Errorf("priority = %s, want %s", c.Priority, workflow.PriorityNormal)
	}
}

func TestManager_UpdateStatus(t *testing.T) {
	mgr, _ := newTestManager(t, seedProfiles(t, 0))
	ctx := context.Background()

	c, err := mgr.CreateCase(ctx, workflow.CaseRequest{
		VendorID: "V-100",
		Type:     workflow.CaseTypeDocumentExpired,
		Severity: ast.SeverityMedium,
		Title:    "ISO certificate lapsed",
	})
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}

	c, err = mgr.UpdateStatus(ctx, c.CaseNumber, workflow.CaseInProgress, "analyst", nil)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if c.Status != workflow.CaseInProgress {
		t.Errorf("status = %s, want in_progress", c.Status)
	}

	if _, err := mgr.UpdateStatus(ctx, c.CaseNumber, workflow.CaseResolved, "analyst", nil); err == nil {
		t.Fatal("in_progress -> resolved should be rejected")
	} else {
		var terr *workflow.InvalidTransitionError
		if !errors.As(err, &terr) {
			t.Errorf("err = %v, want InvalidTransitionError", err)
		}
	}
}

func TestManager_UpdateStatus_Hold(t *testing.T) {
	mgr, _ := newTestManager(t, seedProfiles(t, 0))
	ctx := context.Background()

	c, _ := mgr.CreateCase(ctx, workflow.CaseRequest{
		VendorID: "V-100",
		Type:     workflow.CaseTypeAdverseMedia,
		Severity: ast.SeverityLow,
		Title:    "Negative press coverage",
	})
	c, _ = mgr.UpdateStatus(ctx, c.CaseNumber, workflow.CaseInProgress, "analyst", nil)

	c, err := mgr.UpdateStatus(ctx, c.CaseNumber, workflow.CaseOnHold, "analyst", map[string]any{"reason": "awaiting vendor reply"})
	if err != nil {
		t.Fatalf("hold: %v", err)
	}
	if c.HeldFrom != workflow.CaseInProgress {
		t.Errorf("HeldFrom = %s, want in_progress", c.HeldFrom)
	}

	if _, err := mgr.UpdateStatus(ctx, c.CaseNumber, workflow.CasePendingReview, "analyst", nil); err == nil {
		t.Fatal("held case must return to its origin status only")
	}

	c, err = mgr.UpdateStatus(ctx, c.CaseNumber, workflow.CaseInProgress, "analyst", nil)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if c.HeldFrom != "" {
		t.Errorf("HeldFrom = %q, want cleared after resume", c.HeldFrom)
	}
}

// TestManager_UpdateStatus_AdministrativeClose tests closing a case that
// is being handled outside the engine; the closed case is then frozen.
func TestManager_UpdateStatus_AdministrativeClose(t *testing.T) {
	mgr, _ := newTestManager(t, seedProfiles(t, 0))
	ctx := context.Background()

	c, err := mgr.CreateCase(ctx, workflow.CaseRequest{
		VendorID: "V-100",
		Type:     workflow.CaseTypeAdverseMedia,
		Severity: ast.SeverityLow,
		Title:    "Superseded by vendor offboarding",
	})
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}

	c, err = mgr.UpdateStatus(ctx, c.CaseNumber, workflow.CaseClosed, "compliance_admin", map[string]any{"reason": "vendor offboarded"})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if c.Status != workflow.CaseClosed {
		t.Errorf("status = %s, want closed", c.Status)
	}

	if _, err := mgr.UpdateStatus(ctx, c.CaseNumber, workflow.CaseInProgress, "analyst", nil); err == nil {
		t.Fatal("closed case must be frozen")
	} else {
		var terr *workflow.TerminalCaseError
		if !errors.As(err, &terr) {
			t.Errorf("err = %v, want TerminalCaseError", err)
		}
	}
}

func TestManager_CompleteAction_AutoAdvance(t *testing.T) {
	mgr, _ := newTestManager(t, seedProfiles(t, 0))
	ctx := context.Background()

	c, _ := mgr.CreateCase(ctx, workflow.CaseRequest{
		VendorID: "V-100",
		Type:     workflow.CaseTypeDocumentExpired,
		Severity: ast.SeverityMedium,
		Title:    "ISO certificate lapsed",
	})
	c, _ = mgr.UpdateStatus(ctx, c.CaseNumber, workflow.CaseInProgress, "analyst", nil)

	c, err := mgr.AddAction(ctx, c.CaseNumber, workflow.CaseAction{Type: "request_document"}, "analyst")
	if err != nil {
		t.Fatalf("AddAction: %v", err)
	}
	c, err = mgr.AddAction(ctx, c.CaseNumber, workflow.CaseAction{Type: "verify_document"}, "analyst")
	if err != nil {
		t.Fatalf("AddAction: %v", err)
	}
	c, err = mgr.AddAction(ctx, c.CaseNumber, workflow.CaseAction{Type: "notify_owner", Bookkeeping: true}, "analyst")
	if err != nil {
		t.Fatalf("AddAction: %v", err)
	}

	c, err = mgr.CompleteAction(ctx, c.CaseNumber, c.Actions[0].ID, "analyst", "received")
	if err != nil {
		t.Fatalf("CompleteAction: %v", err)
	}
	if c.Status != workflow.CaseInProgress {
		t.Errorf("status after one of two actionable = %s, want in_progress", c.Status)
	}

	// Completing the second actionable item advances the case even
	// though the bookkeeping action is still pending.
	c, err = mgr.CompleteAction(ctx, c.CaseNumber, c.Actions[1].ID, "analyst", "verified")
	if err != nil {
		t.Fatalf("CompleteAction: %v", err)
	}
	if c.Status != workflow.CasePendingReview {
		t.Errorf("status = %s, want pending_review", c.Status)
	}

	// Completing an already completed action is rejected.
	if _, err := mgr.CompleteAction(ctx, c.CaseNumber, c.Actions[0].ID, "analyst", ""); err == nil {
		t.Error("re-completing an action should fail")
	}
}

func TestManager_CompleteAction_NoActionableWork(t *testing.T) {
	mgr, _ := newTestManager(t, seedProfiles(t, 0))
	ctx := context.Background()

	c, _ := mgr.CreateCase(ctx, workflow.CaseRequest{
		VendorID: "V-100",
		Type:     workflow.CaseTypeAdverseMedia,
		Severity: ast.SeverityLow,
		Title:    "Negative press coverage",
	})
	c, _ = mgr.UpdateStatus(ctx, c.CaseNumber, workflow.CaseInProgress, "analyst", nil)
	c, _ = mgr.AddAction(ctx, c.CaseNumber, workflow.CaseAction{Type: "record_note", Bookkeeping: true}, "analyst")

	c, err := mgr.CompleteAction(ctx, c.CaseNumber, c.Actions[0].ID, "analyst", "")
	if err != nil {
		t.Fatalf("CompleteAction: %v", err)
	}
	if c.Status != workflow.CaseInProgress {
		t.Errorf("bookkeeping-only case advanced to %s, want in_progress", c.Status)
	}
}

func TestManager_ResolveCase(t *testing.T) {
	profiles := seedProfiles(t, 0)
	mgr, _ := newTestManager(t, profiles)
	ctx := context.Background()

	c, _ := mgr.CreateCase(ctx, workflow.CaseRequest{
		VendorID: "V-100",
		Type:     workflow.CaseTypeSanctionsHit,
		Severity: ast.SeverityCritical,
		Title:    "Sanctions list match",
	})
	c, _ = mgr.UpdateStatus(ctx, c.CaseNumber, workflow.CaseInProgress, "analyst", nil)
	c, _ = mgr.UpdateStatus(ctx, c.CaseNumber, workflow.CasePendingReview, "analyst", nil)

	c, err := mgr.ResolveCase(ctx, c.CaseNumber, workflow.Resolution{
		Type:             "false_positive",
		Summary:          "name collision with sanctioned entity",
		ResolvedBy:       "reviewer",
		LiftRestrictions: true,
	})
	if err != nil {
		t.Fatalf("ResolveCase: %v", err)
	}
	if c.Status != workflow.CaseResolved {
		t.Errorf("status = %s, want resolved", c.Status)
	}
	if c.Resolution == nil || c.Resolution.Type != "false_positive" {
		t.Errorf("resolution = %+v, want false_positive", c.Resolution)
	}

	lifts := profiles.LiftRequests()
	if len(lifts) != 1 || lifts[0].VendorID != "V-100" {
		t.Fatalf("lift requests = %+v, want one for V-100", lifts)
	}

	// Resolution is set exactly once.
	_, err = mgr.ResolveCase(ctx, c.CaseNumber, workflow.Resolution{Type: "remediated", ResolvedBy: "reviewer"})
	var ierr *workflow.IntegrityError
	if !errors.As(err, &ierr) {
		t.Errorf("second resolve err = %v, want IntegrityError", err)
	}
}

func TestManager_ResolveCase_FromOpenRejected(t *testing.T) {
	mgr, _ := newTestManager(t, seedProfiles(t, 0))
	ctx := context.Background()

	c, _ := mgr.CreateCase(ctx, workflow.CaseRequest{
		VendorID: "V-100",
		Type:     workflow.CaseTypePolicyViolation,
		Severity: ast.SeverityHigh,
		Title:    "Policy breach",
	})

	_, err := mgr.ResolveCase(ctx, c.CaseNumber, workflow.Resolution{Type: "remediated", ResolvedBy: "analyst"})
	var terr *workflow.InvalidTransitionError
	if !errors.As(err, &terr) {
		t.Errorf("err = %v, want InvalidTransitionError", err)
	}
}

func TestManager_TerminalCaseFrozen(t *testing.T) {
	mgr, _ := newTestManager(t, seedProfiles(t, 0))
	ctx := context.Background()

	c, _ := mgr.CreateCase(ctx, workflow.CaseRequest{
		VendorID: "V-100",
		Type:     workflow.CaseTypeAdverseMedia,
		Severity: ast.SeverityLow,
		Title:    "Negative press coverage",
	})
	if _, err := mgr.UpdateStatus(ctx, c.CaseNumber, workflow.CaseCancelled, "analyst", nil); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := mgr.UpdateStatus(ctx, c.CaseNumber, workflow.CaseInProgress, "analyst", nil); err == nil {
		t.Error("status change on cancelled case should fail")
	}
	if _, err := mgr.AddAction(ctx, c.CaseNumber, workflow.CaseAction{Type: "request_document"}, "analyst"); err == nil {
		t.Error("adding an action to a cancelled case should fail")
	}

	var terr *workflow.TerminalCaseError
	_, err := mgr.UpdateStatus(ctx, c.CaseNumber, workflow.CaseInProgress, "analyst", nil)
	if !errors.As(err, &terr) {
		t.Errorf("err = %v, want TerminalCaseError", err)
	}
}

func TestManager_GetSLAStatus(t *testing.T) {
	store := storage.NewMemoryStore()
	mgr := workflow.NewManager(workflow.ManagerConfig{
		Store:  store,
		Logger: testLogger(),
		Now:    fixedClock(0),
	})
	ctx := context.Background()

	c, err := mgr.CreateCase(ctx, workflow.CaseRequest{
		VendorID: "V-100",
		Type:     workflow.CaseTypeDocumentExpired,
		Severity: ast.SeverityHigh,
		Title:    "ISO certificate lapsed",
	})
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}

	// Re-point the clock six and a half days in: inside the 24h at_risk
	// window of the seven day high severity budget.
	later := workflow.NewManager(workflow.ManagerConfig{
		Store:  store,
		Logger: testLogger(),
		Now:    fixedClock(6*24*time.Hour + 12*time.Hour),
	})
	report, err := later.GetSLAStatus(ctx, c.CaseNumber)
	if err != nil {
		t.Fatalf("GetSLAStatus: %v", err)
	}
	if report.Status != workflow.SLAAtRisk {
		t.Errorf("status = %s, want %s", report.Status, workflow.SLAAtRisk)
	}
}

func TestManager_AddCommunication(t *testing.T) {
	mgr, _ := newTestManager(t, seedProfiles(t, 0))
	ctx := context.Background()

	c, _ := mgr.CreateCase(ctx, workflow.CaseRequest{
		VendorID: "V-100",
		Type:     workflow.CaseTypeDocumentExpired,
		Severity: ast.SeverityMedium,
		Title:    "ISO certificate lapsed",
	})

	c, err := mgr.AddCommunication(ctx, c.CaseNumber, workflow.Communication{
		Channel: "email",
		From:    "vendor_management",
		Subject: "Certificate renewal request",
	})
	if err != nil {
		t.Fatalf("AddCommunication: %v", err)
	}
	if len(c.Comms) != 1 {
		t.Fatalf("comms = %d, want 1", len(c.Comms))
	}
	if c.Comms[0].At.IsZero() {
		t.Error("communication timestamp not defaulted")
	}
}

func TestManager_GetCase_NotFound(t *testing.T) {
	mgr, _ := newTestManager(t, seedProfiles(t, 0))

	_, err := mgr.GetCase(context.Background(), "VGC-20260301-missing0")
	var nerr *workflow.NotFoundError
	if !errors.As(err, &nerr) {
		t.Errorf("err = %v, want NotFoundError", err)
	}
}
