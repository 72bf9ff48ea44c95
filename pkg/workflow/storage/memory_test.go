package storage_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"vigil-hq/vigil/pkg/policy/ast"
	"vigil-hq/vigil/pkg/workflow"
	"vigil-hq/vigil/pkg/workflow/storage"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func sampleCase(number, vendorID string, status workflow.CaseStatus, createdAt time.Time) *workflow.RemediationCase {
	return &workflow.RemediationCase{
		CaseNumber:  number,
		VendorID:    vendorID,
		Type:        workflow.CaseTypePolicyViolation,
		Severity:    ast.SeverityHigh,
		Priority:    workflow.PriorityHigh,
		Status:      status,
		Title:       "Policy breach",
		AssignedTo:  "compliance_team",
		SLADeadline: createdAt.Add(7 * 24 * time.Hour),
		Version:     1,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	c := sampleCase("VGC-20260301-00000001", "V-100", workflow.CaseOpen, baseTime)
	if err := store.CreateCase(ctx, c); err != nil {
		t.Fatalf("CreateCase: %v", err)
	}

	got, err := store.GetCase(ctx, c.CaseNumber)
	if err != nil {
		t.Fatalf("GetCase: %v", err)
	}
	if got.VendorID != "V-100" || got.Version != 1 {
		t.Errorf("got %+v", got)
	}

	// The store hands out copies: mutating the result must not leak
	// back into the stored case.
	got.Status = workflow.CaseCancelled
	again, _ := store.GetCase(ctx, c.CaseNumber)
	if again.Status != workflow.CaseOpen {
		t.Errorf("stored case mutated through a returned copy")
	}

	if err := store.CreateCase(ctx, c); !errors.Is(err, workflow.ErrDuplicateCase) {
		t.Errorf("duplicate create err = %v, want ErrDuplicateCase", err)
	}

	_, err = store.GetCase(ctx, "VGC-20260301-missing0")
	var nerr *workflow.NotFoundError
	if !errors.As(err, &nerr) {
		t.Errorf("err = %v, want NotFoundError", err)
	}
}

func TestMemoryStore_UpdateVersionCheck(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	c := sampleCase("VGC-20260301-00000001", "V-100", workflow.CaseOpen, baseTime)
	if err := store.CreateCase(ctx, c); err != nil {
		t.Fatalf("CreateCase: %v", err)
	}

	first, _ := store.GetCase(ctx, c.CaseNumber)
	second, _ := store.GetCase(ctx, c.CaseNumber)

	first.Status = workflow.CaseInProgress
	if err := store.UpdateCase(ctx, first); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if first.Version != 2 {
		t.Errorf("version after update = %d, want 2", first.Version)
	}

	// The second reader still holds version 1; its write must lose.
	second.Status = workflow.CaseCancelled
	err := store.UpdateCase(ctx, second)
	var cerr *workflow.ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("stale update err = %v, want ConflictError", err)
	}
	if cerr.Expected != 2 || cerr.Got != 1 {
		t.Errorf("conflict = %+v, want expected 2 got 1", cerr)
	}

	stored, _ := store.GetCase(ctx, c.CaseNumber)
	if stored.Status != workflow.CaseInProgress {
		t.Errorf("losing write was applied: status %s", stored.Status)
	}

	missing := sampleCase("VGC-20260301-missing0", "V-100", workflow.CaseOpen, baseTime)
	var nerr *workflow.NotFoundError
	if err := store.UpdateCase(ctx, missing); !errors.As(err, &nerr) {
		t.Errorf("update of missing case err = %v, want NotFoundError", err)
	}
}

// TestMemoryStore_ConcurrentUpdates races many writers over one case and
// verifies that exactly one write per version wins. Run under -race.
func TestMemoryStore_ConcurrentUpdates(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	c := sampleCase("VGC-20260301-00000001", "V-100", workflow.CaseOpen, baseTime)
	if err := store.CreateCase(ctx, c); err != nil {
		t.Fatalf("CreateCase: %v", err)
	}

	const writers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	var wins, conflicts int

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			got, err := store.GetCase(ctx, c.CaseNumber)
			if err != nil {
				t.Errorf("writer %d get: %v", n, err)
				return
			}
			got.History = append(got.History, workflow.HistoryEntry{
				At:    baseTime,
				Event: "status_changed",
			})
			err = store.UpdateCase(ctx, got)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			default:
				var cerr *workflow.ConflictError
				if !errors.As(err, &cerr) {
					t.Errorf("writer %d update: %v", n, err)
					return
				}
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	if wins+conflicts != writers {
		t.Fatalf("wins %d + conflicts %d != %d writers", wins, conflicts, writers)
	}
	if wins == 0 {
		t.Fatal("no writer won")
	}

	final, _ := store.GetCase(ctx, c.CaseNumber)
	if final.Version != wins+1 {
		t.Errorf("final version = %d, want %d wins + 1", final.Version, wins)
	}
	if len(final.History) != wins {
		t.Errorf("history entries = %d, want %d", len(final.History), wins)
	}
}

func TestMemoryStore_ListCases(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	seed := []*workflow.RemediationCase{
		sampleCase("VGC-20260301-00000003", "V-200", workflow.CaseOpen, baseTime.Add(2*time.Hour)),
		sampleCase("VGC-20260301-00000001", "V-100", workflow.CaseInProgress, baseTime),
		sampleCase("VGC-20260301-00000002", "V-100", workflow.CaseResolved, baseTime.Add(time.Hour)),
	}
	for _, c := range seed {
		if err := store.CreateCase(ctx, c); err != nil {
			t.Fatalf("seed %s: %v", c.CaseNumber, err)
		}
	}

	t.Run("no filter returns all in creation order", func(t *testing.T) {
		out, err := store.ListCases(ctx, workflow.CaseFilter{})
		if err != nil {
			t.Fatalf("ListCases: %v", err)
		}
		if len(out) != 3 {
			t.Fatalf("len = %d, want 3", len(out))
		}
		if out[0].CaseNumber != "VGC-20260301-00000001" || out[2].CaseNumber != "VGC-20260301-00000003" {
			t.Errorf("order = %s, %s, %s", out[0].CaseNumber, out[1].CaseNumber, out[2].CaseNumber)
		}
	})

	t.Run("vendor filter", func(t *testing.T) {
		out, _ := store.ListCases(ctx, workflow.CaseFilter{VendorID: "V-100"})
		if len(out) != 2 {
			t.Errorf("len = %d, want 2", len(out))
		}
	})

	t.Run("status filter", func(t *testing.T) {
		out, _ := store.ListCases(ctx, workflow.CaseFilter{Statuses: []workflow.CaseStatus{workflow.CaseInProgress}})
		if len(out) != 1 || out[0].CaseNumber != "VGC-20260301-00000001" {
			t.Errorf("out = %+v", out)
		}
	})

	t.Run("overdue filter excludes terminal cases", func(t *testing.T) {
		at := baseTime.Add(30 * 24 * time.Hour)
		out, _ := store.ListCases(ctx, workflow.CaseFilter{OverdueAt: &at})
		if len(out) != 2 {
			t.Fatalf("len = %d, want 2 (resolved case excluded)", len(out))
		}
		for _, c := range out {
			if c.Status == workflow.CaseResolved {
				t.Errorf("terminal case %s in overdue listing", c.CaseNumber)
			}
		}
	})

	t.Run("overdue filter respects the deadline", func(t *testing.T) {
		at := baseTime.Add(time.Hour)
		out, _ := store.ListCases(ctx, workflow.CaseFilter{OverdueAt: &at})
		if len(out) != 0 {
			t.Errorf("len = %d, want 0 before any deadline", len(out))
		}
	})
}
