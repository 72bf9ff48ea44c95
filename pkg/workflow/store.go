package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrDuplicateCase is returned when creating a case whose number is
// already stored.
var ErrDuplicateCase = errors.New("case number already exists")

// ConflictError reports a write against a stale case version. The
// caller should re-read the case and retry the mutation.
type ConflictError struct {
	CaseNumber string
	Expected   int
	Got        int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("case %s: version conflict: stored version %d, write carried %d",
		e.CaseNumber, e.Expected, e.Got)
}

// CaseFilter narrows a case listing. Zero-value fields do not filter.
type CaseFilter struct {
	VendorID string
	Statuses []CaseStatus
	// OverdueAt selects non-terminal cases whose SLA deadline is before
	// the given instant.
	OverdueAt *time.Time
}

// Matches reports whether a case satisfies the filter.
func (f CaseFilter) Matches(c *RemediationCase) bool {
	if f.VendorID != "" && c.VendorID != f.VendorID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if c.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.OverdueAt != nil {
		if c.Terminal() || !c.SLADeadline.Before(*f.OverdueAt) {
			return false
		}
	}
	return true
}

// CaseStore persists remediation cases. Updates are version-checked:
// an update whose Version does not match the stored version fails with
// ConflictError, and a successful update increments the stored version.
type CaseStore interface {
	// CreateCase stores a new case. Fails with ErrDuplicateCase if the
	// case number is taken.
	CreateCase(ctx context.Context, c *RemediationCase) error

	// UpdateCase replaces a stored case after checking that c.Version
	// matches the stored version. On success the stored copy and c both
	// carry Version+1.
	UpdateCase(ctx context.Context, c *RemediationCase) error

	// GetCase returns the case by number, or NotFoundError.
	GetCase(ctx context.Context, caseNumber string) (*RemediationCase, error)

	// ListCases returns cases matching the filter, ordered by creation
	// time ascending.
	ListCases(ctx context.Context, filter CaseFilter) ([]*RemediationCase, error)

	Close() error
}
