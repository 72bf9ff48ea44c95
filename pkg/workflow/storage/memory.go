package storage

import (
	"context"
	"sort"
	"sync"

	"vigil-hq/vigil/pkg/workflow"
)

// MemoryStore is an in-memory CaseStore. Suitable for tests and
// single-process runs without durability requirements.
type MemoryStore struct {
	mu    sync.RWMutex
	cases map[string]*workflow.RemediationCase
}

var _ workflow.CaseStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory case store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cases: make(map[string]*workflow.RemediationCase)}
}

// CreateCase stores a new case.
func (s *MemoryStore) CreateCase(_ context.Context, c *workflow.RemediationCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cases[c.CaseNumber]; exists {
		return workflow.ErrDuplicateCase
	}
	s.cases[c.CaseNumber] = c.Clone()
	return nil
}

// UpdateCase replaces a stored case after the version check and bumps
// both copies to the next version.
func (s *MemoryStore) UpdateCase(_ context.Context, c *workflow.RemediationCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.cases[c.CaseNumber]
	if !exists {
		return &workflow.NotFoundError{CaseNumber: c.CaseNumber}
	}
	if stored.Version != c.Version {
		return &workflow.ConflictError{
			CaseNumber: c.CaseNumber,
			Expected:   stored.Version,
			Got:        c.Version,
		}
	}
	c.Version++
	s.cases[c.CaseNumber] = c.Clone()
	return nil
}

// GetCase returns a copy of the case by number.
func (s *MemoryStore) GetCase(_ context.Context, caseNumber string) (*workflow.RemediationCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.cases[caseNumber]
	if !exists {
		return nil, &workflow.NotFoundError{CaseNumber: caseNumber}
	}
	return c.Clone(), nil
}

// ListCases returns copies of cases matching the filter, ordered by
// creation time.
func (s *MemoryStore) ListCases(_ context.Context, filter workflow.CaseFilter) ([]*workflow.RemediationCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*workflow.RemediationCase
	for _, c := range s.cases {
		if filter.Matches(c) {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CaseNumber < out[j].CaseNumber
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Close releases the store. No-op for the memory backend.
func (s *MemoryStore) Close() error {
	return nil
}
