package registry

import (
	"errors"
	"fmt"

	"vigil-hq/vigil/pkg/policy/ast"
)

var (
	// ErrDuplicateCode indicates a create with an already-registered rule code.
	ErrDuplicateCode = errors.New("rule code already registered")

	// ErrNilRule indicates a nil rule was passed to a write operation.
	ErrNilRule = errors.New("rule cannot be nil")
)

// NotFoundError indicates the requested rule code is not registered.
type NotFoundError struct {
	Code string
}

// Error returns the error message.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("policy rule %q not found", e.Code)
}

// ConflictError indicates a write carried a stale version. The caller
// must re-read and retry; overwriting silently would lose updates.
type ConflictError struct {
	Code     string
	Expected int
	Got      int
}

// Error returns the error message.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("policy rule %q version conflict: stored version %d, write carried %d", e.Code, e.Expected, e.Got)
}

// TransitionError indicates a rule status change not permitted by the
// lifecycle.
type TransitionError struct {
	Code string
	From ast.RuleStatus
	To   ast.RuleStatus
}

// Error returns the error message.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("policy rule %q cannot transition from %s to %s", e.Code, e.From, e.To)
}

// StorageError wraps a persistence failure.
type StorageError struct {
	Operation string
	Cause     error
}

// Error returns the error message.
func (e *StorageError) Error() string {
	return fmt.Sprintf("registry storage %s failed: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}
