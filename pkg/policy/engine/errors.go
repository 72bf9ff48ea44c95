package engine

import (
	"errors"
	"fmt"

	"vigil-hq/vigil/pkg/policy/ast"
)

// Common sentinel errors
var (
	// ErrNilCondition indicates a rule was evaluated without a condition tree.
	ErrNilCondition = errors.New("rule has no condition tree")

	// ErrDepthExceeded indicates a condition tree deeper than ast.MaxConditionDepth.
	ErrDepthExceeded = errors.New("condition tree depth exceeds maximum")
)

// UnknownOperatorError indicates a leaf condition carried an operator
// outside the closed operator set. This is a hard error by contract:
// it must never degrade to a silent non-match.
type UnknownOperatorError struct {
	Operator ast.Operator
	Field    string
}

// Error returns the error message.
func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("unknown operator %q on field %q", e.Operator, e.Field)
}

// ConditionError indicates a leaf condition could not be evaluated
// (type mismatch, bad regex, unparseable date).
type ConditionError struct {
	Field    string
	Operator ast.Operator
	Cause    error
}

// Error returns the error message.
func (e *ConditionError) Error() string {
	return fmt.Sprintf("condition %s %s: %v", e.Field, e.Operator, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ConditionError) Unwrap() error {
	return e.Cause
}

// GroupError indicates a malformed logical group encountered during
// evaluation (should normally be caught at construction time).
type GroupError struct {
	Type    ast.ConditionType
	Message string
}

// Error returns the error message.
func (e *GroupError) Error() string {
	return fmt.Sprintf("%s group: %s", e.Type, e.Message)
}
