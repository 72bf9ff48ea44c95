package engine

import (
	"fmt"
	"log/slog"

	"vigil-hq/vigil/pkg/policy/ast"
)

// Finding records one leaf condition that held during evaluation, for
// explainability. A violated rule always carries at least one finding.
type Finding struct {
	Field    string       `json:"field"`
	Operator ast.Operator `json:"operator"`
	Expected any          `json:"expected,omitempty"`
	Actual   any          `json:"actual,omitempty"`
	Message  string       `json:"message"`
}

// EvalResult is the outcome of evaluating one rule against a context.
//
// The condition tree expresses the violation condition: Violated is the
// tree's boolean value, and Passed is its negation. Findings list every
// leaf that held, collected without short-circuiting so a compliance
// analyst can see all contributing comparisons.
type EvalResult struct {
	RuleCode string    `json:"ruleCode"`
	Violated bool      `json:"violated"`
	Findings []Finding `json:"findings,omitempty"`
}

// Passed reports whether the rule passed (no violation).
func (r *EvalResult) Passed() bool {
	return !r.Violated
}

// Evaluator evaluates policy rule condition trees. It holds no mutable
// state; a single Evaluator is safe for concurrent use.
type Evaluator struct {
	logger *slog.Logger
}

// NewEvaluator creates a rule evaluator.
func NewEvaluator(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		logger: logger.With("component", "policy.evaluator"),
	}
}

// EvaluateRule evaluates a rule's condition tree against the context and
// returns the verdict plus findings.
func (e *Evaluator) EvaluateRule(rule *ast.PolicyRule, evalCtx *Context) (*EvalResult, error) {
	if rule.Condition == nil {
		return nil, ErrNilCondition
	}
	if rule.Condition.Depth() > ast.MaxConditionDepth {
		return nil, ErrDepthExceeded
	}

	var findings []Finding
	violated, err := e.evaluate(rule.Condition, evalCtx, &findings)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("rule evaluated",
		"rule_code", rule.Code,
		"violated", violated,
		"finding_count", len(findings),
	)

	return &EvalResult{
		RuleCode: rule.Code,
		Violated: violated,
		Findings: findings,
	}, nil
}

// evaluate walks the tree recursively. Children are always evaluated in
// full, without boolean short-circuiting, so findings are complete.
func (e *Evaluator) evaluate(node *ast.ConditionNode, evalCtx *Context, findings *[]Finding) (bool, error) {
	switch node.Type {
	case ast.ConditionTypeLeaf:
		return e.evaluateLeaf(node, evalCtx, findings)

	case ast.ConditionTypeAnd:
		if len(node.Children) == 0 {
			return false, &GroupError{Type: node.Type, Message: "group has no children"}
		}
		all := true
		for _, child := range node.Children {
			held, err := e.evaluate(child, evalCtx, findings)
			if err != nil {
				return false, err
			}
			if !held {
				all = false
			}
		}
		return all, nil

	case ast.ConditionTypeOr:
		if len(node.Children) == 0 {
			return false, &GroupError{Type: node.Type, Message: "group has no children"}
		}
		any := false
		for _, child := range node.Children {
			held, err := e.evaluate(child, evalCtx, findings)
			if err != nil {
				return false, err
			}
			if held {
				any = true
			}
		}
		return any, nil

	case ast.ConditionTypeNot:
		if len(node.Children) != 1 {
			return false, &GroupError{Type: node.Type, Message: fmt.Sprintf("expected one child, got %d", len(node.Children))}
		}
		held, err := e.evaluate(node.Children[0], evalCtx, findings)
		if err != nil {
			return false, err
		}
		return !held, nil

	default:
		return false, &GroupError{Type: node.Type, Message: "unknown condition type"}
	}
}

// evaluateLeaf evaluates one leaf comparison. A missing field never
// satisfies a value comparison; the presence operators exists/not_exists
// test presence directly.
func (e *Evaluator) evaluateLeaf(node *ast.ConditionNode, evalCtx *Context, findings *[]Finding) (bool, error) {
	actual, present := evalCtx.Lookup(node.Field)

	var held bool
	switch node.Operator {
	case ast.OperatorExists:
		held = present && actual != nil

	case ast.OperatorNotExists:
		held = !present || actual == nil

	default:
		fn, known := operatorFuncs[node.Operator]
		if !known {
			return false, &UnknownOperatorError{Operator: node.Operator, Field: node.Field}
		}
		if !present {
			return false, nil
		}
		matched, err := fn(actual, node.Value, evalCtx.Now)
		if err != nil {
			return false, &ConditionError{Field: node.Field, Operator: node.Operator, Cause: err}
		}
		held = matched
	}

	if held {
		*findings = append(*findings, Finding{
			Field:    node.Field,
			Operator: node.Operator,
			Expected: node.Value,
			Actual:   actual,
			Message:  leafMessage(node, actual),
		})
	}

	return held, nil
}

// leafMessage builds the human-readable explanation for a finding.
func leafMessage(node *ast.ConditionNode, actual any) string {
	if node.Operator.Unary() {
		return fmt.Sprintf("field %q %s (actual: %v)", node.Field, node.Operator, actual)
	}
	return fmt.Sprintf("field %q %s %v (actual: %v)", node.Field, node.Operator, node.Value, actual)
}
