// Package engine evaluates policy rule condition trees against vendor
// compliance data and selects which rules apply to a given vendor.
//
// Evaluation is pure: given the same rule, data context, and reference
// time, EvaluateRule always produces the same verdict and findings, and
// has no side effects. The condition tree expresses the violation
// condition, so a tree that evaluates to true means the rule is violated.
//
// The operator set is closed. Dispatch goes through a fixed table keyed
// by ast.Operator; an operator outside the table is a hard evaluation
// error (UnknownOperatorError), never a silent false.
package engine
