// Package ast defines the data model for vendor compliance policy rules:
// the scoped, versioned rule document, its nested boolean condition tree,
// and the enforcement configuration attached to it.
//
// The condition tree is a value type built once (typically by the parser)
// and never mutated afterwards. Logical groups reference their children by
// ownership, so the structure is a tree by construction and cannot contain
// cycles. Tree depth is bounded by MaxConditionDepth to keep user-authored
// rules from recursing without limit.
package ast
