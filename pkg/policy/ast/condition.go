package ast

import "fmt"

// MaxConditionDepth bounds the nesting of logical groups in a condition
// tree. Rules deeper than this are rejected at construction time.
const MaxConditionDepth = 32

// ConditionType discriminates between a leaf comparison and the three
// logical group combinators.
type ConditionType string

const (
	ConditionTypeLeaf ConditionType = "leaf" // field operator value
	ConditionTypeAnd  ConditionType = "and"  // all children must hold
	ConditionTypeOr   ConditionType = "or"   // at least one child must hold
	ConditionTypeNot  ConditionType = "not"  // negation of a single child
)

// Operator is a comparison operator for leaf conditions. The set is closed:
// Valid reports whether an operator is recognized, and both the parser and
// the evaluator reject anything outside it.
type Operator string

const (
	OperatorEquals         Operator = "equals"
	OperatorNotEquals      Operator = "not_equals"
	OperatorGreaterThan    Operator = "greater_than"
	OperatorLessThan       Operator = "less_than"
	OperatorGreaterOrEqual Operator = "greater_or_equal"
	OperatorLessOrEqual    Operator = "less_or_equal"
	OperatorContains       Operator = "contains"
	OperatorNotContains    Operator = "not_contains"
	OperatorIn             Operator = "in"
	OperatorNotIn          Operator = "not_in"
	OperatorExists         Operator = "exists"
	OperatorNotExists      Operator = "not_exists"
	OperatorExpired        Operator = "expired"
	OperatorNotExpired     Operator = "not_expired"
	OperatorWithinDays     Operator = "within_days"
	OperatorMatchesRegex   Operator = "matches_regex"
)

// Operators lists every recognized operator.
var Operators = []Operator{
	OperatorEquals, OperatorNotEquals,
	OperatorGreaterThan, OperatorLessThan,
	OperatorGreaterOrEqual, OperatorLessOrEqual,
	OperatorContains, OperatorNotContains,
	OperatorIn, OperatorNotIn,
	OperatorExists, OperatorNotExists,
	OperatorExpired, OperatorNotExpired,
	OperatorWithinDays, OperatorMatchesRegex,
}

// Valid reports whether op is a recognized operator.
func (op Operator) Valid() bool {
	for _, known := range Operators {
		if op == known {
			return true
		}
	}
	return false
}

// Unary reports whether the operator takes no expected value.
// exists/not_exists/expired/not_expired test only the field itself.
func (op Operator) Unary() bool {
	switch op {
	case OperatorExists, OperatorNotExists, OperatorExpired, OperatorNotExpired:
		return true
	default:
		return false
	}
}

// ConditionNode is one node of a condition tree: either a leaf comparison
// (Field, Operator, Value) or a logical group over Children.
//
// A rule's condition tree expresses the violation condition: the rule is
// violated when the tree evaluates to true against a vendor's compliance
// context, and passes when it evaluates to false.
type ConditionNode struct {
	Type     ConditionType    `yaml:"-" json:"type"`
	Field    string           `yaml:"field,omitempty" json:"field,omitempty"`
	Operator Operator         `yaml:"operator,omitempty" json:"operator,omitempty"`
	Value    any              `yaml:"value,omitempty" json:"value,omitempty"`
	Children []*ConditionNode `yaml:"-" json:"children,omitempty"`
}

// IsLeaf returns true if this node is a leaf comparison.
func (c *ConditionNode) IsLeaf() bool {
	return c.Type == ConditionTypeLeaf
}

// IsGroup returns true if this node is a logical group (and/or/not).
func (c *ConditionNode) IsGroup() bool {
	return c.Type == ConditionTypeAnd || c.Type == ConditionTypeOr || c.Type == ConditionTypeNot
}

// Depth returns the maximum nesting depth of the tree rooted at c.
// A single leaf has depth 1.
func (c *ConditionNode) Depth() int {
	if c == nil {
		return 0
	}
	max := 0
	for _, child := range c.Children {
		if d := child.Depth(); d > max {
			max = d
		}
	}
	return max + 1
}

// Clone returns a deep copy of the tree rooted at c. Stored rules hand out
// clones so callers can never mutate the registry's copy.
func (c *ConditionNode) Clone() *ConditionNode {
	if c == nil {
		return nil
	}
	clone := &ConditionNode{
		Type:     c.Type,
		Field:    c.Field,
		Operator: c.Operator,
		Value:    c.Value,
	}
	if len(c.Children) > 0 {
		clone.Children = make([]*ConditionNode, len(c.Children))
		for i, child := range c.Children {
			clone.Children[i] = child.Clone()
		}
	}
	return clone
}

// Walk calls fn for every node in the tree in depth-first order.
// Traversal stops early if fn returns false.
func (c *ConditionNode) Walk(fn func(*ConditionNode) bool) bool {
	if c == nil {
		return true
	}
	if !fn(c) {
		return false
	}
	for _, child := range c.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// Validate checks the structural well-formedness of the tree: known node
// types and operators, leaf completeness, NOT arity, group non-emptiness,
// and the depth bound.
func (c *ConditionNode) Validate() error {
	if c == nil {
		return fmt.Errorf("condition tree is required")
	}
	if d := c.Depth(); d > MaxConditionDepth {
		return fmt.Errorf("condition tree depth %d exceeds maximum %d", d, MaxConditionDepth)
	}
	return c.validateNode()
}

func (c *ConditionNode) validateNode() error {
	switch c.Type {
	case ConditionTypeLeaf:
		if c.Field == "" {
			return fmt.Errorf("leaf condition missing field")
		}
		if !c.Operator.Valid() {
			return fmt.Errorf("unknown operator %q on field %q", c.Operator, c.Field)
		}
		if c.Value == nil && !c.Operator.Unary() {
			return fmt.Errorf("operator %q on field %q requires a value", c.Operator, c.Field)
		}
		if len(c.Children) > 0 {
			return fmt.Errorf("leaf condition on field %q cannot have children", c.Field)
		}
		return nil

	case ConditionTypeAnd, ConditionTypeOr:
		if len(c.Children) == 0 {
			return fmt.Errorf("%s group must have at least one child", c.Type)
		}

	case ConditionTypeNot:
		if len(c.Children) != 1 {
			return fmt.Errorf("not group must have exactly one child, got %d", len(c.Children))
		}

	default:
		return fmt.Errorf("unknown condition type: %q", c.Type)
	}

	for _, child := range c.Children {
		if err := child.validateNode(); err != nil {
			return err
		}
	}
	return nil
}
