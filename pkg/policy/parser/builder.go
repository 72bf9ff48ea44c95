package parser

import (
	"fmt"
	"time"

	"vigil-hq/vigil/pkg/policy/ast"
)

// buildRule converts an intermediate YAML rule into a validated
// ast.PolicyRule.
func buildRule(yr *yamlRule) (*ast.PolicyRule, error) {
	if yr.Code == "" {
		return nil, fmt.Errorf("missing required field: code")
	}
	if yr.Name == "" {
		return nil, fmt.Errorf("missing required field: name")
	}

	severity := ast.Severity(yr.Severity)
	if !severity.Valid() {
		return nil, fmt.Errorf("unknown severity %q", yr.Severity)
	}

	status := ast.RuleStatus(yr.Status)
	if yr.Status == "" {
		status = ast.StatusDraft
	}
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", yr.Status)
	}

	mode := ast.EnforcementMode(yr.Enforcement.Mode)
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown enforcement mode %q", yr.Enforcement.Mode)
	}

	actions := make([]ast.Action, 0, len(yr.Enforcement.Actions))
	for _, ya := range yr.Enforcement.Actions {
		actionType := ast.ActionType(ya.Type)
		if !actionType.Valid() {
			return nil, fmt.Errorf("unknown enforcement action %q", ya.Type)
		}
		actions = append(actions, ast.Action{
			Type:   actionType,
			Params: ya.Params,
		})
	}
	enforcement := ast.Enforcement{Mode: mode, Actions: actions}
	if mode == ast.ModeHardEnforce && len(enforcement.RestrictionActions()) == 0 {
		return nil, fmt.Errorf("hard_enforce requires at least one restriction action")
	}

	if yr.Condition == nil {
		return nil, fmt.Errorf("missing required field: condition")
	}
	condition, err := buildCondition(yr.Condition)
	if err != nil {
		return nil, err
	}
	if err := condition.Validate(); err != nil {
		return nil, err
	}

	version := yr.Version
	if version == 0 {
		version = 1
	}

	now := time.Now().UTC()
	rule := &ast.PolicyRule{
		Code:           yr.Code,
		Name:           yr.Name,
		Description:    yr.Description,
		Scope:          yr.Scope,
		Condition:      condition,
		Severity:       severity,
		Enforcement:    enforcement,
		Status:         status,
		Version:        version,
		EffectiveFrom:  yr.EffectiveFrom,
		EffectiveUntil: yr.EffectiveUntil,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	return rule, nil
}

// buildCondition converts one YAML condition mapping into a tree node.
// A mapping with an all/any/not key is a logical group; a mapping with a
// field key is a leaf comparison.
func buildCondition(m map[string]any) (*ast.ConditionNode, error) {
	groupKeys := 0
	for _, key := range []string{"all", "any", "not"} {
		if _, ok := m[key]; ok {
			groupKeys++
		}
	}
	if groupKeys > 1 {
		return nil, fmt.Errorf("condition cannot mix all/any/not keys")
	}

	if children, ok := m["all"]; ok {
		return buildGroup(ast.ConditionTypeAnd, children)
	}
	if children, ok := m["any"]; ok {
		return buildGroup(ast.ConditionTypeOr, children)
	}
	if child, ok := m["not"]; ok {
		return buildNot(child)
	}

	return buildLeaf(m)
}

// buildGroup builds an and/or group from a YAML list of child conditions.
func buildGroup(groupType ast.ConditionType, raw any) (*ast.ConditionNode, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a list of conditions", groupType)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%s must have at least one child", groupType)
	}

	node := &ast.ConditionNode{
		Type:     groupType,
		Children: make([]*ast.ConditionNode, 0, len(list)),
	}
	for i, item := range list {
		childMap, err := toConditionMap(item)
		if err != nil {
			return nil, fmt.Errorf("%s child %d: %w", groupType, i, err)
		}
		child, err := buildCondition(childMap)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}

	return node, nil
}

// buildNot builds a not group. The child may be a single mapping or a
// one-element list.
func buildNot(raw any) (*ast.ConditionNode, error) {
	if list, ok := raw.([]any); ok {
		if len(list) != 1 {
			return nil, fmt.Errorf("not must have exactly one child, got %d", len(list))
		}
		raw = list[0]
	}

	childMap, err := toConditionMap(raw)
	if err != nil {
		return nil, fmt.Errorf("not child: %w", err)
	}
	child, err := buildCondition(childMap)
	if err != nil {
		return nil, err
	}

	return &ast.ConditionNode{
		Type:     ast.ConditionTypeNot,
		Children: []*ast.ConditionNode{child},
	}, nil
}

// buildLeaf builds a leaf comparison from field/operator/value keys.
func buildLeaf(m map[string]any) (*ast.ConditionNode, error) {
	field, _ := m["field"].(string)
	if field == "" {
		return nil, fmt.Errorf("condition must have a field key or an all/any/not group")
	}

	opStr, _ := m["operator"].(string)
	op := ast.Operator(opStr)
	if !op.Valid() {
		return nil, fmt.Errorf("unknown operator %q on field %q", opStr, field)
	}

	node := &ast.ConditionNode{
		Type:     ast.ConditionTypeLeaf,
		Field:    field,
		Operator: op,
		Value:    m["value"],
	}
	if node.Value == nil && !op.Unary() {
		return nil, fmt.Errorf("operator %q on field %q requires a value", op, field)
	}

	return node, nil
}

// toConditionMap normalizes a YAML node into map[string]any. yaml.v3
// decodes nested mappings as map[string]any; documents written by
// yaml.v2 tooling arrive as map[any]any.
func toConditionMap(raw any) (map[string]any, error) {
	switch m := raw.(type) {
	case map[string]any:
		return m, nil
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("condition keys must be strings, got %T", k)
			}
			out[key] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("condition must be a mapping, got %T", raw)
	}
}
