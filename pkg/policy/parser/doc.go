// Package parser reads policy rule documents from YAML and builds the
// validated ast.PolicyRule values the engine evaluates.
//
// A rule file holds a list of rules. Conditions nest with all/any/not
// keys; a mapping with a field key is a leaf comparison:
//
//	rules:
//	  - code: SANC-001
//	    name: Sanctions screening hit
//	    severity: critical
//	    status: active
//	    enforcement:
//	      mode: hard_enforce
//	      actions:
//	        - type: suspend_vendor
//	        - type: notify
//	    condition:
//	      all:
//	        - field: sanctionsStatus.status
//	          operator: equals
//	          value: flagged
//
// Structural problems (unknown operators, malformed trees, duplicate
// codes) are construction-time errors: a rule that parses is a rule the
// engine can evaluate.
package parser
