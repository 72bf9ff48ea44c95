package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"vigil-hq/vigil/pkg/policy/ast"
)

// Parser parses policy rule files into validated ast.PolicyRule values.
type Parser struct {
	maxFileSize int64
}

// NewParser creates a parser with default limits.
func NewParser() *Parser {
	return &Parser{
		maxFileSize: 10 * 1024 * 1024, // 10MB
	}
}

// WithMaxFileSize sets the maximum rule file size.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	p.maxFileSize = size
	return p
}

// yamlRuleFile is the intermediate structure for one rule document.
type yamlRuleFile struct {
	Rules []yamlRule `yaml:"rules"`
}

// yamlRule matches the YAML structure before conversion to the AST.
// Condition stays untyped here; buildCondition turns it into a tree.
type yamlRule struct {
	Code           string          `yaml:"code"`
	Name           string          `yaml:"name"`
	Description    string          `yaml:"description"`
	Scope          ast.Scope       `yaml:"scope"`
	Severity       string          `yaml:"severity"`
	Enforcement    yamlEnforcement `yaml:"enforcement"`
	Status         string          `yaml:"status"`
	Version        int             `yaml:"version"`
	EffectiveFrom  *time.Time      `yaml:"effective_from"`
	EffectiveUntil *time.Time      `yaml:"effective_until"`
	Condition      map[string]any  `yaml:"condition"`
}

type yamlEnforcement struct {
	Mode    string       `yaml:"mode"`
	Actions []yamlAction `yaml:"actions"`
}

type yamlAction struct {
	Type   string         `yaml:"type"`
	Params map[string]any `yaml:"params"`
}

// ParseFile parses one rule file.
func (p *Parser) ParseFile(path string) ([]*ast.PolicyRule, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access rule file %q: %w", path, err)
	}
	if info.Size() > p.maxFileSize {
		return nil, fmt.Errorf("rule file %q size %d exceeds maximum %d bytes", path, info.Size(), p.maxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file %q: %w", path, err)
	}

	rules, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("rule file %q: %w", path, err)
	}
	for _, rule := range rules {
		rule.SourceFile = path
	}
	return rules, nil
}

// ParseBytes parses rule YAML from memory.
func (p *Parser) ParseBytes(data []byte) ([]*ast.PolicyRule, error) {
	var file yamlRuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("no rules defined")
	}

	rules := make([]*ast.PolicyRule, 0, len(file.Rules))
	seen := make(map[string]bool, len(file.Rules))
	for i, yr := range file.Rules {
		rule, err := buildRule(&yr)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, yr.Code, err)
		}
		if seen[rule.Code] {
			return nil, fmt.Errorf("duplicate rule code %q", rule.Code)
		}
		seen[rule.Code] = true
		rules = append(rules, rule)
	}

	return rules, nil
}

// ParseDir parses every .yaml/.yml file under dir (non-recursive).
func (p *Parser) ParseDir(dir string) ([]*ast.PolicyRule, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule directory %q: %w", dir, err)
	}

	var all []*ast.PolicyRule
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		rules, err := p.ParseFile(path)
		if err != nil {
			return nil, err
		}
		for _, rule := range rules {
			if prev, dup := seen[rule.Code]; dup {
				return nil, fmt.Errorf("rule code %q defined in both %s and %s", rule.Code, prev, path)
			}
			seen[rule.Code] = path
		}
		all = append(all, rules...)
	}

	return all, nil
}
