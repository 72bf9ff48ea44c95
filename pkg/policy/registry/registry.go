package registry

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"vigil-hq/vigil/pkg/policy/ast"
	"vigil-hq/vigil/pkg/policy/parser"
)

// Backend persists policy rules across restarts. The registry works
// without one; then rules live only in memory.
type Backend interface {
	SaveRule(ctx context.Context, rule *ast.PolicyRule) error
	LoadRules(ctx context.Context) ([]*ast.PolicyRule, error)
	Close() error
}

// Registry is the thread-safe in-memory rule set. All reads hand out
// clones so callers can never mutate registered rules in place.
type Registry struct {
	mu      sync.RWMutex
	rules   map[string]*ast.PolicyRule
	backend Backend
	logger  *slog.Logger
}

// New creates an empty registry. backend may be nil for memory-only use.
func New(backend Backend, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		rules:   make(map[string]*ast.PolicyRule),
		backend: backend,
		logger:  logger.With("component", "policy.registry"),
	}
}

// Restore loads persisted rules from the backend into memory.
func (r *Registry) Restore(ctx context.Context) error {
	if r.backend == nil {
		return nil
	}

	rules, err := r.backend.LoadRules(ctx)
	if err != nil {
		return &StorageError{Operation: "load", Cause: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rule := range rules {
		r.rules[rule.Code] = rule
	}

	r.logger.Info("registry restored", "rule_count", len(rules))
	return nil
}

// Create registers a new rule. The code must be unused; version starts
// at 1 unless the rule already carries one.
func (r *Registry) Create(ctx context.Context, rule *ast.PolicyRule) error {
	if rule == nil {
		return ErrNilRule
	}
	if err := rule.Condition.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[rule.Code]; exists {
		return ErrDuplicateCode
	}

	stored := rule.Clone()
	if stored.Version == 0 {
		stored.Version = 1
	}
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	if err := r.persist(ctx, stored); err != nil {
		return err
	}
	r.rules[stored.Code] = stored

	r.logger.Info("rule created", "rule_code", stored.Code, "severity", stored.Severity, "mode", stored.Enforcement.Mode)
	return nil
}

// Update replaces a rule's mutable fields. The incoming rule must carry
// the version it was read at; on mismatch the write fails with a
// ConflictError and nothing is changed. The stored version increments
// by one on success. Code is immutable: updates address rules by code.
func (r *Registry) Update(ctx context.Context, rule *ast.PolicyRule) error {
	if rule == nil {
		return ErrNilRule
	}
	if err := rule.Condition.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.rules[rule.Code]
	if !exists {
		return &NotFoundError{Code: rule.Code}
	}
	if current.Version != rule.Version {
		return &ConflictError{Code: rule.Code, Expected: current.Version, Got: rule.Version}
	}

	stored := rule.Clone()
	stored.Version = current.Version + 1
	stored.CreatedAt = current.CreatedAt
	stored.UpdatedAt = time.Now().UTC()

	if err := r.persist(ctx, stored); err != nil {
		return err
	}
	r.rules[stored.Code] = stored

	r.logger.Info("rule updated", "rule_code", stored.Code, "version", stored.Version)
	return nil
}

// SetStatus moves a rule through its lifecycle. Transitions outside the
// lifecycle graph fail with a TransitionError.
func (r *Registry) SetStatus(ctx context.Context, code string, status ast.RuleStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.rules[code]
	if !exists {
		return &NotFoundError{Code: code}
	}
	if !current.Status.CanTransition(status) {
		return &TransitionError{Code: code, From: current.Status, To: status}
	}

	stored := current.Clone()
	stored.Status = status
	stored.Version = current.Version + 1
	stored.UpdatedAt = time.Now().UTC()

	if err := r.persist(ctx, stored); err != nil {
		return err
	}
	r.rules[code] = stored

	r.logger.Info("rule status changed", "rule_code", code, "from", current.Status, "to", status)
	return nil
}

// Get returns a clone of the rule with the given code.
func (r *Registry) Get(code string) (*ast.PolicyRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, exists := r.rules[code]
	if !exists {
		return nil, &NotFoundError{Code: code}
	}
	return rule.Clone(), nil
}

// All returns clones of every registered rule, sorted by code.
func (r *Registry) All() []*ast.PolicyRule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ast.PolicyRule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Active returns clones of the rules that are active and effective at t,
// sorted by code. These are the evaluation candidates.
func (r *Registry) Active(t time.Time) []*ast.PolicyRule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*ast.PolicyRule
	for _, rule := range r.rules {
		if rule.Status == ast.StatusActive && rule.EffectiveAt(t) {
			out = append(out, rule.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// LoadDir parses every rule file under dir and replaces the registry
// contents atomically. Used for initial load and hot reload; persisted
// state is refreshed to match the files.
func (r *Registry) LoadDir(ctx context.Context, dir string) error {
	rules, err := parser.NewParser().ParseDir(dir)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	replacement := make(map[string]*ast.PolicyRule, len(rules))
	for _, rule := range rules {
		// Preserve version history across reloads of the same code.
		if prev, exists := r.rules[rule.Code]; exists {
			rule.Version = prev.Version + 1
			rule.CreatedAt = prev.CreatedAt
		}
		if err := r.persist(ctx, rule); err != nil {
			return err
		}
		replacement[rule.Code] = rule
	}
	r.rules = replacement

	r.logger.Info("rules loaded from directory", "dir", dir, "rule_count", len(rules))
	return nil
}

// persist writes one rule to the backend. Callers hold the write lock.
func (r *Registry) persist(ctx context.Context, rule *ast.PolicyRule) error {
	if r.backend == nil {
		return nil
	}
	if err := r.backend.SaveRule(ctx, rule); err != nil {
		return &StorageError{Operation: "save", Cause: err}
	}
	return nil
}
