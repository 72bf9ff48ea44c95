package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vigil-hq/vigil/pkg/policy/ast"
	"vigil-hq/vigil/pkg/policy/engine"
	"vigil-hq/vigil/pkg/profile"
	"vigil-hq/vigil/pkg/riskservice"
	"vigil-hq/vigil/pkg/telemetry/metrics"
	"vigil-hq/vigil/pkg/workflow"
)

// RuleSource supplies the rules in force at an instant. Satisfied by
// the policy registry.
type RuleSource interface {
	Active(t time.Time) []*ast.PolicyRule
}

// Enricher annotates raw signals. Satisfied by the risk-service client.
type Enricher interface {
	EnrichSignal(ctx context.Context, req riskservice.EnrichRequest) (*riskservice.EnrichResponse, error)
}

// RiskScorer computes composite vendor risk scores. Satisfied by the
// risk-service client.
type RiskScorer interface {
	CalculateRisk(ctx context.Context, req riskservice.RiskRequest) (*riskservice.RiskResponse, error)
}

// SignalResult reports what processing one signal produced.
type SignalResult struct {
	SignalID       string                    `json:"signalId"`
	Enriched       bool                      `json:"enriched"`
	Evaluated      int                       `json:"evaluated"`
	Dispatches     []workflow.DispatchResult `json:"dispatches,omitempty"`
	ValidationCase string                    `json:"validationCase,omitempty"`
}

// BatchItem is one item outcome in a batch run.
type BatchItem struct {
	ID    string `json:"id"`
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
}

// BatchResult aggregates a batch run: processed item IDs and the
// failures that were isolated and skipped.
type BatchResult struct {
	Processed []string    `json:"processed"`
	Failed    []BatchItem `json:"failed,omitempty"`
}

// Processor runs signals through enrichment, policy evaluation, and
// enforcement dispatch.
type Processor struct {
	rules         RuleSource
	applicability *engine.ApplicabilityFilter
	evaluator     *engine.Evaluator
	dispatcher    *workflow.Dispatcher
	gate          *workflow.HumanValidationGate
	profiles      profile.Store
	enricher      Enricher
	scorer        RiskScorer
	sink          SignalSink
	metrics       *metrics.Collector
	logger        *slog.Logger
	now           func() time.Time
}

// ProcessorConfig wires a Processor. Enricher, scorer, gate, and sink
// are optional; missing ones disable the corresponding stage.
type ProcessorConfig struct {
	Rules      RuleSource
	Dispatcher *workflow.Dispatcher
	Gate       *workflow.HumanValidationGate
	Profiles   profile.Store
	Enricher   Enricher
	Scorer     RiskScorer
	Sink       SignalSink
	Metrics    *metrics.Collector
	Logger     *slog.Logger
	Now        func() time.Time
}

// NewProcessor constructs a Processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("component", "pipeline")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Processor{
		rules:         cfg.Rules,
		applicability: engine.NewApplicabilityFilter(logger),
		evaluator:     engine.NewEvaluator(logger),
		dispatcher:    cfg.Dispatcher,
		gate:          cfg.Gate,
		profiles:      cfg.Profiles,
		enricher:      cfg.Enricher,
		scorer:        cfg.Scorer,
		sink:          cfg.Sink,
		metrics:       cfg.Metrics,
		logger:        logger,
		now:           now,
	}
}

// ProcessSignal runs one signal through the pipeline. Enrichment is
// best-effort: a risk-service failure is recorded on the signal and
// processing continues unenriched. The signal is persisted either way.
func (p *Processor) ProcessSignal(ctx context.Context, sig Signal) (SignalResult, error) {
	result := SignalResult{SignalID: sig.ID}

	if sig.VendorID == "" {
		sig.Status = SignalFailed
		sig.Error = "missing vendor id"
		p.persist(ctx, sig)
		return result, &workflow.ValidationError{Field: "vendorId", Message: "required"}
	}

	if p.enricher != nil {
		enriched, err := p.enricher.EnrichSignal(ctx, riskservice.EnrichRequest{
			VendorID:   sig.VendorID,
			EventType:  sig.EventType,
			Source:     sig.Source,
			RawPayload: sig.RawPayload,
		})
		if err != nil {
			p.logger.Warn("signal enrichment failed, continuing unenriched",
				"signal_id", sig.ID, "vendor_id", sig.VendorID, "error", err)
			if p.metrics != nil {
				p.metrics.Signals.RecordEnrichmentFailure(sig.Source)
			}
		} else {
			sig.Status = SignalEnriched
			sig.Confidence = enriched.Confidence
			sig.EnrichedData = enriched.EnrichedData
			sig.SuggestedActions = enriched.SuggestedActions
			result.Enriched = true
		}
	}

	evaluations, dispatches, err := p.evaluateAndDispatch(ctx, sig.VendorID)
	if err != nil {
		sig.Status = SignalFailed
		sig.Error = err.Error()
		p.persist(ctx, sig)
		return result, err
	}
	result.Evaluated = evaluations
	result.Dispatches = dispatches

	// Low-confidence enrichment with suggested actions goes through
	// the human validation gate rather than applying automatically.
	if result.Enriched && p.gate != nil && len(sig.SuggestedActions) > 0 &&
		p.gate.NeedsValidation(sig.Confidence) {
		c, err := p.gate.RequestValidation(ctx, sig.VendorID, workflow.ValidationRequest{
			DecisionType: "signal_suggested_actions",
			Decision: map[string]any{
				"signal_id":         sig.ID,
				"event_type":        sig.EventType,
				"suggested_actions": sig.SuggestedActions,
			},
			Confidence: sig.Confidence,
			Approvers:  []string{workflow.RouteAssignment(workflow.CaseTypeHumanValidation)},
		})
		if err != nil {
			p.logger.Error("validation request failed",
				"signal_id", sig.ID, "vendor_id", sig.VendorID, "error", err)
		} else {
			result.ValidationCase = c.CaseNumber
		}
	}

	sig.Status = SignalProcessed
	p.persist(ctx, sig)
	if p.metrics != nil {
		p.metrics.Signals.RecordSignal(sig.Source, string(sig.Status))
	}

	p.logger.Info("signal processed",
		"signal_id", sig.ID,
		"vendor_id", sig.VendorID,
		"event_type", sig.EventType,
		"enriched", result.Enriched,
		"violations", len(result.Dispatches))
	return result, nil
}

// ProcessBatch runs signals sequentially, isolating per-item failures.
func (p *Processor) ProcessBatch(ctx context.Context, signals []Signal) BatchResult {
	var batch BatchResult
	for _, sig := range signals {
		if _, err := p.ProcessSignal(ctx, sig); err != nil {
			batch.Failed = append(batch.Failed, BatchItem{ID: sig.ID, Err: err, Error: err.Error()})
			continue
		}
		batch.Processed = append(batch.Processed, sig.ID)
	}
	return batch
}

// EvaluateVendor evaluates every active applicable rule against the
// vendor and dispatches enforcement for violations.
func (p *Processor) EvaluateVendor(ctx context.Context, vendorID string) ([]workflow.DispatchResult, error) {
	_, dispatches, err := p.evaluateAndDispatch(ctx, vendorID)
	return dispatches, err
}

// EvaluateVendors runs bulk policy evaluation with per-item isolation.
func (p *Processor) EvaluateVendors(ctx context.Context, vendorIDs []string) BatchResult {
	var batch BatchResult
	for _, id := range vendorIDs {
		if _, err := p.EvaluateVendor(ctx, id); err != nil {
			batch.Failed = append(batch.Failed, BatchItem{ID: id, Err: err, Error: err.Error()})
			continue
		}
		batch.Processed = append(batch.Processed, id)
	}
	return batch
}

// RecalculateRisk asks the risk service for a fresh composite score for
// each vendor and stores it. Per-item isolation applies.
func (p *Processor) RecalculateRisk(ctx context.Context, vendorIDs []string) BatchResult {
	var batch BatchResult
	if p.scorer == nil {
		for _, id := range vendorIDs {
			batch.Failed = append(batch.Failed, BatchItem{ID: id, Error: "risk scorer not configured"})
		}
		return batch
	}

	for _, id := range vendorIDs {
		if err := p.recalculateOne(ctx, id); err != nil {
			p.logger.Warn("risk recalculation failed",
				"vendor_id", id, "error", err)
			batch.Failed = append(batch.Failed, BatchItem{ID: id, Err: err, Error: err.Error()})
			continue
		}
		batch.Processed = append(batch.Processed, id)
	}
	return batch
}

func (p *Processor) recalculateOne(ctx context.Context, vendorID string) error {
	prof, err := p.profiles.GetProfile(ctx, vendorID)
	if err != nil {
		return err
	}

	attrs := make([]map[string]any, 0, len(prof.ComplianceAttributes))
	for _, a := range prof.ComplianceAttributes {
		attrs = append(attrs, map[string]any{
			"name":   a.Name,
			"status": string(a.Status),
		})
	}

	resp, err := p.scorer.CalculateRisk(ctx, riskservice.RiskRequest{
		VendorID:             vendorID,
		ComplianceAttributes: attrs,
	})
	if err != nil {
		return err
	}
	return p.profiles.UpdateRiskScore(ctx, vendorID, resp.CompositeScore, resp.Tier)
}

func (p *Processor) evaluateAndDispatch(ctx context.Context, vendorID string) (int, []workflow.DispatchResult, error) {
	vendor, err := p.profiles.GetVendor(ctx, vendorID)
	if err != nil {
		return 0, nil, err
	}
	prof, err := p.profiles.GetProfile(ctx, vendorID)
	if err != nil {
		return 0, nil, err
	}

	now := p.now()
	applicable := p.applicability.Filter(p.rules.Active(now), vendor, now)
	evalCtx := engine.NewContext(prof.Context(), vendor.Context(), now)

	var dispatches []workflow.DispatchResult
	for _, rule := range applicable {
		started := time.Now()
		res, err := p.evaluator.EvaluateRule(rule, evalCtx)
		if err != nil {
			return len(applicable), dispatches, fmt.Errorf("evaluate rule %s: %w", rule.Code, err)
		}
		if p.metrics != nil {
			p.metrics.Evaluation.RecordEvaluation(rule.Code, res.Violated, time.Since(started))
		}
		if !res.Violated {
			continue
		}
		if p.metrics != nil {
			p.metrics.Evaluation.RecordViolation(rule.Code, string(rule.Severity))
		}
		dispatch, err := p.dispatcher.Dispatch(ctx, rule, vendor, *res)
		if err != nil {
			return len(applicable), dispatches, fmt.Errorf("dispatch rule %s: %w", rule.Code, err)
		}
		dispatches = append(dispatches, dispatch)
	}
	return len(applicable), dispatches, nil
}

func (p *Processor) persist(ctx context.Context, sig Signal) {
	if p.sink == nil {
		return
	}
	if err := p.sink.Persist(ctx, sig); err != nil {
		p.logger.Error("signal persistence failed",
			"signal_id", sig.ID, "error", err)
	}
}
