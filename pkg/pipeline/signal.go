package pipeline

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Signal sources recognized by the pipeline. Unknown sources are
// accepted and passed through untouched.
const (
	SourceSanctionsScreening = "sanctions_screening"
	SourceAdverseMedia       = "adverse_media"
	SourceDocumentMonitor    = "document_monitor"
	SourceManualReport       = "manual_report"
)

// SignalStatus tracks how far a signal made it through the pipeline.
type SignalStatus string

const (
	SignalReceived  SignalStatus = "received"
	SignalEnriched  SignalStatus = "enriched"
	SignalProcessed SignalStatus = "processed"
	SignalFailed    SignalStatus = "failed"
)

// Signal is one inbound compliance event about a vendor.
//
// Confidence, EnrichedData, and SuggestedActions are filled by the risk
// service when enrichment succeeds; a signal persisted without them is
// still valid.
type Signal struct {
	ID         string         `json:"id"`
	VendorID   string         `json:"vendorId"`
	EventType  string         `json:"eventType"`
	Source     string         `json:"source"`
	RawPayload map[string]any `json:"rawPayload,omitempty"`

	Status           SignalStatus   `json:"status"`
	Confidence       float64        `json:"confidence,omitempty"`
	EnrichedData     map[string]any `json:"enrichedData,omitempty"`
	SuggestedActions []string       `json:"suggestedActions,omitempty"`

	Error      string    `json:"error,omitempty"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// NewSignal builds a signal in the received state.
func NewSignal(vendorID, eventType, source string, payload map[string]any) Signal {
	return Signal{
		ID:         uuid.NewString(),
		VendorID:   vendorID,
		EventType:  eventType,
		Source:     source,
		RawPayload: payload,
		Status:     SignalReceived,
		ReceivedAt: time.Now().UTC(),
	}
}

// SignalSink persists processed signals. Persistence must succeed even
// for unenriched signals.
type SignalSink interface {
	Persist(ctx context.Context, sig Signal) error
}

// MemorySink is an in-memory SignalSink for tests and ephemeral runs.
type MemorySink struct {
	mu      sync.RWMutex
	signals []Signal
}

var _ SignalSink = (*MemorySink)(nil)

// NewMemorySink creates an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Persist records the signal.
func (s *MemorySink) Persist(_ context.Context, sig Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = append(s.signals, sig)
	return nil
}

// Signals returns all persisted signals.
func (s *MemorySink) Signals() []Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.signals)
}
