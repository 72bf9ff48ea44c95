package pipeline

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"vigil-hq/vigil/pkg/workflow"
)

// maxIntakeBody bounds the size of a posted signal document.
const maxIntakeBody = 1 << 20

// intakeRequest is the wire form of an incoming compliance signal.
type intakeRequest struct {
	VendorID  string         `json:"vendorId"`
	EventType string         `json:"eventType"`
	Source    string         `json:"source,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// NewIntakeHandler returns the HTTP intake for compliance signals.
// POST a JSON signal document; the response is the SignalResult the
// pipeline produced for it.
func NewIntakeHandler(p *Processor, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default().With("component", "signal_intake")
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeIntakeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req intakeRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIntakeBody))
		if err := dec.Decode(&req); err != nil {
			writeIntakeError(w, http.StatusBadRequest, "invalid signal document: "+err.Error())
			return
		}
		if req.VendorID == "" || req.EventType == "" {
			writeIntakeError(w, http.StatusBadRequest, "vendorId and eventType are required")
			return
		}
		if req.Source == "" {
			req.Source = SourceManualReport
		}

		result, err := p.ProcessSignal(r.Context(), NewSignal(req.VendorID, req.EventType, req.Source, req.Payload))
		if err != nil {
			var verr *workflow.ValidationError
			if errors.As(err, &verr) {
				writeIntakeError(w, http.StatusBadRequest, err.Error())
				return
			}
			logger.Error("signal intake failed",
				"vendor_id", req.VendorID, "event_type", req.EventType, "error", err)
			writeIntakeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		if err := json.NewEncoder(w).Encode(result); err != nil {
			logger.Error("intake response write failed", "error", err)
		}
	})
}

func writeIntakeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
