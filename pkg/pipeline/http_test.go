package pipeline_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vigil-hq/vigil/pkg/pipeline"
	"vigil-hq/vigil/pkg/policy/ast"
)

// TestIntakeHandler_ProcessesSignal tests that a posted signal runs the
// full pipeline and returns the result.
func TestIntakeHandler_ProcessesSignal(t *testing.T) {
	fix := newFixture(t, []*ast.PolicyRule{scoreRule("RISK-001", ast.ModeSoftEnforce)}, nil, nil)
	handler := pipeline.NewIntakeHandler(fix.processor, testLogger())

	body := `{"vendorId":"V-100","eventType":"risk_review","source":"manual_report","payload":{"note":"quarterly check"}}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/signals", strings.NewReader(body)))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusAccepted, rec.Body.String())
	}
	var result pipeline.SignalResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.SignalID == "" {
		t.Error("SignalID is empty")
	}
	if result.Evaluated != 1 || len(result.Dispatches) != 1 {
		t.Fatalf("evaluated = %d, dispatches = %d, want 1 and 1", result.Evaluated, len(result.Dispatches))
	}
	if result.Dispatches[0].CaseNumber == "" {
		t.Error("dispatch did not open a case")
	}
	if got := fix.sink.Signals(); len(got) != 1 {
		t.Errorf("persisted signals = %d, want 1", len(got))
	}
}

// TestIntakeHandler_Rejections tests the intake's input validation.
func TestIntakeHandler_Rejections(t *testing.T) {
	fix := newFixture(t, nil, nil, nil)
	handler := pipeline.NewIntakeHandler(fix.processor, testLogger())

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
	}{
		{name: "wrong method", method: http.MethodGet, body: "", wantStatus: http.StatusMethodNotAllowed},
		{name: "malformed json", method: http.MethodPost, body: "{", wantStatus: http.StatusBadRequest},
		{name: "missing vendor id", method: http.MethodPost, body: `{"eventType":"risk_review"}`, wantStatus: http.StatusBadRequest},
		{name: "missing event type", method: http.MethodPost, body: `{"vendorId":"V-100"}`, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, "/signals", strings.NewReader(tt.body)))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if resp["error"] == "" {
				t.Error("error message is empty")
			}
		})
	}
}

// TestIntakeHandler_UnknownVendor tests that a pipeline failure surfaces
// as a server error, not a silent accept.
func TestIntakeHandler_UnknownVendor(t *testing.T) {
	fix := newFixture(t, []*ast.PolicyRule{scoreRule("RISK-001", ast.ModeMonitor)}, nil, nil)
	handler := pipeline.NewIntakeHandler(fix.processor, testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/signals",
		strings.NewReader(`{"vendorId":"V-999","eventType":"risk_review"}`)))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
