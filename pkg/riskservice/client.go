package riskservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout bounds every risk-service call.
const DefaultTimeout = 30 * time.Second

const (
	enrichSignalPath  = "/compliance/enrich-signal"
	calculateRiskPath = "/compliance/calculate-risk"
)

// ClientConfig contains configuration for the risk-service client.
type ClientConfig struct {
	// BaseURL is the service base URL, e.g. "http://risk-service:5000".
	BaseURL string `yaml:"base_url"`

	// Timeout bounds each request. Default: 30s.
	Timeout time.Duration `yaml:"timeout"`

	// MaxIdleConns is the connection pool size. Default: 10.
	MaxIdleConns int `yaml:"max_idle_conns"`
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:      DefaultTimeout,
		MaxIdleConns: 10,
	}
}

// EnrichRequest carries a raw compliance signal to the enrichment
// endpoint.
type EnrichRequest struct {
	VendorID   string         `json:"vendorId,omitempty"`
	EventType  string         `json:"eventType"`
	Source     string         `json:"source"`
	RawPayload map[string]any `json:"rawPayload,omitempty"`
}

// EnrichResponse is the enrichment verdict: a confidence score plus
// derived data and suggested follow-up actions.
type EnrichResponse struct {
	Success          bool           `json:"success"`
	Confidence       float64        `json:"confidence"`
	EnrichedData     map[string]any `json:"enrichedData,omitempty"`
	SuggestedActions []string       `json:"suggestedActions,omitempty"`
	ProcessedAt      string         `json:"processedAt,omitempty"`
}

// RiskFactor is one weighted component of a composite risk score.
type RiskFactor struct {
	Name         string  `json:"name"`
	Weight       float64 `json:"weight"`
	Score        float64 `json:"score"`
	Contribution float64 `json:"contribution"`
}

// RiskRequest carries the vendor state the scoring model needs.
type RiskRequest struct {
	VendorID             string           `json:"vendorId"`
	ComplianceAttributes []map[string]any `json:"complianceAttributes,omitempty"`
	RiskFactors          map[string]any   `json:"riskFactors,omitempty"`
	SignalHistory        []map[string]any `json:"signalHistory,omitempty"`
}

// RiskResponse is the composite score with its factor breakdown.
type RiskResponse struct {
	Success        bool         `json:"success"`
	CompositeScore float64      `json:"compositeScore"`
	Tier           string       `json:"tier,omitempty"`
	Factors        []RiskFactor `json:"factors,omitempty"`
	RiskLevel      string       `json:"riskLevel,omitempty"`
	CalculatedAt   string       `json:"calculatedAt,omitempty"`
}

// Client calls the risk-scoring service over HTTP.
type Client struct {
	config ClientConfig
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a risk-service client with connection pooling.
func NewClient(config ClientConfig) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxIdleConns <= 0 {
		config.MaxIdleConns = 10
	}

	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConns,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		config: config,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		logger: slog.Default().With("component", "riskservice"),
	}
}

// EnrichSignal asks the service to score and annotate a raw signal.
func (c *Client) EnrichSignal(ctx context.Context, req EnrichRequest) (*EnrichResponse, error) {
	var out EnrichResponse
	if err := c.post(ctx, enrichSignalPath, req, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &ExternalServiceError{
			Endpoint: enrichSignalPath,
			Message:  "service reported failure",
		}
	}
	return &out, nil
}

// CalculateRisk asks the service for a composite vendor risk score.
func (c *Client) CalculateRisk(ctx context.Context, req RiskRequest) (*RiskResponse, error) {
	var out RiskResponse
	if err := c.post(ctx, calculateRiskPath, req, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &ExternalServiceError{
			Endpoint: calculateRiskPath,
			Message:  "service reported failure",
		}
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &ExternalServiceError{Endpoint: path, Message: "encode request", Cause: err}
	}

	url := c.config.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &ExternalServiceError{Endpoint: path, Message: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("risk service call failed",
			"endpoint", path, "elapsed", time.Since(start), "error", err)
		return &ExternalServiceError{Endpoint: path, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &ExternalServiceError{Endpoint: path, StatusCode: resp.StatusCode, Message: "read response", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &ExternalServiceError{
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status: %s", string(raw)),
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ExternalServiceError{Endpoint: path, StatusCode: resp.StatusCode, Message: "decode response", Cause: err}
	}

	c.logger.Debug("risk service call completed",
		"endpoint", path, "elapsed", time.Since(start))
	return nil
}
