// Package riskservice is the HTTP client for the external risk-scoring
// service.
//
// The service enriches inbound compliance signals with confidence
// scores and suggested actions, and computes composite vendor risk
// scores. Every call carries an explicit timeout and every failure is
// an ExternalServiceError: callers treat enrichment as best-effort and
// never let a scoring outage fail the surrounding pipeline.
package riskservice
