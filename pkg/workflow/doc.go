// Package workflow drives remediation cases from violation to
// resolution: case creation with priority and SLA stamping, the case
// status state machine, enforcement dispatch, the five-level escalation
// ladder, and the human validation gate for low-confidence automated
// decisions.
//
// A case is owned by the Manager for mutation. Every write goes through
// the case store's version check, so concurrent escalation/completion
// calls surface as conflicts instead of lost updates. Once a case
// reaches a terminal status it is immutable except for audit-history
// appends.
package workflow
